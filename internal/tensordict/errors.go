// Package tensordict implements a nested, string-keyed container of batched
// tensor leaves sharing a common set of leading batch dimensions. Operations
// are copy-producing: a TensorDict is never mutated, operations return a new
// tree that may share untouched sub-branches and leaf storage with its input.
package tensordict

import (
	"github.com/cockroachdb/errors"

	"github.com/born-ml/tensordict/internal/tensor"
)

// Failure kinds. Every operation either returns a fully valid new tree or
// fails with an error matching exactly one of these via errors.Is; detail
// about the offending keys and shapes travels in the error message.
var (
	// ErrShapeMismatch reports a batch-shape prefix violation or a
	// reshape/index whose geometry does not fit the batch dims.
	ErrShapeMismatch = errors.New("tensordict: shape mismatch")

	// ErrEmptyOrIncompatible reports batch-shape inference over an empty
	// entry set or entries sharing no common leading-dimension prefix.
	ErrEmptyOrIncompatible = errors.New("tensordict: cannot infer batch shape")

	// ErrKeyConflict reports an invalid entry key.
	ErrKeyConflict = errors.New("tensordict: key conflict")

	// ErrKeyNotFound reports a lookup for a key that is not present.
	ErrKeyNotFound = errors.New("tensordict: key not found")

	// ErrStructureMismatch reports N-ary operands whose key trees or
	// non-batch leaf layouts differ.
	ErrStructureMismatch = errors.New("tensordict: structure mismatch")

	// ErrBatchShapeViolation reports a map whose leaf function produced
	// shapes inconsistent with the declared batch shape.
	ErrBatchShapeViolation = errors.New("tensordict: batch shape violation")

	// ErrArityMismatch reports an unflatten leaf sequence whose length
	// disagrees with the descriptor.
	ErrArityMismatch = errors.New("tensordict: arity mismatch")

	// ErrMetadataMismatch reports an unflatten leaf whose shape or dtype
	// disagrees with the descriptor's recorded metadata.
	ErrMetadataMismatch = errors.New("tensordict: metadata mismatch")

	// ErrEmptyOperands reports an N-ary operation over zero trees.
	ErrEmptyOperands = errors.New("tensordict: empty operand list")

	// ErrDeviceMismatch reports a leaf whose device disagrees with the
	// tree's configured uniform device.
	ErrDeviceMismatch = errors.New("tensordict: device mismatch")

	// ErrUnsupportedCast is the leaf adapter's cast failure, re-exported
	// so callers can match it without importing the tensor package.
	ErrUnsupportedCast = tensor.ErrUnsupportedCast
)
