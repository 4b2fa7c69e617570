// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensordict

import (
	itensor "github.com/born-ml/tensordict/internal/tensor"
	"github.com/born-ml/tensordict/internal/tensordict"
)

// Type aliases for public API

// TensorDict is an immutable nested container of batched tensor leaves.
type TensorDict = tensordict.TensorDict

// Value is an entry value: a tensor.Leaf or a nested *TensorDict.
type Value = tensordict.Value

// Item is one key/value pair of a tree level, as returned by Items.
type Item = tensordict.Item

// LeafFunc transforms one leaf under Map and MapBatch.
type LeafFunc = tensordict.LeafFunc

// TreeSpec is the value-independent structure descriptor produced by
// Flatten, usable as a retrace-cache key via Equal and Hash.
type TreeSpec = tensordict.TreeSpec

// LeafMeta is the static per-leaf metadata a TreeSpec records.
type LeafMeta = tensordict.LeafMeta

// Failure kinds, matchable with errors.Is.
var (
	ErrShapeMismatch       = tensordict.ErrShapeMismatch
	ErrEmptyOrIncompatible = tensordict.ErrEmptyOrIncompatible
	ErrKeyConflict         = tensordict.ErrKeyConflict
	ErrKeyNotFound         = tensordict.ErrKeyNotFound
	ErrStructureMismatch   = tensordict.ErrStructureMismatch
	ErrBatchShapeViolation = tensordict.ErrBatchShapeViolation
	ErrArityMismatch       = tensordict.ErrArityMismatch
	ErrMetadataMismatch    = tensordict.ErrMetadataMismatch
	ErrEmptyOperands       = tensordict.ErrEmptyOperands
	ErrDeviceMismatch      = tensordict.ErrDeviceMismatch
	ErrUnsupportedCast     = tensordict.ErrUnsupportedCast
)

// New creates a tree from entries. A nil batchShape infers the batch shape
// as the longest common shape prefix of all entries; a non-nil batchShape
// must be a prefix of every entry's shape.
//
// Example:
//
//	td, err := tensordict.New(map[string]tensordict.Value{
//	    "obs":    obs,  // shape [32, 84, 84]
//	    "action": act,  // shape [32]
//	}, tensor.Shape{32})
func New(entries map[string]Value, batchShape itensor.Shape) (*TensorDict, error) {
	return tensordict.New(entries, batchShape)
}

// NewWithDevice creates a tree like New and additionally requires every
// leaf to live on device.
func NewWithDevice(entries map[string]Value, batchShape itensor.Shape, device itensor.Device) (*TensorDict, error) {
	return tensordict.NewWithDevice(entries, batchShape, device)
}

// Stack stacks trees with identical structure along a new batch dimension.
//
// Example:
//
//	batch, err := tensordict.Stack([]*tensordict.TensorDict{t1, t2}, 0)
func Stack(dicts []*TensorDict, dim int) (*TensorDict, error) {
	return tensordict.Stack(dicts, dim)
}

// Cat concatenates trees with identical structure along an existing batch
// dimension.
func Cat(dicts []*TensorDict, dim int) (*TensorDict, error) {
	return tensordict.Cat(dicts, dim)
}

// Unflatten reconstructs a tree from a leaf sequence and a descriptor
// produced by Flatten, validating arity and per-leaf metadata.
func Unflatten(leaves []itensor.Leaf, spec *TreeSpec) (*TensorDict, error) {
	return tensordict.Unflatten(leaves, spec)
}
