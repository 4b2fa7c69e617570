package tensordict

import (
	"github.com/cockroachdb/errors"

	"github.com/born-ml/tensordict/internal/tensor"
)

// LeafFunc transforms one leaf. Implementations must be copy-producing,
// like every Leaf operation.
type LeafFunc func(tensor.Leaf) (tensor.Leaf, error)

// Map applies fn to every leaf, depth-first, and reassembles the tree with
// unchanged batch shapes. Each transformed leaf must still exhibit its
// node's batch shape as a shape prefix; a violation fails the whole
// operation with ErrBatchShapeViolation. The result carries no uniform
// device requirement, since fn may move leaves anywhere.
func (td *TensorDict) Map(fn LeafFunc) (*TensorDict, error) {
	entries := make(map[string]Value, len(td.entries))
	for k, v := range td.entries {
		switch v := v.(type) {
		case *TensorDict:
			sub, err := v.Map(fn)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = sub
		case tensor.Leaf:
			out, err := fn(v)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			if !out.Shape().HasPrefix(td.batch) {
				return nil, errors.Mark(
					errors.Newf("tensordict: entry %q mapped to shape %v, want batch prefix %v",
						k, out.Shape(), td.batch),
					ErrBatchShapeViolation)
			}
			entries[k] = out
		}
	}
	return newUnchecked(entries, td.batch, nil), nil
}

// MapBatch applies fn to every leaf and declares newBatch as the batch
// shape of every level of the result. Use it for shape-changing leaf
// functions; nested batch extensions of the input are not carried over.
func (td *TensorDict) MapBatch(fn LeafFunc, newBatch tensor.Shape) (*TensorDict, error) {
	if err := newBatch.Validate(); err != nil {
		return nil, errors.Mark(err, ErrShapeMismatch)
	}
	return td.mapBatch(fn, newBatch)
}

func (td *TensorDict) mapBatch(fn LeafFunc, newBatch tensor.Shape) (*TensorDict, error) {
	entries := make(map[string]Value, len(td.entries))
	for k, v := range td.entries {
		switch v := v.(type) {
		case *TensorDict:
			sub, err := v.mapBatch(fn, newBatch)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = sub
		case tensor.Leaf:
			out, err := fn(v)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			if !out.Shape().HasPrefix(newBatch) {
				return nil, errors.Mark(
					errors.Newf("tensordict: entry %q mapped to shape %v, want batch prefix %v",
						k, out.Shape(), newBatch),
					ErrBatchShapeViolation)
			}
			entries[k] = out
		}
	}
	return newUnchecked(entries, newBatch.Clone(), nil), nil
}

// Index applies spec to the batch dimensions of every leaf, never to
// trailing per-leaf dims, and recomputes the batch shape from the index
// result. All leaves see the same spec, so alignment across leaves is
// preserved.
func (td *TensorDict) Index(spec ...tensor.DimIndex) (*TensorDict, error) {
	ispec := tensor.IndexSpec(spec)
	if len(ispec) > len(td.batch) {
		return nil, errors.Mark(
			errors.Newf("tensordict: index spec has %d dims but batch shape %v has rank %d",
				len(ispec), td.batch, len(td.batch)),
			ErrShapeMismatch)
	}
	newBatch, err := ispec.ResultShape(td.batch)
	if err != nil {
		return nil, errors.Mark(err, ErrShapeMismatch)
	}

	entries := make(map[string]Value, len(td.entries))
	for k, v := range td.entries {
		switch v := v.(type) {
		case *TensorDict:
			sub, err := v.Index(spec...)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = sub
		case tensor.Leaf:
			out, err := v.Index(ispec)
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "entry %q", k), ErrShapeMismatch)
			}
			entries[k] = out
		}
	}
	if err := revalidate(entries, newBatch); err != nil {
		return nil, err
	}
	return newUnchecked(entries, newBatch, td.device), nil
}

// Reshape returns a tree whose batch dimensions are reshaped to newBatch.
// The batch element count must be preserved; per-leaf trailing dims and
// nested batch extensions pass through unchanged.
func (td *TensorDict) Reshape(newBatch tensor.Shape) (*TensorDict, error) {
	if err := newBatch.Validate(); err != nil {
		return nil, errors.Mark(err, ErrShapeMismatch)
	}
	if newBatch.NumElements() != td.batch.NumElements() {
		return nil, errors.Mark(
			errors.Newf("tensordict: cannot reshape batch %v (%d elements) to %v (%d elements)",
				td.batch, td.batch.NumElements(), newBatch, newBatch.NumElements()),
			ErrShapeMismatch)
	}

	entries := make(map[string]Value, len(td.entries))
	for k, v := range td.entries {
		switch v := v.(type) {
		case *TensorDict:
			extra := v.batch.Tail(len(td.batch))
			sub, err := v.Reshape(newBatch.Concat(extra))
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = sub
		case tensor.Leaf:
			tail := v.Shape().Tail(len(td.batch))
			out, err := v.Reshape(newBatch.Concat(tail))
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "entry %q", k), ErrShapeMismatch)
			}
			entries[k] = out
		}
	}
	if err := revalidate(entries, newBatch); err != nil {
		return nil, err
	}
	return newUnchecked(entries, newBatch.Clone(), td.device), nil
}

// Unsqueeze inserts a batch dimension of size one at dim. dim may be
// negative, counting from the end of the result's batch rank.
func (td *TensorDict) Unsqueeze(dim int) (*TensorDict, error) {
	rank := len(td.batch)
	if dim < 0 {
		dim += rank + 1
	}
	if dim < 0 || dim > rank {
		return nil, errors.Mark(
			errors.Newf("tensordict: unsqueeze dim %d out of range for batch rank %d", dim, rank),
			ErrShapeMismatch)
	}
	newBatch := make(tensor.Shape, 0, rank+1)
	newBatch = append(newBatch, td.batch[:dim]...)
	newBatch = append(newBatch, 1)
	newBatch = append(newBatch, td.batch[dim:]...)
	return td.Reshape(newBatch)
}

// Squeeze removes a batch dimension of size one at dim.
func (td *TensorDict) Squeeze(dim int) (*TensorDict, error) {
	rank := len(td.batch)
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		return nil, errors.Mark(
			errors.Newf("tensordict: squeeze dim %d out of range for batch rank %d", dim, rank),
			ErrShapeMismatch)
	}
	if td.batch[dim] != 1 {
		return nil, errors.Mark(
			errors.Newf("tensordict: squeeze dim %d has size %d, want 1", dim, td.batch[dim]),
			ErrShapeMismatch)
	}
	newBatch := make(tensor.Shape, 0, rank-1)
	newBatch = append(newBatch, td.batch[:dim]...)
	newBatch = append(newBatch, td.batch[dim+1:]...)
	return td.Reshape(newBatch)
}

// Stack stacks trees with identical key structure, leaf layout and batch
// shape along a new batch dimension at dim.
func Stack(dicts []*TensorDict, dim int) (*TensorDict, error) {
	if len(dicts) == 0 {
		return nil, errors.Mark(errors.New("tensordict: stack of zero trees"), ErrEmptyOperands)
	}
	first := dicts[0]
	if err := checkOperands(dicts); err != nil {
		return nil, err
	}
	for i, d := range dicts[1:] {
		if !checkBatchCompatible(first, d) {
			return nil, errors.Mark(
				errors.Newf("tensordict: stack operand %d has batch %v, want %v", i+1, d.batch, first.batch),
				ErrShapeMismatch)
		}
	}
	rank := len(first.batch)
	if dim < 0 {
		dim += rank + 1
	}
	if dim < 0 || dim > rank {
		return nil, errors.Mark(
			errors.Newf("tensordict: stack dim %d out of range for batch rank %d", dim, rank),
			ErrShapeMismatch)
	}

	entries := make(map[string]Value, len(first.entries))
	for k, v := range first.entries {
		switch v := v.(type) {
		case *TensorDict:
			subs := make([]*TensorDict, len(dicts))
			for i, d := range dicts {
				subs[i] = d.entries[k].(*TensorDict)
			}
			sub, err := Stack(subs, dim)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = sub
		case tensor.Leaf:
			others := make([]tensor.Leaf, len(dicts)-1)
			for i, d := range dicts[1:] {
				others[i] = d.entries[k].(tensor.Leaf)
			}
			out, err := v.Stack(others, dim)
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "entry %q", k), ErrShapeMismatch)
			}
			entries[k] = out
		}
	}

	newBatch := make(tensor.Shape, 0, rank+1)
	newBatch = append(newBatch, first.batch[:dim]...)
	newBatch = append(newBatch, len(dicts))
	newBatch = append(newBatch, first.batch[dim:]...)
	return newUnchecked(entries, newBatch, sharedDevice(dicts)), nil
}

// Cat concatenates trees with identical key structure and leaf layout along
// an existing batch dimension. Operand batch shapes must agree on every
// dimension except dim.
func Cat(dicts []*TensorDict, dim int) (*TensorDict, error) {
	if len(dicts) == 0 {
		return nil, errors.Mark(errors.New("tensordict: cat of zero trees"), ErrEmptyOperands)
	}
	first := dicts[0]
	if err := checkOperands(dicts); err != nil {
		return nil, err
	}
	rank := len(first.batch)
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		return nil, errors.Mark(
			errors.Newf("tensordict: cat dim %d out of range for batch rank %d", dim, rank),
			ErrShapeMismatch)
	}
	catSize := 0
	for i, d := range dicts {
		if len(d.batch) != rank {
			return nil, errors.Mark(
				errors.Newf("tensordict: cat operand %d has batch rank %d, want %d", i, len(d.batch), rank),
				ErrShapeMismatch)
		}
		for ax := range d.batch {
			if ax != dim && d.batch[ax] != first.batch[ax] {
				return nil, errors.Mark(
					errors.Newf("tensordict: cat operand %d has batch %v, incompatible with %v along dim %d",
						i, d.batch, first.batch, dim),
					ErrShapeMismatch)
			}
		}
		catSize += d.batch[dim]
	}

	entries := make(map[string]Value, len(first.entries))
	for k, v := range first.entries {
		switch v := v.(type) {
		case *TensorDict:
			subs := make([]*TensorDict, len(dicts))
			for i, d := range dicts {
				subs[i] = d.entries[k].(*TensorDict)
			}
			sub, err := Cat(subs, dim)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = sub
		case tensor.Leaf:
			others := make([]tensor.Leaf, len(dicts)-1)
			for i, d := range dicts[1:] {
				others[i] = d.entries[k].(tensor.Leaf)
			}
			out, err := v.Cat(others, dim)
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "entry %q", k), ErrShapeMismatch)
			}
			entries[k] = out
		}
	}

	newBatch := first.batch.Clone()
	newBatch[dim] = catSize
	return newUnchecked(entries, newBatch, sharedDevice(dicts)), nil
}

// To returns the tree with every leaf moved to device and the uniform
// device requirement set. Leaves that cannot move surface
// ErrUnsupportedCast.
func (td *TensorDict) To(device tensor.Device) (*TensorDict, error) {
	entries := make(map[string]Value, len(td.entries))
	for k, v := range td.entries {
		switch v := v.(type) {
		case *TensorDict:
			sub, err := v.To(device)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = sub
		case tensor.Leaf:
			out, err := v.To(device)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = out
		}
	}
	return newUnchecked(entries, td.batch, &device), nil
}

// AsTypeWhere casts every leaf matched by pred to dtype. Batch shapes are
// untouched; cast failures surface ErrUnsupportedCast.
func (td *TensorDict) AsTypeWhere(pred func(tensor.Leaf) bool, dtype tensor.DataType) (*TensorDict, error) {
	entries := make(map[string]Value, len(td.entries))
	for k, v := range td.entries {
		switch v := v.(type) {
		case *TensorDict:
			sub, err := v.AsTypeWhere(pred, dtype)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = sub
		case tensor.Leaf:
			if !pred(v) {
				entries[k] = v
				continue
			}
			out, err := v.AsType(dtype)
			if err != nil {
				return nil, errors.Wrapf(err, "entry %q", k)
			}
			entries[k] = out
		}
	}
	return newUnchecked(entries, td.batch, td.device), nil
}

// checkOperands enforces the structural precondition shared by Stack and
// Cat: identical key trees and identical non-batch leaf layout.
func checkOperands(dicts []*TensorDict) error {
	if !checkKeyStructureEqual(dicts) {
		return errors.Mark(
			errors.New("tensordict: operands have differing key structure"),
			ErrStructureMismatch)
	}
	if !checkLeafLayoutEqual(dicts) {
		return errors.Mark(
			errors.New("tensordict: operands have differing leaf shapes or dtypes"),
			ErrStructureMismatch)
	}
	return nil
}

// revalidate re-checks invariant I1 over freshly built entries, translating
// a violation into ErrBatchShapeViolation. Leaf adapters other than Dense
// may produce surprising shapes; the dispatcher never trusts them.
func revalidate(entries map[string]Value, batch tensor.Shape) error {
	for k, v := range entries {
		if !valueShape(v).HasPrefix(batch) {
			return errors.Mark(
				errors.Newf("tensordict: entry %q has shape %v after dispatch, want batch prefix %v",
					k, valueShape(v), batch),
				ErrBatchShapeViolation)
		}
	}
	return nil
}

// sharedDevice keeps a uniform-device requirement only when every operand
// carries the same one.
func sharedDevice(dicts []*TensorDict) *tensor.Device {
	first := dicts[0].device
	if first == nil {
		return nil
	}
	for _, d := range dicts[1:] {
		if d.device == nil || *d.device != *first {
			return nil
		}
	}
	return first
}
