package tensor

import "github.com/cockroachdb/errors"

// gatherDense checks that the receiver and others are all Dense with the
// same dtype and device and returns the full input list.
func (d *Dense) gatherDense(others []Leaf) ([]*Dense, error) {
	all := make([]*Dense, 0, len(others)+1)
	all = append(all, d)
	for i, o := range others {
		od, ok := o.(*Dense)
		if !ok {
			return nil, errors.Newf("tensor: operand %d is %T, Dense ops require Dense inputs", i+1, o)
		}
		if od.dtype != d.dtype {
			return nil, errors.Newf("tensor: operand %d has dtype %s, want %s", i+1, od.dtype, d.dtype)
		}
		all = append(all, od)
	}
	return all, nil
}

// Stack stacks the receiver and others along a new dimension at dim.
// dim may be negative, counting from the end of the result's rank.
func (d *Dense) Stack(others []Leaf, dim int) (Leaf, error) {
	all, err := d.gatherDense(others)
	if err != nil {
		return nil, err
	}
	for i, t := range all[1:] {
		if !t.shape.Equal(d.shape) {
			return nil, errors.Newf("tensor: stack operand %d has shape %v, want %v", i+1, t.shape, d.shape)
		}
	}
	rank := len(d.shape)
	if dim < 0 {
		dim += rank + 1
	}
	if dim < 0 || dim > rank {
		return nil, errors.Newf("tensor: stack dim %d out of range for rank %d", dim, rank)
	}

	outShape := make(Shape, 0, rank+1)
	outShape = append(outShape, d.shape[:dim]...)
	outShape = append(outShape, len(all))
	outShape = append(outShape, d.shape[dim:]...)
	out, err := NewDense(outShape, d.dtype)
	if err != nil {
		return nil, err
	}

	outer := Shape(d.shape[:dim]).NumElements()
	innerBytes := d.shape.Tail(dim).NumElements() * d.dtype.Size()
	dst := 0
	for o := 0; o < outer; o++ {
		for _, t := range all {
			src := o * innerBytes
			copy(out.data[dst:dst+innerBytes], t.data[src:src+innerBytes])
			dst += innerBytes
		}
	}
	return out, nil
}

// Cat concatenates the receiver and others along an existing dimension.
// All inputs must agree in shape except along dim.
func (d *Dense) Cat(others []Leaf, dim int) (Leaf, error) {
	all, err := d.gatherDense(others)
	if err != nil {
		return nil, err
	}
	rank := len(d.shape)
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		return nil, errors.Newf("tensor: cat dim %d out of range for rank %d", dim, rank)
	}
	catSize := 0
	for i, t := range all {
		if len(t.shape) != rank {
			return nil, errors.Newf("tensor: cat operand %d has rank %d, want %d", i, len(t.shape), rank)
		}
		for ax := range t.shape {
			if ax != dim && t.shape[ax] != d.shape[ax] {
				return nil, errors.Newf("tensor: cat operand %d has shape %v, incompatible with %v along dim %d",
					i, t.shape, d.shape, dim)
			}
		}
		catSize += t.shape[dim]
	}

	outShape := d.shape.Clone()
	outShape[dim] = catSize
	out, err := NewDense(outShape, d.dtype)
	if err != nil {
		return nil, err
	}

	outer := Shape(d.shape[:dim]).NumElements()
	dst := 0
	for o := 0; o < outer; o++ {
		for _, t := range all {
			innerBytes := t.shape.Tail(dim).NumElements() * t.dtype.Size()
			src := o * innerBytes
			copy(out.data[dst:dst+innerBytes], t.data[src:src+innerBytes])
			dst += innerBytes
		}
	}
	return out, nil
}

// EqualElementwise compares two leaves of identical shape and dtype and
// returns a Bool leaf. Float comparison is exact; NaN compares unequal.
func (d *Dense) EqualElementwise(other Leaf) (Leaf, error) {
	od, ok := other.(*Dense)
	if !ok {
		return nil, errors.Newf("tensor: cannot compare Dense with %T", other)
	}
	if od.dtype != d.dtype {
		return nil, errors.Newf("tensor: cannot compare %s with %s", d.dtype, od.dtype)
	}
	if !od.shape.Equal(d.shape) {
		return nil, errors.Newf("tensor: cannot compare shapes %v and %v", d.shape, od.shape)
	}
	out, err := NewDense(d.shape, Bool)
	if err != nil {
		return nil, err
	}
	res := out.AsBool()
	switch d.dtype {
	case Float32:
		a, b := d.AsFloat32(), od.AsFloat32()
		for i := range a {
			res[i] = a[i] == b[i]
		}
	case Float64:
		a, b := d.AsFloat64(), od.AsFloat64()
		for i := range a {
			res[i] = a[i] == b[i]
		}
	case Int32:
		a, b := d.AsInt32(), od.AsInt32()
		for i := range a {
			res[i] = a[i] == b[i]
		}
	case Int64:
		a, b := d.AsInt64(), od.AsInt64()
		for i := range a {
			res[i] = a[i] == b[i]
		}
	case Uint8:
		a, b := d.AsUint8(), od.AsUint8()
		for i := range a {
			res[i] = a[i] == b[i]
		}
	case Bool:
		a, b := d.AsBool(), od.AsBool()
		for i := range a {
			res[i] = a[i] == b[i]
		}
	}
	return out, nil
}

// AllTrue reduces a Bool leaf to a single flag. Empty leaves reduce to true.
func (d *Dense) AllTrue() (bool, error) {
	if d.dtype != Bool {
		return false, errors.Newf("tensor: AllTrue requires a Bool leaf, got %s", d.dtype)
	}
	for _, v := range d.AsBool() {
		if !v {
			return false, nil
		}
	}
	return true, nil
}
