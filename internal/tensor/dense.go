package tensor

import (
	"fmt"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/born-ml/tensordict/internal/parallel"
)

// gatherCfg drives the fan-out of gather and cast loops.
var gatherCfg = parallel.DefaultConfig()

// Dense is the reference Leaf: a contiguous, row-major, CPU-backed value.
// Dense values are never mutated by Leaf operations; results share storage
// where the operation is a pure view (Reshape) and copy otherwise.
type Dense struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

var _ Leaf = (*Dense)(nil)

// NewDense allocates a zero-filled Dense with the given shape and type.
func NewDense(shape Shape, dtype DataType) (*Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "tensor: invalid shape")
	}
	return &Dense{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: CPU,
	}, nil
}

// Shape returns the full shape.
func (d *Dense) Shape() Shape { return d.shape }

// DType returns the element type.
func (d *Dense) DType() DataType { return d.dtype }

// Device returns the storage device, always CPU for Dense.
func (d *Dense) Device() Device { return d.device }

// NumElements returns the total number of elements.
func (d *Dense) NumElements() int { return d.shape.NumElements() }

// Data returns the raw byte slice backing the leaf.
// WARNING: direct access to underlying memory. Use with caution.
func (d *Dense) Data() []byte { return d.data }

// AsFloat32 interprets the data as []float32.
// Panics if the dtype is not Float32.
func (d *Dense) AsFloat32() []float32 {
	d.mustBe(Float32)
	if len(d.data) == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, bounds given by NumElements
	return unsafe.Slice((*float32)(unsafe.Pointer(&d.data[0])), d.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the dtype is not Float64.
func (d *Dense) AsFloat64() []float64 {
	d.mustBe(Float64)
	if len(d.data) == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, bounds given by NumElements
	return unsafe.Slice((*float64)(unsafe.Pointer(&d.data[0])), d.NumElements())
}

// AsInt32 interprets the data as []int32.
// Panics if the dtype is not Int32.
func (d *Dense) AsInt32() []int32 {
	d.mustBe(Int32)
	if len(d.data) == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, bounds given by NumElements
	return unsafe.Slice((*int32)(unsafe.Pointer(&d.data[0])), d.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the dtype is not Int64.
func (d *Dense) AsInt64() []int64 {
	d.mustBe(Int64)
	if len(d.data) == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, bounds given by NumElements
	return unsafe.Slice((*int64)(unsafe.Pointer(&d.data[0])), d.NumElements())
}

// AsUint8 interprets the data as []uint8.
// Panics if the dtype is not Uint8.
func (d *Dense) AsUint8() []uint8 {
	d.mustBe(Uint8)
	return d.data
}

// AsBool interprets the data as []bool.
// Panics if the dtype is not Bool.
func (d *Dense) AsBool() []bool {
	d.mustBe(Bool)
	if len(d.data) == 0 {
		return nil
	}
	//nolint:gosec // zero-copy view, bounds given by NumElements
	return unsafe.Slice((*bool)(unsafe.Pointer(&d.data[0])), d.NumElements())
}

func (d *Dense) mustBe(dt DataType) {
	if d.dtype != dt {
		panic(fmt.Sprintf("tensor: dtype is %s, not %s", d.dtype, dt))
	}
}

// Clone returns a Dense sharing the receiver's storage with a fresh header.
// Sharing is safe: Leaf operations never write through existing storage.
func (d *Dense) Clone() *Dense {
	return &Dense{
		data:   d.data,
		shape:  d.shape.Clone(),
		stride: append([]int(nil), d.stride...),
		dtype:  d.dtype,
		device: d.device,
	}
}

// Reshape returns a view with the given shape. The element count must match.
func (d *Dense) Reshape(shape Shape) (Leaf, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "tensor: invalid shape")
	}
	if shape.NumElements() != d.NumElements() {
		return nil, errors.Newf("tensor: cannot reshape %v (%d elements) to %v (%d elements)",
			d.shape, d.NumElements(), shape, shape.NumElements())
	}
	out := d.Clone()
	out.shape = shape.Clone()
	out.stride = shape.ComputeStrides()
	return out, nil
}

// Index gathers the selections described by spec from the leading
// dimensions. The result is a fresh contiguous Dense.
func (d *Dense) Index(spec IndexSpec) (Leaf, error) {
	plan, err := spec.plan(d.shape)
	if err != nil {
		return nil, err
	}
	out, err := NewDense(plan.result, d.dtype)
	if err != nil {
		return nil, err
	}

	// Every selected leading-index tuple maps to one contiguous block of
	// trailing elements.
	blockElems := d.shape.Tail(len(spec)).NumElements()
	blockBytes := blockElems * d.dtype.Size()
	elemSize := d.dtype.Size()
	blocks := 1
	for _, sel := range plan.sel {
		blocks *= len(sel)
	}
	if blockBytes == 0 || blocks == 0 {
		return out, nil
	}

	// Blocks land at disjoint destinations, so the gather fans out.
	parallel.ForBlocks(blocks, blockElems, func(i int) {
		src, rem := 0, i
		for dim := len(spec) - 1; dim >= 0; dim-- {
			sel := plan.sel[dim]
			src += sel[rem%len(sel)] * d.stride[dim]
			rem /= len(sel)
		}
		dst := i * blockBytes
		copy(out.data[dst:dst+blockBytes], d.data[src*elemSize:src*elemSize+blockBytes])
	}, gatherCfg)
	return out, nil
}

// To returns the leaf on the given device. Dense only lives on CPU.
func (d *Dense) To(device Device) (Leaf, error) {
	if device == CPU {
		return d.Clone(), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedCast, "Dense cannot move to %s", device)
}

// String returns a short description of the leaf.
func (d *Dense) String() string {
	return fmt.Sprintf("Dense[%s]%v on %s", d.dtype, d.shape, d.device)
}
