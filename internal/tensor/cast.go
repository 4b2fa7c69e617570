package tensor

import (
	"github.com/cockroachdb/errors"

	"github.com/born-ml/tensordict/internal/parallel"
)

// numeric covers the dtypes that participate in value-converting casts.
type numeric interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}

// AsType returns the leaf converted to the given dtype. Conversions follow
// Go's numeric conversion rules (float to int truncates toward zero).
// Bool is not convertible either way; comparisons produce Bool leaves,
// casts do not.
func (d *Dense) AsType(dtype DataType) (Leaf, error) {
	if dtype == d.dtype {
		return d.Clone(), nil
	}
	if !d.dtype.IsNumeric() || !dtype.IsNumeric() {
		return nil, errors.Wrapf(ErrUnsupportedCast, "cannot cast %s to %s", d.dtype, dtype)
	}
	out, err := NewDense(d.shape, dtype)
	if err != nil {
		return nil, err
	}
	switch dtype {
	case Float32:
		fillCast(d, out.AsFloat32())
	case Float64:
		fillCast(d, out.AsFloat64())
	case Int32:
		fillCast(d, out.AsInt32())
	case Int64:
		fillCast(d, out.AsInt64())
	case Uint8:
		fillCast(d, out.AsUint8())
	}
	return out, nil
}

// fillCast converts src's elements into the destination slice, whose element
// type selects the conversion target.
func fillCast[D numeric](src *Dense, dst []D) {
	switch src.dtype {
	case Float32:
		convert(src.AsFloat32(), dst)
	case Float64:
		convert(src.AsFloat64(), dst)
	case Int32:
		convert(src.AsInt32(), dst)
	case Int64:
		convert(src.AsInt64(), dst)
	case Uint8:
		convert(src.AsUint8(), dst)
	}
}

func convert[S, D numeric](src []S, dst []D) {
	parallel.For(len(src), func(i int) {
		dst[i] = D(src[i])
	}, gatherCfg)
}
