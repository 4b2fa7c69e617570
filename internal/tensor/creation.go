package tensor

import "github.com/cockroachdb/errors"

// Zeros creates a zero-filled Dense.
func Zeros(shape Shape, dtype DataType) (*Dense, error) {
	return NewDense(shape, dtype)
}

// FromSlice creates a Dense from a Go slice. The slice is copied.
func FromSlice[T DType](data []T, shape Shape) (*Dense, error) {
	if shape.NumElements() != len(data) {
		return nil, errors.Newf("tensor: shape %v requires %d elements, but got %d",
			shape, shape.NumElements(), len(data))
	}
	var dummy T
	d, err := NewDense(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}
	copy(typedData[T](d), data)
	return d, nil
}

// Arange creates a 1D Dense with values [start, start+1, ..., end-1].
func Arange[T numeric](start, end T) (*Dense, error) {
	n := int(end - start)
	if n < 0 {
		n = 0
	}
	data := make([]T, n)
	v := start
	for i := range data {
		data[i] = v
		v++
	}
	return FromSlice(data, Shape{n})
}

// typedData returns the zero-copy typed view matching T.
func typedData[T DType](d *Dense) []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(d.AsFloat32()).([]T)
	case float64:
		return any(d.AsFloat64()).([]T)
	case int32:
		return any(d.AsInt32()).([]T)
	case int64:
		return any(d.AsInt64()).([]T)
	case uint8:
		return any(d.AsUint8()).([]T)
	case bool:
		return any(d.AsBool()).([]T)
	default:
		panic("unsupported type")
	}
}
