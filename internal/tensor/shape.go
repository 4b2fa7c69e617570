package tensor

import "fmt"

// Shape represents the dimensions of a leaf or a container batch.
type Shape []int

// NumElements returns the total number of elements described by the shape.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that all dimensions are non-negative. Zero-sized
// dimensions are legal: an empty batch is a valid batch.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim < 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be >= 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// HasPrefix reports whether the shape begins with exactly prefix.
func (s Shape) HasPrefix(prefix Shape) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Tail returns the dimensions beyond the first n. The result aliases s.
func (s Shape) Tail(n int) Shape {
	if n >= len(s) {
		return Shape{}
	}
	return s[n:]
}

// Concat returns a new shape holding s followed by other.
func (s Shape) Concat(other Shape) Shape {
	out := make(Shape, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

// ComputeStrides calculates row-major strides for the shape.
// stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// String renders the shape as "[2 3 4]".
func (s Shape) String() string {
	return fmt.Sprintf("%v", []int(s))
}

// CommonPrefix returns the longest leading-dimension prefix shared by all
// shapes. It returns nil when shapes is empty; the result may be an empty
// (length zero) shape when the first dimensions already disagree.
func CommonPrefix(shapes []Shape) Shape {
	if len(shapes) == 0 {
		return nil
	}
	prefix := shapes[0].Clone()
	for _, s := range shapes[1:] {
		n := len(prefix)
		if len(s) < n {
			n = len(s)
		}
		i := 0
		for i < n && prefix[i] == s[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return prefix
}
