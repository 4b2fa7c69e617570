package tensor

import "github.com/cockroachdb/errors"

// ErrUnsupportedCast marks device or dtype casts a Leaf implementation
// cannot perform. Containers surface it unchanged.
var ErrUnsupportedCast = errors.New("tensor: unsupported cast")

// Leaf is the capability surface a value must provide to live at a terminal
// position of a tensordict. It is deliberately narrow: shape metadata,
// leading-dimension indexing, reshape, casts, and the N-ary constructors the
// container's stack/concatenate need. Arithmetic, autograd and device
// runtimes are out of scope; they belong to whatever backs the Leaf.
//
// Implementations must be copy-producing: no operation may mutate the
// receiver's storage. Several containers may therefore share one Leaf.
type Leaf interface {
	// Shape returns the leaf's full shape, batch dims included.
	Shape() Shape
	// DType returns the element type.
	DType() DataType
	// Device returns where the storage lives.
	Device() Device

	// Index applies spec to the leaf's leading dimensions and returns the
	// selected sub-leaf. len(spec) must not exceed the leaf's rank.
	Index(spec IndexSpec) (Leaf, error)
	// Reshape returns a leaf with the given shape. The element count must
	// be preserved.
	Reshape(shape Shape) (Leaf, error)
	// To returns the leaf moved to the given device, or ErrUnsupportedCast.
	To(device Device) (Leaf, error)
	// AsType returns the leaf cast to the given dtype, or ErrUnsupportedCast.
	AsType(dtype DataType) (Leaf, error)

	// Stack stacks the receiver and others (in that order) along a new
	// dimension at dim. All inputs must agree in shape, dtype and device.
	Stack(others []Leaf, dim int) (Leaf, error)
	// Cat concatenates the receiver and others along an existing dimension.
	Cat(others []Leaf, dim int) (Leaf, error)

	// EqualElementwise compares two leaves of identical shape and dtype,
	// returning a Bool leaf of the same shape.
	EqualElementwise(other Leaf) (Leaf, error)
	// AllTrue reduces a Bool leaf to a single flag. True for empty leaves.
	AllTrue() (bool, error)
}
