package tensordict

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tensordict/internal/tensor"
)

func TestMapIdentityIsIdempotent(t *testing.T) {
	td := sampleDict(t)
	out, err := td.Map(func(l tensor.Leaf) (tensor.Leaf, error) { return l, nil })
	require.NoError(t, err)
	require.True(t, td.Equal(out))
}

func TestMapRejectsBatchViolation(t *testing.T) {
	td := sampleDict(t)
	_, err := td.Map(func(l tensor.Leaf) (tensor.Leaf, error) {
		return l.Reshape(tensor.Shape{2, 2}.Concat(l.Shape().Tail(1)))
	})
	require.True(t, errors.Is(err, ErrBatchShapeViolation))
}

func TestMapBatchReshapesAllLevels(t *testing.T) {
	td := sampleDict(t)
	out, err := td.MapBatch(func(l tensor.Leaf) (tensor.Leaf, error) {
		return l.Reshape(tensor.Shape{2, 2}.Concat(l.Shape().Tail(1)))
	}, tensor.Shape{2, 2})
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2}, out.BatchShape())

	sub, err := out.GetDict("x")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2}, sub.BatchShape())

	leaf, err := sub.GetLeaf("a")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2, 3}, leaf.Shape())
}

func TestMapBatchRejectsInconsistentLeaves(t *testing.T) {
	td := sampleDict(t)
	_, err := td.MapBatch(func(l tensor.Leaf) (tensor.Leaf, error) { return l, nil },
		tensor.Shape{2, 2})
	require.True(t, errors.Is(err, ErrBatchShapeViolation))
}

func TestIndexWithInteger(t *testing.T) {
	// Spec example: indexing with 1 drops the batch dim everywhere.
	b, err := New(map[string]Value{"c": arangeLeaf(t, tensor.Shape{4, 5})}, tensor.Shape{4})
	require.NoError(t, err)
	td, err := New(map[string]Value{
		"a": arangeLeaf(t, tensor.Shape{4, 3}),
		"b": b,
	}, tensor.Shape{4})
	require.NoError(t, err)

	out, err := td.Index(tensor.At(1))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{}, out.BatchShape())

	a, err := out.GetLeaf("a")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{3}, a.Shape())

	c, err := out.GetPath("b", "c")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{5}, c.(tensor.Leaf).Shape())
}

func TestIndexKeepsLeafAlignment(t *testing.T) {
	td, err := New(map[string]Value{
		"a": valsLeaf(t, []float32{0, 1, 2, 3}, tensor.Shape{4}),
		"b": valsLeaf(t, []float32{0, 10, 20, 30, 1, 11, 21, 31, 2, 12, 22, 32, 3, 13, 23, 33}, tensor.Shape{4, 4}),
	}, tensor.Shape{4})
	require.NoError(t, err)

	out, err := td.Index(tensor.Range(1, 3))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2}, out.BatchShape())

	a, err := out.GetLeaf("a")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, a.(*tensor.Dense).AsFloat32())

	b, err := out.GetLeaf("b")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 4}, b.Shape())
	require.Equal(t, []float32{1, 11, 21, 31, 2, 12, 22, 32}, b.(*tensor.Dense).AsFloat32())
}

func TestIndexWithPick(t *testing.T) {
	td, err := New(map[string]Value{
		"a": valsLeaf(t, []float32{0, 1, 2, 3}, tensor.Shape{4}),
	}, tensor.Shape{4})
	require.NoError(t, err)

	out, err := td.Index(tensor.Pick(3, 0, 3))
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{3}, out.BatchShape())

	a, err := out.GetLeaf("a")
	require.NoError(t, err)
	require.Equal(t, []float32{3, 0, 3}, a.(*tensor.Dense).AsFloat32())
}

func TestIndexRejectsSpecBeyondBatch(t *testing.T) {
	td := sampleDict(t) // batch [4]
	_, err := td.Index(tensor.At(0), tensor.At(0))
	require.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = td.Index(tensor.At(7))
	require.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestReshape(t *testing.T) {
	td := sampleDict(t)
	out, err := td.Reshape(tensor.Shape{2, 2})
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2}, out.BatchShape())

	leaf, err := out.GetPath("x", "a")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2, 3}, leaf.(tensor.Leaf).Shape())

	_, err = td.Reshape(tensor.Shape{3})
	require.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestReshapePreservesNestedExtension(t *testing.T) {
	// Child batch [4 5] extends parent batch [4]; reshaping the parent
	// batch keeps the extension.
	child, err := New(map[string]Value{"c": arangeLeaf(t, tensor.Shape{4, 5, 2})}, tensor.Shape{4, 5})
	require.NoError(t, err)
	td, err := New(map[string]Value{"b": child}, tensor.Shape{4})
	require.NoError(t, err)

	out, err := td.Reshape(tensor.Shape{2, 2})
	require.NoError(t, err)
	sub, err := out.GetDict("b")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2, 5}, sub.BatchShape())

	leaf, err := sub.GetLeaf("c")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2, 5, 2}, leaf.Shape())
}

func TestUnsqueezeSqueeze(t *testing.T) {
	td := sampleDict(t)

	up, err := td.Unsqueeze(0)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{1, 4}, up.BatchShape())

	back, err := up.Squeeze(0)
	require.NoError(t, err)
	require.True(t, td.Equal(back))

	last, err := td.Unsqueeze(-1)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{4, 1}, last.BatchShape())

	_, err = td.Squeeze(0) // size 4, not 1
	require.True(t, errors.Is(err, ErrShapeMismatch))
	_, err = td.Unsqueeze(5)
	require.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestStack(t *testing.T) {
	// Spec example: stack([T, T], 0) with batch [4] gives batch [2 4].
	td := sampleDict(t)
	out, err := Stack([]*TensorDict{td, td}, 0)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 4}, out.BatchShape())
	require.Equal(t, []string{"x", "y"}, out.Keys())

	leaf, err := out.GetPath("x", "a")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 4, 3}, leaf.(tensor.Leaf).Shape())

	sub, err := out.GetDict("x")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 4}, sub.BatchShape())
}

func TestStackValues(t *testing.T) {
	a, err := New(map[string]Value{"v": valsLeaf(t, []float32{1, 2}, tensor.Shape{2})}, tensor.Shape{2})
	require.NoError(t, err)
	b, err := New(map[string]Value{"v": valsLeaf(t, []float32{3, 4}, tensor.Shape{2})}, tensor.Shape{2})
	require.NoError(t, err)

	out, err := Stack([]*TensorDict{a, b}, 1)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{2, 2}, out.BatchShape())

	v, err := out.GetLeaf("v")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 3, 2, 4}, v.(*tensor.Dense).AsFloat32())
}

func TestStackStructureMismatch(t *testing.T) {
	td := sampleDict(t)
	other, err := td.Without("y")
	require.NoError(t, err)

	_, err = Stack([]*TensorDict{td, other}, 0)
	require.True(t, errors.Is(err, ErrStructureMismatch))

	// Same keys, differing leaf tails.
	wide, err := td.WithEntry("y", arangeLeaf(t, tensor.Shape{4, 6}))
	require.NoError(t, err)
	_, err = Stack([]*TensorDict{td, wide}, 0)
	require.True(t, errors.Is(err, ErrStructureMismatch))
}

func TestStackBatchMismatch(t *testing.T) {
	a, err := New(map[string]Value{"v": arangeLeaf(t, tensor.Shape{2, 3})}, tensor.Shape{2})
	require.NoError(t, err)
	b, err := New(map[string]Value{"v": arangeLeaf(t, tensor.Shape{4, 3})}, tensor.Shape{4})
	require.NoError(t, err)

	_, err = Stack([]*TensorDict{a, b}, 0)
	require.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestStackEmptyOperands(t *testing.T) {
	_, err := Stack(nil, 0)
	require.True(t, errors.Is(err, ErrEmptyOperands))
	_, err = Cat(nil, 0)
	require.True(t, errors.Is(err, ErrEmptyOperands))
}

func TestCat(t *testing.T) {
	td := sampleDict(t)
	out, err := Cat([]*TensorDict{td, td}, 0)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{8}, out.BatchShape())

	leaf, err := out.GetLeaf("y")
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{8, 5}, leaf.Shape())
}

func TestCatValues(t *testing.T) {
	a, err := New(map[string]Value{"v": valsLeaf(t, []float32{1, 2}, tensor.Shape{2})}, tensor.Shape{2})
	require.NoError(t, err)
	b, err := New(map[string]Value{"v": valsLeaf(t, []float32{3}, tensor.Shape{1})}, tensor.Shape{1})
	require.NoError(t, err)

	out, err := Cat([]*TensorDict{a, b}, 0)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{3}, out.BatchShape())

	v, err := out.GetLeaf("v")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, v.(*tensor.Dense).AsFloat32())
}

func TestCatStructureMismatch(t *testing.T) {
	// Spec example: T1 has key "x", T2 lacks it.
	t1, err := New(map[string]Value{
		"x": arangeLeaf(t, tensor.Shape{2, 3}),
		"y": arangeLeaf(t, tensor.Shape{2, 3}),
	}, tensor.Shape{2})
	require.NoError(t, err)
	t2, err := New(map[string]Value{
		"y": arangeLeaf(t, tensor.Shape{2, 3}),
	}, tensor.Shape{2})
	require.NoError(t, err)

	_, err = Cat([]*TensorDict{t1, t2}, 0)
	require.True(t, errors.Is(err, ErrStructureMismatch))
}

func TestCatRejectsScalarBatch(t *testing.T) {
	td, err := New(map[string]Value{"v": arangeLeaf(t, tensor.Shape{3})}, tensor.Shape{})
	require.NoError(t, err)
	_, err = Cat([]*TensorDict{td, td}, 0)
	require.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestTo(t *testing.T) {
	td := sampleDict(t)
	out, err := td.To(tensor.CPU)
	require.NoError(t, err)
	dev, ok := out.Device()
	require.True(t, ok)
	require.Equal(t, tensor.CPU, dev)

	_, err = td.To(tensor.CUDA)
	require.True(t, errors.Is(err, ErrUnsupportedCast))
}

func TestAsTypeWhere(t *testing.T) {
	td, err := New(map[string]Value{
		"f": arangeLeaf(t, tensor.Shape{2, 3}),
		"i": mustInt64Leaf(t, tensor.Shape{2}),
	}, tensor.Shape{2})
	require.NoError(t, err)

	out, err := td.AsTypeWhere(func(l tensor.Leaf) bool {
		return l.DType() == tensor.Float32
	}, tensor.Float64)
	require.NoError(t, err)

	f, err := out.GetLeaf("f")
	require.NoError(t, err)
	require.Equal(t, tensor.Float64, f.DType())

	i, err := out.GetLeaf("i")
	require.NoError(t, err)
	require.Equal(t, tensor.Int64, i.DType())

	_, err = td.AsTypeWhere(func(tensor.Leaf) bool { return true }, tensor.Bool)
	require.True(t, errors.Is(err, ErrUnsupportedCast))
}

func mustInt64Leaf(t *testing.T, shape tensor.Shape) tensor.Leaf {
	t.Helper()
	leaf, err := tensor.FromSlice(make([]int64, shape.NumElements()), shape)
	require.NoError(t, err)
	return leaf
}
