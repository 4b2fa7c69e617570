package tensordict

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tensordict/internal/tensor"
)

func TestFlattenOrder(t *testing.T) {
	td := sampleDict(t)
	leaves, spec := td.Flatten()
	require.Len(t, leaves, 3)
	require.Equal(t, 3, spec.NumLeaves())
	require.Equal(t, [][]string{{"x", "a"}, {"x", "b"}, {"y"}}, spec.KeyPaths())

	// Leaves come back in key-path order, by identity.
	a, err := td.GetPath("x", "a")
	require.NoError(t, err)
	require.Same(t, a.(*tensor.Dense), leaves[0].(*tensor.Dense))

	y, err := td.GetLeaf("y")
	require.NoError(t, err)
	require.Same(t, y.(*tensor.Dense), leaves[2].(*tensor.Dense))
}

func TestFlattenRoundTrip(t *testing.T) {
	td := sampleDict(t)
	leaves, spec := td.Flatten()

	back, err := Unflatten(leaves, spec)
	require.NoError(t, err)
	require.True(t, td.Equal(back))
	require.Equal(t, td.BatchShape(), back.BatchShape())

	// Reconstruction reuses the leaves as-is.
	a, err := back.GetPath("x", "a")
	require.NoError(t, err)
	require.Same(t, leaves[0].(*tensor.Dense), a.(*tensor.Dense))
}

func TestTreeSpecIgnoresValues(t *testing.T) {
	// Spec example: same structure, different contents, one descriptor.
	td := sampleDict(t)
	doubled, err := td.Map(func(l tensor.Leaf) (tensor.Leaf, error) {
		d := l.(*tensor.Dense).Clone()
		vals := d.AsFloat32()
		out := make([]float32, len(vals))
		for i, v := range vals {
			out[i] = 2 * v
		}
		return tensor.FromSlice(out, d.Shape())
	})
	require.NoError(t, err)
	require.False(t, td.Equal(doubled))

	_, s1 := td.Flatten()
	_, s2 := doubled.Flatten()
	require.True(t, s1.Equal(s2))
	require.Equal(t, s1.Hash(), s2.Hash())
}

func TestTreeSpecDistinguishesStructure(t *testing.T) {
	td := sampleDict(t)
	_, base := td.Flatten()

	renamed, err := td.Without("y")
	require.NoError(t, err)
	renamed, err = renamed.WithEntry("z", arangeLeaf(t, tensor.Shape{4, 5}))
	require.NoError(t, err)
	_, s := renamed.Flatten()
	require.False(t, base.Equal(s))
	require.NotEqual(t, base.Hash(), s.Hash())

	wider, err := td.WithEntry("y", arangeLeaf(t, tensor.Shape{4, 6}))
	require.NoError(t, err)
	_, s = wider.Flatten()
	require.False(t, base.Equal(s))
	require.NotEqual(t, base.Hash(), s.Hash())

	reshaped, err := td.Reshape(tensor.Shape{2, 2})
	require.NoError(t, err)
	_, s = reshaped.Flatten()
	require.False(t, base.Equal(s))
	require.NotEqual(t, base.Hash(), s.Hash())
}

func TestUnflattenArityMismatch(t *testing.T) {
	td := sampleDict(t)
	leaves, spec := td.Flatten()

	_, err := Unflatten(leaves[:2], spec)
	require.True(t, errors.Is(err, ErrArityMismatch))

	_, err = Unflatten(append(leaves, leaves[0]), spec)
	require.True(t, errors.Is(err, ErrArityMismatch))
}

func TestUnflattenMetadataMismatch(t *testing.T) {
	td := sampleDict(t)
	leaves, spec := td.Flatten()

	// Wrong dtype in slot 0.
	cast, err := leaves[0].AsType(tensor.Float64)
	require.NoError(t, err)
	bad := append([]tensor.Leaf(nil), leaves...)
	bad[0] = cast
	_, err = Unflatten(bad, spec)
	require.True(t, errors.Is(err, ErrMetadataMismatch))

	// Wrong trailing shape in slot 2.
	bad = append([]tensor.Leaf(nil), leaves...)
	bad[2] = arangeLeaf(t, tensor.Shape{4, 6})
	_, err = Unflatten(bad, spec)
	require.True(t, errors.Is(err, ErrMetadataMismatch))
}

func TestUnflattenSubstitutesValues(t *testing.T) {
	// The tracing use case: flatten once, swap in fresh leaves with the
	// same metadata, reconstruct.
	td := sampleDict(t)
	leaves, spec := td.Flatten()

	fresh := make([]tensor.Leaf, len(leaves))
	for i, l := range leaves {
		vals := l.(*tensor.Dense).AsFloat32()
		out := make([]float32, len(vals))
		for j, v := range vals {
			out[j] = v + 100
		}
		leaf, err := tensor.FromSlice(out, l.Shape())
		require.NoError(t, err)
		fresh[i] = leaf
	}

	back, err := Unflatten(fresh, spec)
	require.NoError(t, err)
	require.False(t, td.Equal(back))

	_, s := back.Flatten()
	require.True(t, spec.Equal(s))

	a, err := back.GetPath("x", "a")
	require.NoError(t, err)
	require.Equal(t, float32(100), a.(tensor.Leaf).(*tensor.Dense).AsFloat32()[0])
}

func TestFlattenPreservesDeviceConfig(t *testing.T) {
	td := sampleDict(t)
	pinned, err := td.To(tensor.CPU)
	require.NoError(t, err)

	leaves, spec := pinned.Flatten()
	back, err := Unflatten(leaves, spec)
	require.NoError(t, err)

	dev, ok := back.Device()
	require.True(t, ok)
	require.Equal(t, tensor.CPU, dev)

	// The pinned and unpinned trees have distinct descriptors.
	_, plain := td.Flatten()
	require.False(t, spec.Equal(plain))
	require.NotEqual(t, spec.Hash(), plain.Hash())
}

func TestTreeSpecString(t *testing.T) {
	td := sampleDict(t)
	_, spec := td.Flatten()
	require.Equal(t,
		"TreeSpec(batch=[4]){x: TreeSpec(batch=[4]){a: float32[3], b: float32[3]}, y: float32[5]}",
		spec.String())
}
