package tensordict

import (
	"github.com/cockroachdb/errors"

	"github.com/born-ml/tensordict/internal/pytree"
	"github.com/born-ml/tensordict/internal/tensor"
)

// Flatten performs a deterministic depth-first traversal in lexicographic
// key order, returning the tree's leaves in traversal order together with
// its structure descriptor. Flatten is metadata-only: it reads shapes and
// dtypes, never values, so trees that differ only in leaf values produce
// equal descriptors.
func (td *TensorDict) Flatten() ([]tensor.Leaf, *TreeSpec) {
	leaves := make([]tensor.Leaf, 0, td.NumLeaves())
	var walk func(node *TensorDict)
	walk = func(node *TensorDict) {
		for _, k := range node.sortedKeys() {
			switch v := node.entries[k].(type) {
			case *TensorDict:
				walk(v)
			case tensor.Leaf:
				leaves = append(leaves, v)
			}
		}
	}
	walk(td)
	return leaves, buildSpec(td)
}

// Unflatten reconstructs a tree from a leaf sequence and a descriptor
// produced by Flatten. It fails with ErrArityMismatch when the sequence
// length disagrees with the descriptor, and with ErrMetadataMismatch when a
// leaf's shape or dtype disagrees with the recorded slot metadata; this
// guards against a tracing consumer substituting an incompatible leaf after
// retracing. For any valid tree T, Unflatten(Flatten(T)) equals T.
func Unflatten(leaves []tensor.Leaf, spec *TreeSpec) (*TensorDict, error) {
	if len(leaves) != spec.numLeaves {
		return nil, errors.Mark(
			errors.Newf("tensordict: got %d leaves, descriptor has %d slots", len(leaves), spec.numLeaves),
			ErrArityMismatch)
	}
	td, rest, err := unflatten(leaves, spec)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.Mark(
			errors.Newf("tensordict: %d leaves left over after reconstruction", len(rest)),
			ErrArityMismatch)
	}
	return td, nil
}

func unflatten(leaves []tensor.Leaf, spec *TreeSpec) (*TensorDict, []tensor.Leaf, error) {
	entries := make(map[string]Value, len(spec.entries))
	for _, e := range spec.entries {
		if e.sub != nil {
			sub, rest, err := unflatten(leaves, e.sub)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "entry %q", e.key)
			}
			entries[e.key] = sub
			leaves = rest
			continue
		}
		if len(leaves) == 0 {
			return nil, nil, errors.Mark(
				errors.Newf("tensordict: leaf sequence exhausted at entry %q", e.key),
				ErrArityMismatch)
		}
		leaf := leaves[0]
		leaves = leaves[1:]

		want := spec.batch.Concat(e.leaf.Tail)
		if !leaf.Shape().Equal(want) {
			return nil, nil, errors.Mark(
				errors.Newf("tensordict: entry %q has shape %v, descriptor records %v",
					e.key, leaf.Shape(), want),
				ErrMetadataMismatch)
		}
		if leaf.DType() != e.leaf.DType {
			return nil, nil, errors.Mark(
				errors.Newf("tensordict: entry %q has dtype %s, descriptor records %s",
					e.key, leaf.DType(), e.leaf.DType),
				ErrMetadataMismatch)
		}
		if spec.device != nil && leaf.Device() != *spec.device {
			return nil, nil, errors.Mark(
				errors.Newf("tensordict: entry %q is on %s, tree requires uniform device %s",
					e.key, leaf.Device(), *spec.device),
				ErrMetadataMismatch)
		}
		entries[e.key] = leaf
	}
	return newUnchecked(entries, spec.batch.Clone(), spec.device), leaves, nil
}

// The container registers its flatten/unflatten pair with the generic tree
// framework once at process start; thereafter the registration is
// side-effect-free. The descriptor is the node context, so framework-level
// spec equality and hashing see exactly the container's structure.
func init() {
	pytree.Register(&TensorDict{},
		func(node any) ([]any, any) {
			leaves, spec := node.(*TensorDict).Flatten()
			children := make([]any, len(leaves))
			for i, l := range leaves {
				children[i] = l
			}
			return children, spec
		},
		func(ctx any, children []any) (any, error) {
			spec, ok := ctx.(*TreeSpec)
			if !ok {
				return nil, errors.Newf("tensordict: node context is %T, want *TreeSpec", ctx)
			}
			leaves := make([]tensor.Leaf, len(children))
			for i, c := range children {
				leaf, ok := c.(tensor.Leaf)
				if !ok {
					return nil, errors.Mark(
						errors.Newf("tensordict: flattened child %d is %T, want tensor.Leaf", i, c),
						ErrMetadataMismatch)
				}
				leaves[i] = leaf
			}
			return Unflatten(leaves, spec)
		})
}

// EqualContext lets framework-level specs compare container descriptors.
func (s *TreeSpec) EqualContext(other any) bool {
	o, ok := other.(*TreeSpec)
	return ok && s.Equal(o)
}

// HashContext feeds the descriptor hash into framework-level spec hashes.
func (s *TreeSpec) HashContext() uint64 { return s.Hash() }
