package tensordict

import "github.com/born-ml/tensordict/internal/tensor"

// Pure structural validators shared by construction, the op dispatcher and
// the flatten adapter. None of them build errors; callers translate a
// false/nil result into the failure kind appropriate to their boundary.

// commonPrefix returns the longest common leading-dimension prefix of the
// given values' shapes (a leaf's full shape, a nested dict's batch shape),
// or nil when values is empty.
func commonPrefix(values []Value) tensor.Shape {
	shapes := make([]tensor.Shape, len(values))
	for i, v := range values {
		shapes[i] = valueShape(v)
	}
	return tensor.CommonPrefix(shapes)
}

// checkBatchCompatible reports whether two trees carry the same batch shape.
func checkBatchCompatible(a, b *TensorDict) bool {
	return a.batch.Equal(b.batch)
}

// checkKeyStructureEqual reports whether all trees share the same key set at
// every level, recursively, with matching leaf/dict kinds per key.
func checkKeyStructureEqual(dicts []*TensorDict) bool {
	if len(dicts) < 2 {
		return true
	}
	first := dicts[0]
	for _, other := range dicts[1:] {
		if len(other.entries) != len(first.entries) {
			return false
		}
		for k, v := range first.entries {
			ov, ok := other.entries[k]
			if !ok {
				return false
			}
			sub, isDict := v.(*TensorDict)
			osub, oIsDict := ov.(*TensorDict)
			if isDict != oIsDict {
				return false
			}
			if isDict && !checkKeyStructureEqual([]*TensorDict{sub, osub}) {
				return false
			}
		}
	}
	return true
}

// checkLeafLayoutEqual reports whether all trees additionally agree on every
// leaf's non-batch shape tail and dtype. Key structure must already hold.
func checkLeafLayoutEqual(dicts []*TensorDict) bool {
	if len(dicts) < 2 {
		return true
	}
	first := dicts[0]
	for k, v := range first.entries {
		switch v := v.(type) {
		case *TensorDict:
			subs := make([]*TensorDict, len(dicts))
			for i, d := range dicts {
				subs[i] = d.entries[k].(*TensorDict)
			}
			if !checkLeafLayoutEqual(subs) {
				return false
			}
		case tensor.Leaf:
			tail := v.Shape().Tail(len(first.batch))
			for _, d := range dicts[1:] {
				leaf := d.entries[k].(tensor.Leaf)
				if leaf.DType() != v.DType() {
					return false
				}
				if !leaf.Shape().Tail(len(d.batch)).Equal(tail) {
					return false
				}
			}
		}
	}
	return true
}
