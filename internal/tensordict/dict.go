package tensordict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/born-ml/tensordict/internal/tensor"
)

// Value is an entry of a TensorDict: either a tensor.Leaf or a nested
// *TensorDict.
type Value any

// Item is one key/value pair of a TensorDict, in key order.
type Item struct {
	Key   string
	Value Value
}

// TensorDict is the container tree node. The batch shape is the shared
// leading-dimension prefix every leaf must exhibit; a nested TensorDict's
// batch shape must extend its parent's (the parent batch is a prefix of the
// child's). An optional uniform device may be configured at construction.
//
// TensorDicts are values: no operation mutates the receiver. They are safe
// for concurrent readers; producing and installing a new tree is the
// caller's concern.
type TensorDict struct {
	entries map[string]Value
	batch   tensor.Shape
	device  *tensor.Device
}

// New constructs a TensorDict from entries. If batchShape is nil, the batch
// shape is inferred as the longest common leading-dimension prefix of all
// entries; inference fails with ErrEmptyOrIncompatible when entries are
// empty or share no common prefix. An explicit batchShape (possibly empty)
// is validated as a prefix of every entry's shape.
func New(entries map[string]Value, batchShape tensor.Shape) (*TensorDict, error) {
	return construct(entries, batchShape, nil)
}

// NewWithDevice is New with a uniform-device requirement: every leaf in the
// tree must live on device, recursively.
func NewWithDevice(entries map[string]Value, batchShape tensor.Shape, device tensor.Device) (*TensorDict, error) {
	return construct(entries, batchShape, &device)
}

func construct(entries map[string]Value, batchShape tensor.Shape, device *tensor.Device) (*TensorDict, error) {
	copied := make(map[string]Value, len(entries))
	for key, v := range entries {
		if key == "" {
			return nil, errors.Mark(errors.New("tensordict: empty key"), ErrKeyConflict)
		}
		switch v.(type) {
		case *TensorDict, tensor.Leaf:
		default:
			return nil, errors.Mark(
				errors.Newf("tensordict: entry %q is %T, want tensor.Leaf or *TensorDict", key, v),
				ErrStructureMismatch)
		}
		copied[key] = v
	}

	if batchShape == nil {
		inferred, err := inferBatchShape(copied)
		if err != nil {
			return nil, err
		}
		batchShape = inferred
	} else {
		if err := batchShape.Validate(); err != nil {
			return nil, errors.Mark(err, ErrShapeMismatch)
		}
		if err := checkEntries(copied, batchShape); err != nil {
			return nil, err
		}
	}
	if device != nil {
		if err := checkDevice(copied, *device); err != nil {
			return nil, err
		}
	}
	return &TensorDict{entries: copied, batch: batchShape.Clone(), device: device}, nil
}

// newUnchecked assembles a node whose invariants the caller has already
// established. entries ownership transfers to the new dict.
func newUnchecked(entries map[string]Value, batch tensor.Shape, device *tensor.Device) *TensorDict {
	return &TensorDict{entries: entries, batch: batch, device: device}
}

func inferBatchShape(entries map[string]Value) (tensor.Shape, error) {
	if len(entries) == 0 {
		return nil, errors.Mark(
			errors.New("tensordict: cannot infer batch shape from zero entries"),
			ErrEmptyOrIncompatible)
	}
	shapes := make([]tensor.Shape, 0, len(entries))
	for _, v := range entries {
		shapes = append(shapes, valueShape(v))
	}
	prefix := tensor.CommonPrefix(shapes)
	if len(prefix) == 0 {
		return nil, errors.Mark(
			errors.Newf("tensordict: entries share no common leading-dimension prefix: %v", shapes),
			ErrEmptyOrIncompatible)
	}
	return prefix, nil
}

func checkEntries(entries map[string]Value, batch tensor.Shape) error {
	for key, v := range entries {
		if !valueShape(v).HasPrefix(batch) {
			return errors.Mark(
				errors.Newf("tensordict: entry %q has shape %v, want batch prefix %v",
					key, valueShape(v), batch),
				ErrShapeMismatch)
		}
	}
	return nil
}

func checkDevice(entries map[string]Value, device tensor.Device) error {
	for key, v := range entries {
		switch v := v.(type) {
		case tensor.Leaf:
			if v.Device() != device {
				return errors.Mark(
					errors.Newf("tensordict: entry %q is on %s, want %s", key, v.Device(), device),
					ErrDeviceMismatch)
			}
		case *TensorDict:
			if err := checkDevice(v.entries, device); err != nil {
				return errors.Wrapf(err, "entry %q", key)
			}
		}
	}
	return nil
}

// valueShape returns the shape an entry contributes to batch validation:
// a leaf's full shape, a nested dict's batch shape.
func valueShape(v Value) tensor.Shape {
	switch v := v.(type) {
	case *TensorDict:
		return v.batch
	case tensor.Leaf:
		return v.Shape()
	default:
		return nil
	}
}

// BatchShape returns a copy of the shared leading batch dimensions.
func (td *TensorDict) BatchShape() tensor.Shape { return td.batch.Clone() }

// Device returns the configured uniform device, if any.
func (td *TensorDict) Device() (tensor.Device, bool) {
	if td.device == nil {
		return 0, false
	}
	return *td.device, true
}

// Len returns the number of entries at this level.
func (td *TensorDict) Len() int { return len(td.entries) }

// NumLeaves returns the number of leaves in the whole tree.
func (td *TensorDict) NumLeaves() int {
	n := 0
	for _, v := range td.entries {
		if sub, ok := v.(*TensorDict); ok {
			n += sub.NumLeaves()
		} else {
			n++
		}
	}
	return n
}

// sortedKeys returns this level's keys in lexicographic order, the order
// used by Keys, Items, flatten and rendering.
func (td *TensorDict) sortedKeys() []string {
	keys := make([]string, 0, len(td.entries))
	for k := range td.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Keys returns this level's keys in lexicographic order.
func (td *TensorDict) Keys() []string { return td.sortedKeys() }

// Items returns this level's entries in key order.
func (td *TensorDict) Items() []Item {
	items := make([]Item, 0, len(td.entries))
	for _, k := range td.sortedKeys() {
		items = append(items, Item{Key: k, Value: td.entries[k]})
	}
	return items
}

// Get returns the entry for key, or ErrKeyNotFound.
func (td *TensorDict) Get(key string) (Value, error) {
	v, ok := td.entries[key]
	if !ok {
		return nil, errors.Mark(errors.Newf("tensordict: no entry %q", key), ErrKeyNotFound)
	}
	return v, nil
}

// GetLeaf returns the leaf at key, failing if the entry is a nested dict.
func (td *TensorDict) GetLeaf(key string) (tensor.Leaf, error) {
	v, err := td.Get(key)
	if err != nil {
		return nil, err
	}
	leaf, ok := v.(tensor.Leaf)
	if !ok {
		return nil, errors.Mark(
			errors.Newf("tensordict: entry %q is a nested dict, not a leaf", key),
			ErrKeyNotFound)
	}
	return leaf, nil
}

// GetDict returns the nested dict at key, failing if the entry is a leaf.
func (td *TensorDict) GetDict(key string) (*TensorDict, error) {
	v, err := td.Get(key)
	if err != nil {
		return nil, err
	}
	sub, ok := v.(*TensorDict)
	if !ok {
		return nil, errors.Mark(
			errors.Newf("tensordict: entry %q is a leaf, not a nested dict", key),
			ErrKeyNotFound)
	}
	return sub, nil
}

// GetPath descends through nested dicts following keys.
func (td *TensorDict) GetPath(keys ...string) (Value, error) {
	if len(keys) == 0 {
		return td, nil
	}
	node := td
	for i, key := range keys[:len(keys)-1] {
		sub, err := node.GetDict(key)
		if err != nil {
			return nil, errors.Wrapf(err, "at path %s", strings.Join(keys[:i+1], "."))
		}
		node = sub
	}
	return node.Get(keys[len(keys)-1])
}

// WithEntry returns a copy of the tree with key set to v. Only the new
// entry is validated; all other sub-branches are shared structurally.
// An existing entry under key is replaced.
func (td *TensorDict) WithEntry(key string, v Value) (*TensorDict, error) {
	if key == "" {
		return nil, errors.Mark(errors.New("tensordict: empty key"), ErrKeyConflict)
	}
	switch v.(type) {
	case *TensorDict, tensor.Leaf:
	default:
		return nil, errors.Mark(
			errors.Newf("tensordict: entry %q is %T, want tensor.Leaf or *TensorDict", key, v),
			ErrStructureMismatch)
	}
	if !valueShape(v).HasPrefix(td.batch) {
		return nil, errors.Mark(
			errors.Newf("tensordict: entry %q has shape %v, want batch prefix %v",
				key, valueShape(v), td.batch),
			ErrShapeMismatch)
	}
	if td.device != nil {
		if err := checkDevice(map[string]Value{key: v}, *td.device); err != nil {
			return nil, err
		}
	}
	entries := make(map[string]Value, len(td.entries)+1)
	for k, old := range td.entries {
		entries[k] = old
	}
	entries[key] = v
	return newUnchecked(entries, td.batch, td.device), nil
}

// Without returns a copy of the tree with key removed, or ErrKeyNotFound.
func (td *TensorDict) Without(key string) (*TensorDict, error) {
	if _, ok := td.entries[key]; !ok {
		return nil, errors.Mark(errors.Newf("tensordict: no entry %q", key), ErrKeyNotFound)
	}
	entries := make(map[string]Value, len(td.entries)-1)
	for k, v := range td.entries {
		if k != key {
			entries[k] = v
		}
	}
	return newUnchecked(entries, td.batch, td.device), nil
}

// Clone returns a structural copy of the tree. Nested dicts are copied,
// leaf storage is shared.
func (td *TensorDict) Clone() *TensorDict {
	entries := make(map[string]Value, len(td.entries))
	for k, v := range td.entries {
		if sub, ok := v.(*TensorDict); ok {
			entries[k] = sub.Clone()
		} else {
			entries[k] = v
		}
	}
	return newUnchecked(entries, td.batch.Clone(), td.device)
}

// Equal reports whether two trees have the same batch shape, the same key
// structure, and elementwise-equal leaves.
func (td *TensorDict) Equal(other *TensorDict) bool {
	if other == nil || !td.batch.Equal(other.batch) || len(td.entries) != len(other.entries) {
		return false
	}
	for k, v := range td.entries {
		ov, ok := other.entries[k]
		if !ok {
			return false
		}
		switch v := v.(type) {
		case *TensorDict:
			osub, ok := ov.(*TensorDict)
			if !ok || !v.Equal(osub) {
				return false
			}
		case tensor.Leaf:
			oleaf, ok := ov.(tensor.Leaf)
			if !ok || !leavesEqual(v, oleaf) {
				return false
			}
		}
	}
	return true
}

// leavesEqual delegates to the adapter's elementwise-equal-then-reduce-all
// semantics; any comparison failure counts as inequality.
func leavesEqual(a, b tensor.Leaf) bool {
	eq, err := a.EqualElementwise(b)
	if err != nil {
		return false
	}
	all, err := eq.AllTrue()
	return err == nil && all
}

// String returns a compact one-line structure summary such as
// "TensorDict(batch=[4]){a: float32[4 3], b: TensorDict(batch=[4]){...}}".
func (td *TensorDict) String() string {
	var b strings.Builder
	td.writeString(&b)
	return b.String()
}

func (td *TensorDict) writeString(b *strings.Builder) {
	fmt.Fprintf(b, "TensorDict(batch=%v){", td.batch)
	for i, k := range td.sortedKeys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		switch v := td.entries[k].(type) {
		case *TensorDict:
			v.writeString(b)
		case tensor.Leaf:
			fmt.Fprintf(b, "%s%v", v.DType(), v.Shape())
		}
	}
	b.WriteString("}")
}
