// Package pytree is a minimal generic tree-flattening framework: the
// registration surface an ahead-of-time tracing compiler uses to decompose
// nested argument structures into leaf sequences and reconstructible
// structure specs. Container types register a flatten/unflatten pair once
// at process start; string-keyed maps and []any slices are handled
// natively; everything else is a leaf.
package pytree

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// FlattenFunc decomposes a registered node into its children and an opaque
// context describing how to reassemble them. It must be metadata-only and
// deterministic: the context may depend on the node's structure, never on
// leaf values.
type FlattenFunc func(node any) (children []any, ctx any)

// UnflattenFunc reassembles a node from a context and children. It must be
// a left-inverse of the paired FlattenFunc.
type UnflattenFunc func(ctx any, children []any) (any, error)

// ContextEqualer lets a node context define spec equality. Contexts without
// it are compared with reflect.DeepEqual.
type ContextEqualer interface {
	EqualContext(other any) bool
}

// ContextHasher lets a node context contribute a stable hash to spec
// hashing. Contexts without it are hashed through their fmt %#v rendering.
type ContextHasher interface {
	HashContext() uint64
}

type nodeDef struct {
	flatten   FlattenFunc
	unflatten UnflattenFunc
}

var (
	registryMu sync.RWMutex
	registry   = make(map[reflect.Type]nodeDef)
)

// Register installs a flatten/unflatten pair for sample's concrete type.
// Registration is process-wide and permanent; registering the same type
// twice panics, since silently replacing a node protocol would change the
// meaning of already-issued specs.
func Register(sample any, flatten FlattenFunc, unflatten UnflattenFunc) {
	t := reflect.TypeOf(sample)
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[t]; dup {
		panic("pytree: duplicate registration for " + t.String())
	}
	registry[t] = nodeDef{flatten: flatten, unflatten: unflatten}
}

func lookup(t reflect.Type) (nodeDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[t]
	return def, ok
}

const (
	kindLeaf = iota
	kindNode
	kindMap
	kindSlice
)

// Spec describes the structure of a flattened tree: which node types were
// found where, their contexts, and how many leaves each subtree consumes.
// Specs are immutable, comparable with Equal, and hashable, which makes
// them usable as retrace-cache keys.
type Spec struct {
	kind     int
	typ      reflect.Type // kindNode only
	ctx      any
	children []*Spec
	leaves   int
}

// NumLeaves returns the number of leaf slots the spec describes.
func (s *Spec) NumLeaves() int { return s.leaves }

// IsLeaf reports whether the spec describes a single opaque leaf.
func (s *Spec) IsLeaf() bool { return s.kind == kindLeaf }

// Flatten decomposes root into its leaves, in deterministic traversal
// order, and the spec describing its structure.
func Flatten(root any) ([]any, *Spec) {
	var leaves []any
	spec := flatten(root, &leaves)
	return leaves, spec
}

func flatten(node any, leaves *[]any) *Spec {
	if node != nil {
		t := reflect.TypeOf(node)
		if def, ok := lookup(t); ok {
			children, ctx := def.flatten(node)
			return flattenChildren(kindNode, t, ctx, children, leaves)
		}
		switch v := node.(type) {
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			children := make([]any, len(keys))
			for i, k := range keys {
				children[i] = v[k]
			}
			return flattenChildren(kindMap, nil, keys, children, leaves)
		case []any:
			return flattenChildren(kindSlice, nil, len(v), v, leaves)
		}
	}
	*leaves = append(*leaves, node)
	return &Spec{kind: kindLeaf, leaves: 1}
}

func flattenChildren(kind int, t reflect.Type, ctx any, children []any, leaves *[]any) *Spec {
	s := &Spec{kind: kind, typ: t, ctx: ctx}
	s.children = make([]*Spec, len(children))
	for i, c := range children {
		cs := flatten(c, leaves)
		s.children[i] = cs
		s.leaves += cs.leaves
	}
	return s
}

// Unflatten reconstructs a tree from a leaf sequence and a spec produced by
// Flatten. It is a left-inverse of Flatten on leaves: for any spec from
// Flatten(root), Unflatten(leaves, spec) rebuilds a tree whose Flatten
// yields the same leaves and an equal spec.
func Unflatten(leaves []any, spec *Spec) (any, error) {
	if len(leaves) != spec.leaves {
		return nil, errors.Newf("pytree: got %d leaves, spec consumes %d", len(leaves), spec.leaves)
	}
	node, rest, err := unflatten(leaves, spec)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errors.Newf("pytree: %d leaves left over", len(rest))
	}
	return node, nil
}

func unflatten(leaves []any, spec *Spec) (any, []any, error) {
	if spec.kind == kindLeaf {
		if len(leaves) == 0 {
			return nil, nil, errors.New("pytree: leaf sequence exhausted")
		}
		return leaves[0], leaves[1:], nil
	}

	children := make([]any, len(spec.children))
	for i, cs := range spec.children {
		c, rest, err := unflatten(leaves, cs)
		if err != nil {
			return nil, nil, err
		}
		children[i] = c
		leaves = rest
	}

	switch spec.kind {
	case kindNode:
		def, ok := lookup(spec.typ)
		if !ok {
			return nil, nil, errors.Newf("pytree: no registration for %s", spec.typ)
		}
		node, err := def.unflatten(spec.ctx, children)
		if err != nil {
			return nil, nil, err
		}
		return node, leaves, nil
	case kindMap:
		keys := spec.ctx.([]string)
		m := make(map[string]any, len(keys))
		for i, k := range keys {
			m[k] = children[i]
		}
		return m, leaves, nil
	case kindSlice:
		return children, leaves, nil
	default:
		return nil, nil, errors.Newf("pytree: corrupt spec kind %d", spec.kind)
	}
}

// Equal reports whether two specs describe interchangeable structures.
func (s *Spec) Equal(o *Spec) bool {
	if o == nil || s.kind != o.kind || s.typ != o.typ || len(s.children) != len(o.children) {
		return false
	}
	if !ctxEqual(s.ctx, o.ctx) {
		return false
	}
	for i, c := range s.children {
		if !c.Equal(o.children[i]) {
			return false
		}
	}
	return true
}

func ctxEqual(a, b any) bool {
	if eq, ok := a.(ContextEqualer); ok {
		return eq.EqualContext(b)
	}
	return reflect.DeepEqual(a, b)
}

// Hash returns a stable 64-bit hash of the spec. Equal specs hash equally,
// so a Spec works as a map key via (Hash, Equal) in a retrace cache.
func (s *Spec) Hash() uint64 {
	d := xxhash.New()
	s.hashInto(d)
	return d.Sum64()
}

func (s *Spec) hashInto(d *xxhash.Digest) {
	_, _ = d.Write([]byte{byte(s.kind)})
	if s.typ != nil {
		_, _ = d.WriteString(s.typ.String())
	}
	switch ctx := s.ctx.(type) {
	case nil:
	case ContextHasher:
		var buf [8]byte
		h := ctx.HashContext()
		for i := range buf {
			buf[i] = byte(h >> (8 * i))
		}
		_, _ = d.Write(buf[:])
	default:
		fmt.Fprintf(d, "%#v", ctx)
	}
	for _, c := range s.children {
		c.hashInto(d)
	}
}
