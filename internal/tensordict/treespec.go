package tensordict

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/born-ml/tensordict/internal/tensor"
)

// LeafMeta is the static metadata recorded per leaf slot: everything needed
// to validate a substituted leaf, nothing about its values.
type LeafMeta struct {
	// Tail is the leaf's shape beyond its node's batch dimensions.
	Tail tensor.Shape
	// DType is the leaf's element type.
	DType tensor.DataType
	// Device is where the leaf lived when the descriptor was taken. It
	// participates in descriptor equality but is not enforced by
	// Unflatten: a tracing consumer may replay on another device.
	Device tensor.Device
}

func (m LeafMeta) equal(o LeafMeta) bool {
	return m.Tail.Equal(o.Tail) && m.DType == o.DType && m.Device == o.Device
}

type specEntry struct {
	key  string
	leaf *LeafMeta // exactly one of leaf/sub is set
	sub  *TreeSpec
}

// TreeSpec is the immutable structure descriptor of a TensorDict: batch
// shapes, key layout and per-leaf static metadata, independent of leaf
// values. Two trees with identical structure but different leaf values
// produce equal TreeSpecs, which is what lets an external tracing cache
// treat them as the same compiled trace. TreeSpecs are created only by
// Flatten.
type TreeSpec struct {
	batch     tensor.Shape
	device    *tensor.Device
	entries   []specEntry // lexicographic key order
	numLeaves int
}

func buildSpec(td *TensorDict) *TreeSpec {
	s := &TreeSpec{batch: td.batch.Clone(), device: td.device}
	for _, k := range td.sortedKeys() {
		switch v := td.entries[k].(type) {
		case *TensorDict:
			sub := buildSpec(v)
			s.entries = append(s.entries, specEntry{key: k, sub: sub})
			s.numLeaves += sub.numLeaves
		case tensor.Leaf:
			meta := &LeafMeta{
				Tail:   v.Shape().Tail(len(td.batch)).Clone(),
				DType:  v.DType(),
				Device: v.Device(),
			}
			s.entries = append(s.entries, specEntry{key: k, leaf: meta})
			s.numLeaves++
		}
	}
	return s
}

// BatchShape returns a copy of the descriptor's root batch shape.
func (s *TreeSpec) BatchShape() tensor.Shape { return s.batch.Clone() }

// NumLeaves returns the number of leaf slots in flatten order.
func (s *TreeSpec) NumLeaves() int { return s.numLeaves }

// KeyPaths returns the key path of every leaf slot, in flatten order.
func (s *TreeSpec) KeyPaths() [][]string {
	var paths [][]string
	var walk func(spec *TreeSpec, prefix []string)
	walk = func(spec *TreeSpec, prefix []string) {
		for _, e := range spec.entries {
			path := append(append([]string(nil), prefix...), e.key)
			if e.sub != nil {
				walk(e.sub, path)
			} else {
				paths = append(paths, path)
			}
		}
	}
	walk(s, nil)
	return paths
}

// Equal reports whether two descriptors would accept an interchangeable
// flattened leaf sequence: same key paths, same batch shapes, same per-leaf
// static metadata.
func (s *TreeSpec) Equal(o *TreeSpec) bool {
	if o == nil || !s.batch.Equal(o.batch) || len(s.entries) != len(o.entries) {
		return false
	}
	if (s.device == nil) != (o.device == nil) {
		return false
	}
	if s.device != nil && *s.device != *o.device {
		return false
	}
	for i, e := range s.entries {
		oe := o.entries[i]
		if e.key != oe.key || (e.sub != nil) != (oe.sub != nil) {
			return false
		}
		if e.sub != nil {
			if !e.sub.Equal(oe.sub) {
				return false
			}
		} else if !e.leaf.equal(*oe.leaf) {
			return false
		}
	}
	return true
}

// Hash returns a stable 64-bit hash of the descriptor, suitable as a
// retrace-cache key. Equal descriptors hash equally.
func (s *TreeSpec) Hash() uint64 {
	d := xxhash.New()
	s.hashInto(d)
	return d.Sum64()
}

func (s *TreeSpec) hashInto(d *xxhash.Digest) {
	hashShape(d, s.batch)
	if s.device != nil {
		hashUint(d, 1)
		hashUint(d, uint64(*s.device))
	} else {
		hashUint(d, 0)
	}
	hashUint(d, uint64(len(s.entries)))
	for _, e := range s.entries {
		hashUint(d, uint64(len(e.key)))
		_, _ = d.WriteString(e.key)
		if e.sub != nil {
			hashUint(d, 1)
			e.sub.hashInto(d)
		} else {
			hashUint(d, 0)
			hashShape(d, e.leaf.Tail)
			hashUint(d, uint64(e.leaf.DType))
			hashUint(d, uint64(e.leaf.Device))
		}
	}
}

func hashShape(d *xxhash.Digest, s tensor.Shape) {
	hashUint(d, uint64(len(s)))
	for _, dim := range s {
		hashUint(d, uint64(dim))
	}
}

func hashUint(d *xxhash.Digest, v uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, _ = d.Write(buf[:n])
}

// String renders the descriptor in the same compact form as
// TensorDict.String, with leaf tails in place of full shapes.
func (s *TreeSpec) String() string {
	var b strings.Builder
	s.writeString(&b)
	return b.String()
}

func (s *TreeSpec) writeString(b *strings.Builder) {
	fmt.Fprintf(b, "TreeSpec(batch=%v){", s.batch)
	for i, e := range s.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.key)
		b.WriteString(": ")
		if e.sub != nil {
			e.sub.writeString(b)
		} else {
			fmt.Fprintf(b, "%s%v", e.leaf.DType, e.leaf.Tail)
		}
	}
	b.WriteString("}")
}
