package tensor

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// DimIndex selects elements along a single leading dimension.
// Constructors: At, Range, RangeStep, Pick.
type DimIndex interface {
	// resolve returns the selected source indices for a dimension of the
	// given size and whether the dimension survives in the result.
	resolve(size int) (sel []int, keep bool, err error)
	fmt.Stringer
}

// IndexSpec is an ordered list of per-dimension selections, applied to the
// leading dimensions of a shape. Dimensions beyond the spec are kept whole.
type IndexSpec []DimIndex

type atIndex struct{ i int }

type rangeIndex struct{ start, stop, step int }

type pickIndex struct{ indices []int }

// At selects a single position along a dimension, removing it from the
// result. Negative values index from the end.
func At(i int) DimIndex { return atIndex{i: i} }

// Range selects the half-open interval [start, stop) along a dimension.
func Range(start, stop int) DimIndex { return rangeIndex{start: start, stop: stop, step: 1} }

// RangeStep selects [start, stop) with a positive stride.
func RangeStep(start, stop, step int) DimIndex {
	return rangeIndex{start: start, stop: stop, step: step}
}

// Pick selects arbitrary positions along a dimension, keeping it with size
// len(indices). Negative values index from the end. At most one Pick may
// appear in a spec; multiple integer-array dimensions have data-dependent
// broadcast semantics this container does not define.
func Pick(indices ...int) DimIndex {
	return pickIndex{indices: append([]int(nil), indices...)}
}

func normalizeIndex(i, size int) (int, error) {
	if i < 0 {
		i += size
	}
	if i < 0 || i >= size {
		return 0, errors.Newf("tensor: index %d out of range for dimension of size %d", i, size)
	}
	return i, nil
}

func (a atIndex) resolve(size int) ([]int, bool, error) {
	i, err := normalizeIndex(a.i, size)
	if err != nil {
		return nil, false, err
	}
	return []int{i}, false, nil
}

func (a atIndex) String() string { return fmt.Sprintf("%d", a.i) }

func (r rangeIndex) resolve(size int) ([]int, bool, error) {
	if r.step < 1 {
		return nil, false, errors.Newf("tensor: slice step must be >= 1, got %d", r.step)
	}
	if r.start < 0 || r.stop > size || r.start > r.stop {
		return nil, false, errors.Newf("tensor: slice [%d:%d] out of range for dimension of size %d",
			r.start, r.stop, size)
	}
	sel := make([]int, 0, (r.stop-r.start+r.step-1)/r.step)
	for i := r.start; i < r.stop; i += r.step {
		sel = append(sel, i)
	}
	return sel, true, nil
}

func (r rangeIndex) String() string {
	if r.step == 1 {
		return fmt.Sprintf("%d:%d", r.start, r.stop)
	}
	return fmt.Sprintf("%d:%d:%d", r.start, r.stop, r.step)
}

func (p pickIndex) resolve(size int) ([]int, bool, error) {
	sel := make([]int, len(p.indices))
	for k, i := range p.indices {
		n, err := normalizeIndex(i, size)
		if err != nil {
			return nil, false, err
		}
		sel[k] = n
	}
	return sel, true, nil
}

func (p pickIndex) String() string { return fmt.Sprintf("%v", p.indices) }

// Validate checks the spec against a shape without resolving selections:
// spec length within rank, at most one Pick.
func (spec IndexSpec) Validate(shape Shape) error {
	if len(spec) > len(shape) {
		return errors.Newf("tensor: index spec has %d dims but shape %v has rank %d",
			len(spec), shape, len(shape))
	}
	picks := 0
	for _, di := range spec {
		if _, ok := di.(pickIndex); ok {
			picks++
		}
	}
	if picks > 1 {
		return errors.Newf("tensor: at most one integer-array dimension is supported, got %d", picks)
	}
	return nil
}

// ResultShape computes the shape produced by applying spec to the leading
// dimensions of shape. Trailing dimensions pass through unchanged.
func (spec IndexSpec) ResultShape(shape Shape) (Shape, error) {
	plan, err := spec.plan(shape)
	if err != nil {
		return nil, err
	}
	return plan.result, nil
}

// indexPlan is a fully resolved spec: per-dimension selections plus the
// resulting shape.
type indexPlan struct {
	sel    [][]int // one selection list per spec dimension
	keep   []bool
	result Shape
}

func (spec IndexSpec) plan(shape Shape) (*indexPlan, error) {
	if err := spec.Validate(shape); err != nil {
		return nil, err
	}
	p := &indexPlan{
		sel:  make([][]int, len(spec)),
		keep: make([]bool, len(spec)),
	}
	result := make(Shape, 0, len(shape))
	for d, di := range spec {
		sel, keep, err := di.resolve(shape[d])
		if err != nil {
			return nil, errors.Wrapf(err, "dimension %d", d)
		}
		p.sel[d] = sel
		p.keep[d] = keep
		if keep {
			result = append(result, len(sel))
		}
	}
	result = append(result, shape[len(spec):]...)
	p.result = result
	return p, nil
}
