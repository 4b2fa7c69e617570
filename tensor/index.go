// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/tensordict/internal/tensor"
)

// DimIndex selects elements along a single dimension. Build one with At,
// Range, RangeStep or Pick.
type DimIndex = tensor.DimIndex

// IndexSpec is a per-dimension index specification, applied to a tensor's
// leading dimensions. A spec shorter than the rank leaves trailing
// dimensions untouched.
type IndexSpec = tensor.IndexSpec

// At selects a single position along a dimension, removing it from the
// result. Negative values count from the end.
//
// Example:
//
//	row, err := x.Index(tensor.IndexSpec{tensor.At(-1)})  // last row
func At(i int) DimIndex { return tensor.At(i) }

// Range selects the half-open interval [start, stop) along a dimension,
// keeping it in the result.
func Range(start, stop int) DimIndex { return tensor.Range(start, stop) }

// RangeStep selects every step-th position in [start, stop) along a
// dimension. step must be positive.
func RangeStep(start, stop, step int) DimIndex { return tensor.RangeStep(start, stop, step) }

// Pick gathers explicit positions along a dimension, possibly repeating or
// reordering them. At most one Pick may appear in a spec.
//
// Example:
//
//	rows, err := x.Index(tensor.IndexSpec{tensor.Pick(3, 0, 3)})
func Pick(indices ...int) DimIndex { return tensor.Pick(indices...) }
