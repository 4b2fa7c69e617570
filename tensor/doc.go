// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the leaf-level types for the tensordict container:
// shapes, data types, devices, batch-dimension indexing, and a dense CPU
// tensor.
//
// # Overview
//
// The container packages treat leaf values through the Leaf interface. This
// package provides:
//   - Shape, DataType, Device: core type definitions
//   - Leaf: the value-adapter interface every leaf implements
//   - Dense: a contiguous CPU implementation of Leaf
//   - DimIndex, IndexSpec: per-dimension index specifications
//
// # Basic Usage
//
//	import "github.com/born-ml/tensordict/tensor"
//
//	func main() {
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//
//	    row, _ := x.Index(tensor.IndexSpec{tensor.At(0)})   // shape [3]
//	    flat, _ := x.Reshape(tensor.Shape{6})               // view, no copy
//	    wide, _ := x.AsType(tensor.Float64)
//	}
//
// # Supported Data Types
//
// The DType constraint covers the element types a Dense tensor can carry:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//   - bool (boolean masks)
//
// Bool participates in shape operations but not in numeric casts.
package tensor
