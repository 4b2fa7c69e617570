// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/tensordict/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor data types.
// Supported types: float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Leaf is the interface a value must implement to live inside a tensordict
// tree. Dense implements it on the CPU; adapters over other tensor libraries
// can implement it too.
type Leaf = tensor.Leaf

// Dense is a contiguous CPU tensor implementing Leaf.
type Dense = tensor.Dense

// ErrUnsupportedCast reports a dtype or device conversion the leaf cannot
// perform.
var ErrUnsupportedCast = tensor.ErrUnsupportedCast

// CommonPrefix returns the longest leading-dimension prefix shared by all
// shapes, or nil when shapes is empty.
func CommonPrefix(shapes []Shape) Shape {
	return tensor.CommonPrefix(shapes)
}

// Creation functions

// Zeros creates a dense CPU tensor filled with zeros.
//
// Example:
//
//	x := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) (*Dense, error) {
	return tensor.Zeros(shape, dtype)
}

// FromSlice creates a dense CPU tensor from a Go slice.
//
// Example:
//
//	data := []float32{1, 2, 3, 4, 5, 6}
//	x, err := tensor.FromSlice(data, tensor.Shape{2, 3})
func FromSlice[T DType](data []T, shape Shape) (*Dense, error) {
	return tensor.FromSlice(data, shape)
}

// Arange creates a 1D dense CPU tensor with values from start to end
// (exclusive).
//
// Example:
//
//	x, err := tensor.Arange[float32](0, 10)  // [0, 1, 2, ..., 9]
func Arange[T interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint8
}](start, end T) (*Dense, error) {
	return tensor.Arange(start, end)
}
