// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor-level types used when generating
// elementwise kernel fragments.
//
// The package defines:
//   - DataType and CalculationsPrecision: element type and evaluation precision
//   - BHWC, HWC, Linear: logical shapes
//   - TensorDescriptor and OperationDef: how the embedding kernel stores its tensors
//   - LinearTensor, HWCTensor: host-side constants
//
// Example:
//
//	desc := tensor.NewTensorDescriptor(tensor.Float16, tensor.StorageTexture2D, tensor.LayoutHWC)
//	def := tensor.OperationDef{
//	    Precision:  tensor.F16,
//	    SrcTensors: []tensor.TensorDescriptor{desc, desc},
//	    DstTensors: []tensor.TensorDescriptor{desc},
//	}
package tensor

import (
	"github.com/born-ml/kernelgen/internal/tensor"
)

// DataType is the on-device element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float16 DataType = tensor.Float16
)

// CalculationsPrecision selects the precision generated code evaluates in.
type CalculationsPrecision = tensor.CalculationsPrecision

// Precision constants.
const (
	F32    CalculationsPrecision = tensor.F32
	F32F16 CalculationsPrecision = tensor.F32F16
	F16    CalculationsPrecision = tensor.F16
)

// StorageType is the device memory object kind backing a tensor.
type StorageType = tensor.StorageType

// Storage type constants.
const (
	StorageUnknown         StorageType = tensor.StorageUnknown
	StorageBuffer          StorageType = tensor.StorageBuffer
	StorageImageBuffer     StorageType = tensor.StorageImageBuffer
	StorageTexture2D       StorageType = tensor.StorageTexture2D
	StorageTextureArray    StorageType = tensor.StorageTextureArray
	StorageTexture3D       StorageType = tensor.StorageTexture3D
	StorageSingleTexture2D StorageType = tensor.StorageSingleTexture2D
)

// Layout is the logical axis order of a tensor.
type Layout = tensor.Layout

// Layout constants.
const (
	LayoutUnknown Layout = tensor.LayoutUnknown
	LayoutHWC     Layout = tensor.LayoutHWC
	LayoutBHWC    Layout = tensor.LayoutBHWC
	LayoutLinear  Layout = tensor.LayoutLinear
)

// StateBatchedWidth marks a descriptor whose batch is folded into width.
const StateBatchedWidth = tensor.StateBatchedWidth

// TensorDescriptor describes how a tensor is typed and stored.
type TensorDescriptor = tensor.TensorDescriptor

// OperationDef describes the kernel an operation is embedded in.
type OperationDef = tensor.OperationDef

// BHWC is a batch, height, width, channels shape.
type BHWC = tensor.BHWC

// HWC is a planar host tensor shape.
type HWC = tensor.HWC

// Linear is a one-dimensional host tensor shape.
type Linear = tensor.Linear

// LinearTensor is a host-side vector constant.
type LinearTensor = tensor.LinearTensor

// HWCTensor is a host-side planar constant.
type HWCTensor = tensor.HWCTensor

// NewBHWC returns a BHWC shape.
func NewBHWC(b, h, w, c int) BHWC {
	return tensor.NewBHWC(b, h, w, c)
}

// NewTensorDescriptor returns a descriptor with no state variables.
func NewTensorDescriptor(dt DataType, st StorageType, layout Layout) TensorDescriptor {
	return tensor.NewTensorDescriptor(dt, st, layout)
}

// NewLinearTensor wraps data as a linear tensor.
func NewLinearTensor(data []float32) LinearTensor {
	return tensor.NewLinearTensor(data)
}

// NewHWCTensor wraps data as an HWC tensor.
func NewHWCTensor(shape HWC, data []float32) (HWCTensor, error) {
	return tensor.NewHWCTensor(shape, data)
}

// ParsePrecision converts "f32", "f32_f16" or "f16" to a precision.
func ParsePrecision(name string) (CalculationsPrecision, bool) {
	return tensor.ParsePrecision(name)
}
