// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package elementwise provides the public API for generating elementwise GPU
// kernel fragments.
//
// Each operation produces a source fragment that updates in_out_value in
// place, plus the named arguments the fragment reads. A kernel fusion
// framework splices the fragment into a larger kernel and merges the
// arguments under a unique suffix.
//
// Variants:
//   - OneInput: a unary function of in_out_value
//   - OneRuntimeOneScalar: in_out_value combined with a scalar argument
//   - TwoInput: in_out_value combined with a second tensor, either a
//     reference to the kernel's second source or an owned constant
//
// Example:
//
//	host := device.NewHostDevice(device.DefaultHostOptions())
//	op, err := elementwise.CreateTwoInputLinear(host.CreationContext(), def,
//	    elementwise.Mul, tensor.NewLinearTensor([]float32{1, 2, 3}))
//	if err != nil {
//	    return err
//	}
//	defer op.Release()
//	fmt.Print(op.Code())
package elementwise

import (
	"github.com/born-ml/kernelgen/internal/args"
	"github.com/born-ml/kernelgen/internal/device"
	"github.com/born-ml/kernelgen/internal/elementwise"
	"github.com/born-ml/kernelgen/internal/tensor"
)

// OperationType identifies an elementwise operation.
type OperationType = elementwise.OperationType

// Unary operations.
const (
	Abs       OperationType = elementwise.Abs
	Cos       OperationType = elementwise.Cos
	Exp       OperationType = elementwise.Exp
	HardSwish OperationType = elementwise.HardSwish
	Log       OperationType = elementwise.Log
	Rsqrt     OperationType = elementwise.Rsqrt
	Sigmoid   OperationType = elementwise.Sigmoid
	Sin       OperationType = elementwise.Sin
	Sqrt      OperationType = elementwise.Sqrt
	Square    OperationType = elementwise.Square
	Tanh      OperationType = elementwise.Tanh
)

// Binary operations.
const (
	Add         OperationType = elementwise.Add
	Div         OperationType = elementwise.Div
	Maximum     OperationType = elementwise.Maximum
	Minimum     OperationType = elementwise.Minimum
	Mul         OperationType = elementwise.Mul
	Pow         OperationType = elementwise.Pow
	SquaredDiff OperationType = elementwise.SquaredDiff
	Sub         OperationType = elementwise.Sub
)

// UnknownOperationCode is the fragment rendered for unsupported operations.
const UnknownOperationCode = elementwise.UnknownOperationCode

// Elementwise is the contract shared by all variants.
type Elementwise = elementwise.Elementwise

// BroadcastSettings selects which axes of the second tensor are broadcast.
type BroadcastSettings = elementwise.BroadcastSettings

// OneInput is a unary operation.
type OneInput = elementwise.OneInput

// OneRuntimeOneScalar is a binary operation with a scalar second operand.
type OneRuntimeOneScalar = elementwise.OneRuntimeOneScalar

// TwoInput is a binary operation with a tensor second operand.
type TwoInput = elementwise.TwoInput

// ConstantError reports a failed constant tensor construction.
type ConstantError = elementwise.ConstantError

// Errors returned by operations.
var (
	ErrUnknownOperation = elementwise.ErrUnknownOperation
	ErrAllocation       = elementwise.ErrAllocation
	ErrUpload           = elementwise.ErrUpload
	ErrMissingOperand   = elementwise.ErrMissingOperand
	ErrTooManyOperands  = elementwise.ErrTooManyOperands
)

// Arguments is the ordered set of named arguments a fragment reads.
type Arguments = args.Arguments

// Binding is one declared argument.
type Binding = args.Binding

// NewArguments returns an empty argument set.
func NewArguments() *Arguments {
	return args.New()
}

// ParseOperationType converts an operation name such as "squared_diff".
func ParseOperationType(name string) (OperationType, bool) {
	return elementwise.ParseOperationType(name)
}

// UnaryOperations returns every unary operation in declaration order.
func UnaryOperations() []OperationType {
	return elementwise.UnaryOperations()
}

// BinaryOperations returns every binary operation in declaration order.
func BinaryOperations() []OperationType {
	return elementwise.BinaryOperations()
}

// BroadcastFromShape broadcasts every axis of extent 1.
func BroadcastFromShape(shape tensor.BHWC) BroadcastSettings {
	return elementwise.BroadcastFromShape(shape)
}

// NewOneInput builds a unary operation.
func NewOneInput(def tensor.OperationDef, op OperationType) *OneInput {
	return elementwise.NewOneInput(def, op)
}

// NewOneRuntimeOneScalar builds a scalar operation with an explicit scalar precision.
func NewOneRuntimeOneScalar(def tensor.OperationDef, op OperationType,
	scalar float32, scalarPrecision tensor.CalculationsPrecision,
) *OneRuntimeOneScalar {
	return elementwise.NewOneRuntimeOneScalar(def, op, scalar, scalarPrecision)
}

// CreateOneRuntimeOneScalar builds a scalar operation, taking the scalar
// precision from the device.
func CreateOneRuntimeOneScalar(ctx device.CreationContext, def tensor.OperationDef,
	op OperationType, scalar float32,
) *OneRuntimeOneScalar {
	return elementwise.CreateOneRuntimeOneScalar(ctx, def, op, scalar)
}

// NewTwoInput builds an operation reading the kernel's second source.
func NewTwoInput(def tensor.OperationDef, op OperationType, broadcast BroadcastSettings) *TwoInput {
	return elementwise.NewTwoInput(def, op, broadcast)
}

// CreateTwoInput builds a non-broadcasting reference operation.
func CreateTwoInput(def tensor.OperationDef, op OperationType) *TwoInput {
	return elementwise.CreateTwoInput(def, op)
}

// CreateTwoInputWithShape builds a reference operation broadcasting the axes
// where shape has extent 1.
func CreateTwoInputWithShape(def tensor.OperationDef, op OperationType, shape tensor.BHWC) *TwoInput {
	return elementwise.CreateTwoInputWithShape(def, op, shape)
}

// CreateTwoInputLinear builds an operation owning a per-channel constant.
func CreateTwoInputLinear(ctx device.CreationContext, def tensor.OperationDef,
	op OperationType, constant tensor.LinearTensor,
) (*TwoInput, error) {
	return elementwise.CreateTwoInputLinear(ctx, def, op, constant)
}

// CreateTwoInputHWC builds an operation owning a planar constant.
func CreateTwoInputHWC(ctx device.CreationContext, def tensor.OperationDef,
	op OperationType, constant tensor.HWCTensor,
) (*TwoInput, error) {
	return elementwise.CreateTwoInputHWC(ctx, def, op, constant)
}
