package elementwise

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/kernelgen/internal/tensor"
)

// Common errors.
var (
	ErrUnknownOperation = errors.New("elementwise: unknown operation type")
	ErrAllocation       = errors.New("elementwise: constant tensor allocation failed")
	ErrUpload           = errors.New("elementwise: constant tensor upload failed")
	ErrMissingOperand   = errors.New("elementwise: second operand not declared in kernel arguments")
	ErrTooManyOperands  = errors.New("elementwise: more than two source operands")
)

// ConstantError reports a failed constant tensor construction. It matches
// both its stage (ErrAllocation or ErrUpload) and the device error.
type ConstantError struct {
	Stage error
	Shape tensor.BHWC
	Err   error
}

// Error implements the error interface.
func (e *ConstantError) Error() string {
	return fmt.Sprintf("%v: shape %v: %v", e.Stage, e.Shape, e.Err)
}

// Unwrap exposes the stage and the device error to errors.Is.
func (e *ConstantError) Unwrap() []error {
	return []error{e.Stage, e.Err}
}
