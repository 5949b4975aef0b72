// Package elementwise generates the source fragments of pointwise operations
// that a kernel fusion framework links into a larger kernel, together with
// the arguments each fragment needs.
//
// A fragment works in place on the 4-lane value in_out_value. Two operand
// operations read their second value from a scalar argument, from a tensor
// the kernel supplies, or from a constant tensor uploaded at construction.
package elementwise

import (
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/born-ml/kernelgen/internal/args"
	"github.com/born-ml/kernelgen/internal/device"
	"github.com/born-ml/kernelgen/internal/tensor"
)

// Names shared between the fragments and their argument declarations.
const (
	inOutValue   = "in_out_value"
	scalarName   = "scalar"
	secondTensor = "second_tensor"
	secondValue  = "second_val"
)

// Elementwise is what the kernel fusion framework needs from an operation.
type Elementwise interface {
	Code() string
	Args() *args.Arguments
	SetSrc(handles ...device.Handle)
	SetArgs(uniqueSuffix string, target *args.Arguments) error
	Validate() error
	Release() error
}

// noCopy makes go vet's copylocks check flag copies of operations.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Operation holds what every elementwise variant has: its definition, the
// generated code and the declared arguments. Operations must not be copied;
// use the variant's Move methods to transfer ownership.
type Operation struct {
	_ noCopy

	definition tensor.OperationDef
	opType     OperationType
	code       string
	args       *args.Arguments
	src        []device.Handle

	// owner frees the tensors of owned object arguments.
	owner device.Context
}

func newOperation(def tensor.OperationDef, op OperationType) Operation {
	return Operation{definition: def, opType: op, args: args.New()}
}

// Code returns the generated fragment.
func (o *Operation) Code() string { return o.code }

// Args returns the declared arguments.
func (o *Operation) Args() *args.Arguments { return o.args }

// Definition returns the operation definition the fragment was built for.
func (o *Operation) Definition() tensor.OperationDef { return o.definition }

// Type returns the operation type.
func (o *Operation) Type() OperationType { return o.opType }

// SetSrc records the source tensors the embedding kernel binds to this
// operation. Position 0 is the value being updated in place.
func (o *Operation) SetSrc(handles ...device.Handle) {
	o.src = append(o.src[:0], handles...)
}

// Src returns the source tensors.
func (o *Operation) Src() []device.Handle { return o.src }

// SetArgs resolves deferred arguments. Operations without object references
// have nothing to resolve.
func (o *Operation) SetArgs(string, *args.Arguments) error { return nil }

// Validate reports fragments generated for an operation the catalog does
// not know.
func (o *Operation) Validate() error {
	if o.code == UnknownOperationCode {
		return errors.Wrapf(ErrUnknownOperation, "operation %d", int(o.opType))
	}
	return nil
}

// Release frees the device tensors the operation owns. It is safe to call
// more than once and on a moved-from operation.
func (o *Operation) Release() error {
	if o.args == nil || o.owner == nil {
		return nil
	}
	var errs []error
	for _, h := range o.args.OwnedHandles() {
		if err := o.owner.Free(h); err != nil {
			errs = append(errs, err)
		}
	}
	o.args = args.New()
	o.owner = nil
	return stderrors.Join(errs...)
}

// moveFrom transfers everything other holds into o and leaves other with no
// code, no arguments and no owned tensors.
func (o *Operation) moveFrom(other *Operation) {
	o.definition = other.definition
	o.opType = other.opType
	o.code = other.code
	o.args = other.args.Move()
	o.src = other.src
	o.owner = other.owner

	other.code = ""
	other.src = nil
	other.owner = nil
}
