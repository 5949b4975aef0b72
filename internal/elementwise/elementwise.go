package elementwise

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/born-ml/kernelgen/internal/args"
	"github.com/born-ml/kernelgen/internal/device"
	"github.com/born-ml/kernelgen/internal/tensor"
)

// OneInput applies a unary operation to in_out_value.
type OneInput struct {
	Operation
}

// NewOneInput builds the fragment of a unary operation.
func NewOneInput(def tensor.OperationDef, op OperationType) *OneInput {
	o := &OneInput{Operation: newOperation(def, op)}
	o.code = RenderUnary(op, def.Precision, inOutValue)
	return o
}

// Move returns a new operation holding everything o held; o is left empty.
func (o *OneInput) Move() *OneInput {
	moved := &OneInput{}
	moved.moveFrom(&o.Operation)
	return moved
}

// MoveFrom releases what o owns and takes over everything other holds.
func (o *OneInput) MoveFrom(other *OneInput) error {
	if o == other {
		return nil
	}
	err := o.Release()
	o.moveFrom(&other.Operation)
	return err
}

// OneRuntimeOneScalar combines in_out_value with a scalar baked into the
// kernel arguments.
type OneRuntimeOneScalar struct {
	Operation
	scalarPrecision tensor.CalculationsPrecision
}

// NewOneRuntimeOneScalar builds the fragment of a binary operation whose second
// operand is scalar. The scalar is declared as a float when scalarPrecision is
// full precision and as a half otherwise.
func NewOneRuntimeOneScalar(def tensor.OperationDef, op OperationType,
	scalar float32, scalarPrecision tensor.CalculationsPrecision,
) *OneRuntimeOneScalar {
	o := &OneRuntimeOneScalar{
		Operation:       newOperation(def, op),
		scalarPrecision: scalarPrecision,
	}
	// A fresh argument set cannot hold a duplicate.
	if scalarPrecision.IsFull() {
		_ = o.args.AddFloat(scalarName, scalar)
	} else {
		_ = o.args.AddHalf(scalarName, float16.Fromfloat32(scalar))
	}
	o.code = RenderBinary(op, inOutValue, "args."+scalarName)
	return o
}

// CreateOneRuntimeOneScalar builds a scalar operation, choosing the scalar's
// precision from the device.
func CreateOneRuntimeOneScalar(ctx device.CreationContext, def tensor.OperationDef,
	op OperationType, scalar float32,
) *OneRuntimeOneScalar {
	return NewOneRuntimeOneScalar(def, op, scalar, ScalarPrecision(ctx.Device, def.Precision))
}

// ScalarPrecision returns the precision a scalar argument is stored in on dev.
// PowerVR devices produce wrong results with half scalars and always get floats.
func ScalarPrecision(dev device.Device, precision tensor.CalculationsPrecision) tensor.CalculationsPrecision {
	if dev != nil && dev.IsPowerVR() {
		return tensor.F32
	}
	return precision
}

// ScalarPrecision returns the precision the scalar argument is stored in.
func (o *OneRuntimeOneScalar) ScalarPrecision() tensor.CalculationsPrecision {
	return o.scalarPrecision
}

// Move returns a new operation holding everything o held; o is left empty.
func (o *OneRuntimeOneScalar) Move() *OneRuntimeOneScalar {
	moved := &OneRuntimeOneScalar{scalarPrecision: o.scalarPrecision}
	moved.moveFrom(&o.Operation)
	return moved
}

// MoveFrom releases what o owns and takes over everything other holds.
func (o *OneRuntimeOneScalar) MoveFrom(other *OneRuntimeOneScalar) error {
	if o == other {
		return nil
	}
	err := o.Release()
	o.scalarPrecision = other.scalarPrecision
	o.moveFrom(&other.Operation)
	return err
}

// TwoInput combines in_out_value with a value read from a second tensor,
// either supplied by the kernel (a reference) or owned by the operation.
type TwoInput struct {
	Operation
	broadcast BroadcastSettings
	owned     bool
}

// NewTwoInput builds an operation whose second tensor is src[1] of the
// embedding kernel, resolved later through SetArgs.
func NewTwoInput(def tensor.OperationDef, op OperationType, broadcast BroadcastSettings) *TwoInput {
	o := &TwoInput{Operation: newOperation(def, op), broadcast: broadcast}

	desc := secondDescriptor(def)
	if def.IsBatchSupported() {
		desc.SetStateVar(tensor.StateBatchedWidth, "true")
	}
	_ = o.args.AddObjectRef(secondTensor, args.Read, desc)
	o.code = readSecond(broadcast) + RenderBinary(op, inOutValue, secondValue)
	return o
}

// newOwnedTwoInput builds an operation that reads an already uploaded tensor
// and frees it through owner on Release.
func newOwnedTwoInput(def tensor.OperationDef, op OperationType, broadcast BroadcastSettings,
	owner device.Context, h device.Handle, desc tensor.TensorDescriptor,
) (*TwoInput, error) {
	o := &TwoInput{Operation: newOperation(def, op), broadcast: broadcast, owned: true}
	if err := o.args.AddObject(secondTensor, args.Read, h, desc); err != nil {
		return nil, err
	}
	o.owner = owner
	o.code = readSecond(broadcast) + RenderBinary(op, inOutValue, secondValue)
	return o, nil
}

// secondDescriptor returns the descriptor of the second source tensor. A
// definition listing a single source gets one shaped like the first.
func secondDescriptor(def tensor.OperationDef) tensor.TensorDescriptor {
	if len(def.SrcTensors) > 1 {
		return def.SrcTensors[1].Clone()
	}
	return tensor.NewTensorDescriptor(def.DataType(), def.PrimaryStorageType(), tensor.LayoutHWC)
}

// CreateTwoInput builds a reference operation with nothing broadcast.
func CreateTwoInput(def tensor.OperationDef, op OperationType) *TwoInput {
	return NewTwoInput(def, op, BroadcastSettings{})
}

// CreateTwoInputWithShape builds a reference operation broadcasting the axes
// along which the second tensor's shape has extent 1.
func CreateTwoInputWithShape(def tensor.OperationDef, op OperationType, shape tensor.BHWC) *TwoInput {
	return NewTwoInput(def, op, BroadcastFromShape(shape))
}

// Broadcast returns the broadcast settings the fragment was generated with.
func (o *TwoInput) Broadcast() BroadcastSettings { return o.broadcast }

// Owned reports whether the second tensor is a constant owned by o.
func (o *TwoInput) Owned() bool { return o.owned }

// SetArgs binds "second_tensor"+uniqueSuffix in the kernel's arguments to
// the second source tensor. Without a second source, or when the second
// tensor is owned, there is nothing to bind.
func (o *TwoInput) SetArgs(uniqueSuffix string, target *args.Arguments) error {
	if o.owned || len(o.src) < 2 {
		return nil
	}
	if len(o.src) > 2 {
		return errors.Wrapf(ErrTooManyOperands, "got %d", len(o.src))
	}
	name := secondTensor + uniqueSuffix
	if _, ok := target.Lookup(name); !ok {
		return errors.Wrapf(ErrMissingOperand, "%q", name)
	}
	if err := target.SetObjectRef(name, o.src[1]); err != nil {
		return err
	}
	slog.Debug("second tensor bound", "op", o.opType.String(), "name", name, "handle", o.src[1])
	return nil
}

// Move returns a new operation holding everything o held, including an owned
// constant tensor; o is left empty and releasing it frees nothing.
func (o *TwoInput) Move() *TwoInput {
	moved := &TwoInput{broadcast: o.broadcast, owned: o.owned}
	moved.moveFrom(&o.Operation)
	o.owned = false
	return moved
}

// MoveFrom releases what o owns and takes over everything other holds.
func (o *TwoInput) MoveFrom(other *TwoInput) error {
	if o == other {
		return nil
	}
	err := o.Release()
	o.broadcast = other.broadcast
	o.owned = other.owned
	o.moveFrom(&other.Operation)
	other.owned = false
	return err
}

var (
	_ Elementwise = (*OneInput)(nil)
	_ Elementwise = (*OneRuntimeOneScalar)(nil)
	_ Elementwise = (*TwoInput)(nil)
)
