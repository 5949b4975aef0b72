package elementwise

import (
	"log/slog"

	"github.com/born-ml/kernelgen/internal/device"
	"github.com/born-ml/kernelgen/internal/tensor"
)

// CreateTwoInputLinear builds an operation whose second operand is a
// per-channel constant vector. The vector is uploaded to the device before
// returning; width and height are always broadcast.
func CreateTwoInputLinear(ctx device.CreationContext, def tensor.OperationDef,
	op OperationType, constant tensor.LinearTensor,
) (*TwoInput, error) {
	shape := tensor.NewBHWC(1, 1, 1, constant.Shape.V)
	broadcast := BroadcastSettings{
		Width:    true,
		Height:   true,
		Channels: shape.C == 1,
	}
	return createConstant(ctx, def, op, shape, broadcast, constant.Data)
}

// CreateTwoInputHWC builds an operation whose second operand is a planar
// constant tensor, broadcasting every axis of extent 1.
func CreateTwoInputHWC(ctx device.CreationContext, def tensor.OperationDef,
	op OperationType, constant tensor.HWCTensor,
) (*TwoInput, error) {
	shape := tensor.NewBHWC(1, constant.Shape.H, constant.Shape.W, constant.Shape.C)
	return createConstant(ctx, def, op, shape, BroadcastFromShape(shape), constant.Data)
}

func createConstant(ctx device.CreationContext, def tensor.OperationDef, op OperationType,
	shape tensor.BHWC, broadcast BroadcastSettings, data []float32,
) (*TwoInput, error) {
	storage := device.SelectBestStorageType(ctx.Context, ctx.Device, shape,
		def.PrimaryStorageType(), def.DataType(), tensor.LayoutHWC)
	desc := tensor.NewTensorDescriptor(def.DataType(), storage, tensor.LayoutHWC)

	h, err := ctx.Context.Allocate(shape, desc)
	if err != nil {
		return nil, &ConstantError{Stage: ErrAllocation, Shape: shape, Err: err}
	}
	if err := ctx.Queue.Upload(h, data); err != nil {
		if freeErr := ctx.Context.Free(h); freeErr != nil {
			slog.Warn("freeing constant tensor after failed upload", "handle", h, "err", freeErr)
		}
		return nil, &ConstantError{Stage: ErrUpload, Shape: shape, Err: err}
	}
	slog.Debug("constant tensor uploaded",
		"op", op.String(), "shape", shape.String(), "storage", storage.String(), "handle", h)

	o, err := newOwnedTwoInput(def, op, broadcast, ctx.Context, h, desc)
	if err != nil {
		_ = ctx.Context.Free(h)
		return nil, err
	}
	return o, nil
}
