package elementwise

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernelgen/internal/args"
	"github.com/born-ml/kernelgen/internal/device"
	"github.com/born-ml/kernelgen/internal/tensor"
)

func TestCreateTwoInputLinear(t *testing.T) {
	host := device.NewHostDevice(device.DefaultHostOptions())

	op, err := CreateTwoInputLinear(host.CreationContext(), testDef(tensor.F32), Mul,
		tensor.NewLinearTensor([]float32{1, 2, 3}))
	require.NoError(t, err)

	assert.Equal(t, BroadcastSettings{Width: true, Height: true, Channels: false}, op.Broadcast())
	assert.True(t, strings.HasPrefix(op.Code(), "FLT4 second_val = args.second_tensor.Read(0, 0, S_COORD);\n"))
	assert.True(t, strings.HasSuffix(op.Code(), "in_out_value *= second_val;\n"))
	assert.True(t, op.Owned())

	b, ok := op.Args().Lookup("second_tensor")
	require.True(t, ok)
	assert.Equal(t, args.KindObject, b.Kind)
	assert.Equal(t, args.Resolved, b.State)

	tt, ok := host.Lookup(b.Handle)
	require.True(t, ok)
	assert.Equal(t, tensor.NewBHWC(1, 1, 1, 3), tt.Shape)
	assert.Equal(t, tensor.StorageTexture2D, tt.Descriptor.StorageType)
	assert.Equal(t, tensor.LayoutHWC, tt.Descriptor.Layout)

	data, err := host.Read(b.Handle)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, data)

	require.NoError(t, op.Release())
	assert.Equal(t, 0, host.Registry().Len())
	require.NoError(t, op.Release())
}

func TestCreateTwoInputLinearSingleChannel(t *testing.T) {
	host := device.NewHostDevice(device.DefaultHostOptions())

	op, err := CreateTwoInputLinear(host.CreationContext(), testDef(tensor.F16), Add,
		tensor.NewLinearTensor([]float32{0.5}))
	require.NoError(t, err)
	defer op.Release()

	assert.Equal(t, BroadcastSettings{Width: true, Height: true, Channels: true}, op.Broadcast())
	assert.Contains(t, op.Code(), "  second_val.w = second_val.x;\n")

	b, _ := op.Args().Lookup("second_tensor")
	assert.Equal(t, tensor.Float16, b.Descriptor.DataType)
}

func TestCreateTwoInputHWC(t *testing.T) {
	tests := []struct {
		shape tensor.HWC
		want  BroadcastSettings
	}{
		{tensor.HWC{H: 2, W: 3, C: 4}, BroadcastSettings{}},
		{tensor.HWC{H: 1, W: 3, C: 4}, BroadcastSettings{Height: true}},
		{tensor.HWC{H: 2, W: 1, C: 4}, BroadcastSettings{Width: true}},
		{tensor.HWC{H: 2, W: 3, C: 1}, BroadcastSettings{Channels: true}},
		{tensor.HWC{H: 1, W: 1, C: 1}, BroadcastSettings{Width: true, Height: true, Channels: true}},
	}

	for _, tt := range tests {
		host := device.NewHostDevice(device.DefaultHostOptions())
		data := make([]float32, tt.shape.H*tt.shape.W*tt.shape.C)
		for i := range data {
			data[i] = float32(i)
		}
		constant, err := tensor.NewHWCTensor(tt.shape, data)
		require.NoError(t, err)

		op, err := CreateTwoInputHWC(host.CreationContext(), testDef(tensor.F32), Sub, constant)
		require.NoError(t, err)
		assert.Equal(t, tt.want, op.Broadcast(), "%+v", tt.shape)

		b, _ := op.Args().Lookup("second_tensor")
		got, err := host.Read(b.Handle)
		require.NoError(t, err)
		assert.Equal(t, data, got)

		require.NoError(t, op.Release())
	}
}

func TestCreateTwoInputAllocationFailure(t *testing.T) {
	opts := device.DefaultHostOptions()
	opts.MemoryBudget = 16
	host := device.NewHostDevice(opts)

	op, err := CreateTwoInputLinear(host.CreationContext(), testDef(tensor.F32), Mul,
		tensor.NewLinearTensor(make([]float32, 64)))
	require.Error(t, err)
	assert.Nil(t, op)
	assert.ErrorIs(t, err, ErrAllocation)
	assert.ErrorIs(t, err, device.ErrOutOfMemory)
	assert.NotErrorIs(t, err, ErrUpload)

	var constErr *ConstantError
	require.ErrorAs(t, err, &constErr)
	assert.Equal(t, tensor.NewBHWC(1, 1, 1, 64), constErr.Shape)
	assert.Equal(t, 0, host.Registry().Len())
}

func TestCreateTwoInputUploadFailure(t *testing.T) {
	transfer := errors.New("transfer aborted")
	opts := device.DefaultHostOptions()
	opts.UploadHook = func(device.Handle, []float32) error { return transfer }
	host := device.NewHostDevice(opts)

	op, err := CreateTwoInputLinear(host.CreationContext(), testDef(tensor.F32), Mul,
		tensor.NewLinearTensor([]float32{1, 2}))
	require.Error(t, err)
	assert.Nil(t, op)
	assert.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, transfer)

	// The allocation made before the failed upload is given back.
	assert.Equal(t, 0, host.Registry().Len())
	used, _ := host.MemoryStats()
	assert.Zero(t, used)
}

func TestCreateTwoInputLinearLengthMismatch(t *testing.T) {
	host := device.NewHostDevice(device.DefaultHostOptions())
	constant := tensor.LinearTensor{Shape: tensor.Linear{V: 4}, Data: []float32{1, 2}}

	_, err := CreateTwoInputLinear(host.CreationContext(), testDef(tensor.F32), Add, constant)
	assert.ErrorIs(t, err, ErrUpload)
	assert.ErrorIs(t, err, device.ErrShapeMismatch)
}

func TestConstantMoveTransfersOwnership(t *testing.T) {
	host := device.NewHostDevice(device.DefaultHostOptions())

	op, err := CreateTwoInputLinear(host.CreationContext(), testDef(tensor.F32), Add,
		tensor.NewLinearTensor([]float32{1, 2, 3, 4, 5}))
	require.NoError(t, err)

	moved := op.Move()
	assert.True(t, moved.Owned())
	assert.False(t, op.Owned())

	// Releasing the moved-from operation frees nothing.
	require.NoError(t, op.Release())
	assert.Equal(t, 1, host.Registry().Len())

	var target TwoInput
	require.NoError(t, target.MoveFrom(moved))
	require.NoError(t, moved.Release())
	assert.Equal(t, 1, host.Registry().Len())

	require.NoError(t, target.Release())
	assert.Equal(t, 0, host.Registry().Len())
	registered, freed := host.Registry().Stats()
	assert.Equal(t, uint64(1), registered)
	assert.Equal(t, uint64(1), freed)
}

func TestConstantMoveAssignmentReleasesPrevious(t *testing.T) {
	host := device.NewHostDevice(device.DefaultHostOptions())
	ctx := host.CreationContext()

	first, err := CreateTwoInputLinear(ctx, testDef(tensor.F32), Add, tensor.NewLinearTensor([]float32{1}))
	require.NoError(t, err)
	second, err := CreateTwoInputLinear(ctx, testDef(tensor.F32), Mul, tensor.NewLinearTensor([]float32{2}))
	require.NoError(t, err)
	require.Equal(t, 2, host.Registry().Len())

	require.NoError(t, first.MoveFrom(second))
	assert.Equal(t, 1, host.Registry().Len())
	assert.Equal(t, Mul, first.Type())

	require.NoError(t, first.Release())
	assert.Equal(t, 0, host.Registry().Len())
}

func TestConstantSetArgsIsNoop(t *testing.T) {
	host := device.NewHostDevice(device.DefaultHostOptions())
	op, err := CreateTwoInputLinear(host.CreationContext(), testDef(tensor.F32), Add,
		tensor.NewLinearTensor([]float32{1, 2}))
	require.NoError(t, err)
	defer op.Release()

	op.SetSrc(1, 2)
	assert.NoError(t, op.SetArgs("_0", args.New()))
}

func TestConstantMergedIntoKernelIsFreedOnRelease(t *testing.T) {
	host := device.NewHostDevice(device.DefaultHostOptions())
	op, err := CreateTwoInputLinear(host.CreationContext(), testDef(tensor.F32), Mul,
		tensor.NewLinearTensor([]float32{1, 2, 3}))
	require.NoError(t, err)

	kernel := args.New()
	require.NoError(t, kernel.Merge(op.Args(), "_link0"))
	require.NoError(t, op.SetArgs("_link0", kernel))

	b, ok := kernel.Lookup("second_tensor_link0")
	require.True(t, ok)
	assert.Equal(t, args.Resolved, b.State)
	assert.Empty(t, kernel.OwnedHandles())

	require.NoError(t, op.Release())
	assert.Equal(t, 0, host.Registry().Len())
	used, _ := host.MemoryStats()
	assert.Zero(t, used)
}
