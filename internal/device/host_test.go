package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernelgen/internal/tensor"
)

func bufferDesc(dt tensor.DataType) tensor.TensorDescriptor {
	return tensor.NewTensorDescriptor(dt, tensor.StorageBuffer, tensor.LayoutHWC)
}

func TestHostAllocateUploadRead(t *testing.T) {
	host := NewHostDevice(DefaultHostOptions())
	shape := tensor.NewBHWC(1, 2, 2, 3)

	h, err := host.Allocate(shape, bufferDesc(tensor.Float32))
	require.NoError(t, err)
	assert.NotZero(t, h)

	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	require.NoError(t, host.Upload(h, data))

	got, err := host.Read(h)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	used, peak := host.MemoryStats()
	assert.Equal(t, ByteSize(shape, tensor.Float32), used)
	assert.Equal(t, used, peak)

	require.NoError(t, host.Free(h))
	used, peak = host.MemoryStats()
	assert.Zero(t, used)
	assert.Equal(t, ByteSize(shape, tensor.Float32), peak)
}

func TestHostFloat16Storage(t *testing.T) {
	host := NewHostDevice(DefaultHostOptions())
	shape := tensor.NewBHWC(1, 1, 1, 5)

	h, err := host.Allocate(shape, bufferDesc(tensor.Float16))
	require.NoError(t, err)

	require.NoError(t, host.Upload(h, []float32{0.5, -1, 2, 0.1, 65504}))
	got, err := host.Read(h)
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), got[0])
	assert.Equal(t, float32(-1), got[1])
	assert.Equal(t, float32(2), got[2])
	assert.InDelta(t, 0.1, got[3], 1e-4)
	assert.Equal(t, float32(65504), got[4])

	used, _ := host.MemoryStats()
	assert.Equal(t, uint64(2*4*2), used, "two slices of four half lanes")
}

func TestHostErrors(t *testing.T) {
	opts := DefaultHostOptions()
	opts.MemoryBudget = 64
	host := NewHostDevice(opts)

	_, err := host.Allocate(tensor.NewBHWC(1, 0, 1, 1), bufferDesc(tensor.Float32))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = host.Allocate(tensor.NewBHWC(1, 1, 1, 32), bufferDesc(tensor.Float32))
	assert.ErrorIs(t, err, ErrOutOfMemory)

	h, err := host.Allocate(tensor.NewBHWC(1, 1, 1, 4), bufferDesc(tensor.Float32))
	require.NoError(t, err)
	assert.ErrorIs(t, host.Upload(h, []float32{1}), ErrShapeMismatch)
	assert.ErrorIs(t, host.Upload(Handle(99), []float32{1}), ErrInvalidHandle)

	require.NoError(t, host.Free(h))
	assert.ErrorIs(t, host.Free(h), ErrInvalidHandle, "double free is rejected")
	_, err = host.Read(h)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestHostUnsupportedStorage(t *testing.T) {
	opts := DefaultHostOptions()
	opts.Limits.SupportsTexture3D = false
	host := NewHostDevice(opts)

	desc := tensor.NewTensorDescriptor(tensor.Float32, tensor.StorageTexture3D, tensor.LayoutHWC)
	_, err := host.Allocate(tensor.NewBHWC(1, 2, 2, 8), desc)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestHostUploadHook(t *testing.T) {
	boom := errors.New("boom")
	opts := DefaultHostOptions()
	opts.UploadHook = func(Handle, []float32) error { return boom }
	host := NewHostDevice(opts)

	h, err := host.Allocate(tensor.NewBHWC(1, 1, 1, 1), bufferDesc(tensor.Float32))
	require.NoError(t, err)
	assert.ErrorIs(t, host.Upload(h, []float32{1}), boom)
}

func TestHostCapabilities(t *testing.T) {
	opts := DefaultHostOptions()
	opts.Vendor = VendorPowerVR
	host := NewHostDevice(opts)
	assert.True(t, host.IsPowerVR())
	assert.Equal(t, VendorPowerVR, host.Vendor())

	ctx := host.CreationContext()
	assert.Same(t, host, ctx.Device)
	assert.Same(t, host, ctx.Context)
	assert.Same(t, host, ctx.Queue)

	assert.False(t, NewHostDevice(DefaultHostOptions()).IsPowerVR())
}

func TestVendorFromPCI(t *testing.T) {
	assert.Equal(t, VendorPowerVR, VendorFromPCI(0x1010))
	assert.Equal(t, VendorNvidia, VendorFromPCI(0x10DE))
	assert.Equal(t, VendorUnknown, VendorFromPCI(0xFFFF))
	assert.Equal(t, "PowerVR", VendorPowerVR.String())
}
