//go:build windows

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernelgen/internal/tensor"
)

func newTestWebGPUDevice(t *testing.T) *WebGPUDevice {
	t.Helper()
	if !IsWebGPUAvailable() {
		t.Skip("WebGPU not available on this system")
	}
	dev, err := NewWebGPUDevice()
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(dev.Release)
	return dev
}

func TestWebGPUAllocateUploadFree(t *testing.T) {
	dev := newTestWebGPUDevice(t)
	t.Logf("adapter: %s (%s)", dev.Name(), dev.Vendor())

	shape := tensor.NewBHWC(1, 1, 1, 3)
	desc := tensor.NewTensorDescriptor(tensor.Float32, tensor.StorageBuffer, tensor.LayoutHWC)

	h, err := dev.Allocate(shape, desc)
	require.NoError(t, err)
	require.NoError(t, dev.Upload(h, []float32{1, 2, 3}))

	// Upload has completed by the time it returns.
	got, err := dev.Read(h)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got)
	assert.ErrorIs(t, dev.Upload(h, []float32{1}), ErrShapeMismatch)

	require.NoError(t, dev.Free(h))
	assert.ErrorIs(t, dev.Free(h), ErrInvalidHandle)

	// The freed buffer is reused for the next allocation of the same size.
	h2, err := dev.Allocate(shape, desc)
	require.NoError(t, err)
	hits, _, _ := dev.pool.Stats()
	assert.Equal(t, uint64(1), hits)
	require.NoError(t, dev.Free(h2))
}

func TestWebGPUOnlyBuffers(t *testing.T) {
	dev := newTestWebGPUDevice(t)

	desc := tensor.NewTensorDescriptor(tensor.Float32, tensor.StorageTexture2D, tensor.LayoutHWC)
	_, err := dev.Allocate(tensor.NewBHWC(1, 2, 2, 4), desc)
	assert.ErrorIs(t, err, ErrUnsupported)

	got := SelectBestStorageType(dev, dev, tensor.NewBHWC(1, 2, 2, 4),
		tensor.StorageTexture2D, tensor.Float32, tensor.LayoutHWC)
	assert.Equal(t, tensor.StorageBuffer, got)
}
