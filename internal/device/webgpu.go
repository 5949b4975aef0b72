//go:build windows

package device

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"

	"github.com/born-ml/kernelgen/internal/tensor"
)

// maxStorageBufferBindingSize is the WebGPU default limit for a storage binding.
const maxStorageBufferBindingSize = 128 << 20

// tensorUsage is the usage of every tensor buffer.
const tensorUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

// webgpuBuffer is the payload of a WebGPU tensor.
type webgpuBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

// WebGPUDevice allocates device tensors as WebGPU storage buffers.
type WebGPUDevice struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo *wgpu.AdapterInfo
	vendor      Vendor

	registry *Registry
	pool     *BufferPool
	mu       sync.Mutex
}

// NewWebGPUDevice requests the default high performance adapter and a device on it.
// Returns an error if WebGPU is not available or initialization fails.
func NewWebGPUDevice() (dev *WebGPUDevice, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			dev = nil
			err = errors.Wrapf(ErrUnavailable, "webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, errors.Wrapf(ErrUnavailable, "webgpu: failed to request adapter: %v", adapterErr)
	}

	adapterInfo := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, errors.Wrapf(ErrUnavailable, "webgpu: failed to request device: %v", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, errors.Wrap(ErrUnavailable, "webgpu: failed to get queue")
	}

	return &WebGPUDevice{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: &adapterInfo,
		vendor:      VendorFromPCI(adapterInfo.VendorID),
		registry:    NewRegistry(),
		pool:        NewBufferPool(device),
	}, nil
}

// CreationContext returns a creation context backed entirely by d.
func (d *WebGPUDevice) CreationContext() CreationContext {
	return CreationContext{Context: d, Device: d, Queue: d}
}

// Name returns the adapter name.
func (d *WebGPUDevice) Name() string {
	if d.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", d.adapterInfo.Name, d.adapterInfo.VendorName)
	}
	return "WebGPU"
}

// Vendor implements Device.
func (d *WebGPUDevice) Vendor() Vendor { return d.vendor }

// IsPowerVR implements Device.
func (d *WebGPUDevice) IsPowerVR() bool { return d.vendor == VendorPowerVR }

// SupportsFP16 implements Device.
func (d *WebGPUDevice) SupportsFP16() bool { return false }

// Limits implements Device. Compute shaders only see storage buffers.
func (d *WebGPUDevice) Limits() Limits {
	return Limits{MaxBufferSize: maxStorageBufferBindingSize}
}

// Allocate implements Context.
func (d *WebGPUDevice) Allocate(shape tensor.BHWC, desc tensor.TensorDescriptor) (Handle, error) {
	if err := shape.Validate(); err != nil {
		return 0, errors.Wrap(ErrShapeMismatch, err.Error())
	}
	if desc.StorageType != tensor.StorageBuffer || !CanCreateTensorWithShape(d, shape, desc) {
		return 0, errors.Wrapf(ErrUnsupported, "%s %s tensor of shape %v",
			desc.StorageType, desc.DataType, shape)
	}

	// WebGPU buffer sizes must be a multiple of 4.
	size := (ByteSize(shape, desc.DataType) + 3) &^ 3

	buffer := d.pool.Acquire(size, tensorUsage)
	h := d.registry.Register(shape, desc, &webgpuBuffer{buffer: buffer, size: size})
	slog.Debug("webgpu tensor allocated", "handle", h, "shape", shape.String(), "bytes", size)
	return h, nil
}

// Upload implements Queue.
func (d *WebGPUDevice) Upload(h Handle, data []float32) error {
	t, ok := d.registry.Lookup(h)
	if !ok {
		return errors.Wrapf(ErrInvalidHandle, "upload to handle %d", h)
	}
	if len(data) != t.Shape.NumElements() {
		return errors.Wrapf(ErrShapeMismatch, "tensor %v holds %d values, got %d",
			t.Shape, t.Shape.NumElements(), len(data))
	}

	buf := t.Payload().(*webgpuBuffer)
	bytes := EncodeBytes(t.Shape, t.Descriptor.DataType, data)
	size := uint64(len(bytes)+3) &^ 3

	d.mu.Lock()
	defer d.mu.Unlock()

	// Storage buffers can't be mapped directly; write through a staging buffer.
	staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageCopySrc,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	if staging == nil {
		return errors.Wrapf(ErrTransfer, "staging buffer of %d bytes for handle %d", size, h)
	}
	defer staging.Release()

	mappedPtr := staging.GetMappedRange(0, size)
	if mappedPtr == nil {
		staging.Unmap()
		return errors.Wrapf(ErrTransfer, "mapping staging buffer for handle %d", h)
	}
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, bytes)
	staging.Unmap()

	// The fence receives the first word of the tensor after the upload copy;
	// mapping it waits until the queue has executed both copies.
	fence := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  4,
	})
	if fence == nil {
		return errors.Wrapf(ErrTransfer, "fence buffer for handle %d", h)
	}
	defer fence.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, buf.buffer, 0, size)
	encoder.CopyBufferToBuffer(buf.buffer, 0, fence, 0, 4)
	cmdBuffer := encoder.Finish(nil)
	d.queue.Submit(cmdBuffer)

	if err := fence.MapAsync(d.device, wgpu.MapModeRead, 0, 4); err != nil {
		return errors.Wrapf(ErrTransfer, "waiting for upload to handle %d: %v", h, err)
	}
	fence.Unmap()
	return nil
}

// Read copies a tensor back to the host and returns it in BHWC order.
func (d *WebGPUDevice) Read(h Handle) ([]float32, error) {
	t, ok := d.registry.Lookup(h)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidHandle, "read handle %d", h)
	}
	buf := t.Payload().(*webgpuBuffer)

	d.mu.Lock()
	defer d.mu.Unlock()

	staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  buf.size,
	})
	if staging == nil {
		return nil, errors.Wrapf(ErrTransfer, "staging buffer of %d bytes for handle %d", buf.size, h)
	}
	defer staging.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(buf.buffer, 0, staging, 0, buf.size)
	cmdBuffer := encoder.Finish(nil)
	d.queue.Submit(cmdBuffer)

	if err := staging.MapAsync(d.device, wgpu.MapModeRead, 0, buf.size); err != nil {
		return nil, errors.Wrapf(ErrTransfer, "mapping read-back of handle %d: %v", h, err)
	}
	mappedPtr := staging.GetMappedRange(0, buf.size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	raw := append([]byte(nil), unsafe.Slice((*byte)(mappedPtr), buf.size)...)
	staging.Unmap()

	return DecodeBytes(t.Shape, t.Descriptor.DataType, raw), nil
}

// Free implements Context.
func (d *WebGPUDevice) Free(h Handle) error {
	t, err := d.registry.Free(h)
	if err != nil {
		return err
	}
	buf := t.Payload().(*webgpuBuffer)
	d.pool.Release(buf.buffer, buf.size, tensorUsage)
	return nil
}

// Lookup implements Context.
func (d *WebGPUDevice) Lookup(h Handle) (*Tensor, bool) {
	return d.registry.Lookup(h)
}

// Release releases all WebGPU resources.
// Must be called when the device is no longer needed.
func (d *WebGPUDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pool != nil {
		d.pool.Clear()
		d.pool = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// IsWebGPUAvailable checks if WebGPU is available on this system.
func IsWebGPUAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

var (
	_ Device  = (*WebGPUDevice)(nil)
	_ Context = (*WebGPUDevice)(nil)
	_ Queue   = (*WebGPUDevice)(nil)
)
