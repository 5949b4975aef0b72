package device

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/born-ml/kernelgen/internal/tensor"
)

// HostOptions configures a HostDevice.
type HostOptions struct {
	Vendor Vendor
	FP16   bool
	Limits Limits

	// MemoryBudget caps the bytes that may be allocated at once. 0 = no limit.
	MemoryBudget uint64

	// UploadHook, when set, runs before every upload; a non-nil error aborts it.
	UploadHook func(h Handle, data []float32) error
}

// DefaultHostOptions returns options describing a capable generic GPU.
func DefaultHostOptions() HostOptions {
	return HostOptions{
		Vendor: VendorUnknown,
		FP16:   true,
		Limits: Limits{
			SupportsImageBuffer:   true,
			SupportsTexture2D:     true,
			SupportsTextureArray:  true,
			SupportsTexture3D:     true,
			MaxBufferSize:         1 << 30,
			MaxImageBufferWidth:   1 << 27,
			MaxImage2DWidth:       16384,
			MaxImage2DHeight:      16384,
			MaxImage2DArrayLayers: 2048,
			MaxImage3DWidth:       2048,
			MaxImage3DHeight:      2048,
			MaxImage3DDepth:       2048,
		},
	}
}

// hostBuffer is the payload of a host tensor: exactly one of f32/f16 is set,
// holding the packed slice layout.
type hostBuffer struct {
	f32  []float32
	f16  []float16.Float16
	size uint64
}

// HostDevice keeps device tensors in host memory. It implements Device,
// Context and Queue, and is used wherever no real GPU is needed.
type HostDevice struct {
	opts     HostOptions
	registry *Registry

	mu   sync.Mutex
	used uint64
	peak uint64
}

// NewHostDevice creates a host device.
func NewHostDevice(opts HostOptions) *HostDevice {
	return &HostDevice{opts: opts, registry: NewRegistry()}
}

// CreationContext returns a creation context backed entirely by d.
func (d *HostDevice) CreationContext() CreationContext {
	return CreationContext{Context: d, Device: d, Queue: d}
}

// Vendor implements Device.
func (d *HostDevice) Vendor() Vendor { return d.opts.Vendor }

// IsPowerVR implements Device.
func (d *HostDevice) IsPowerVR() bool { return d.opts.Vendor == VendorPowerVR }

// SupportsFP16 implements Device.
func (d *HostDevice) SupportsFP16() bool { return d.opts.FP16 }

// Limits implements Device.
func (d *HostDevice) Limits() Limits { return d.opts.Limits }

// Registry returns the registry tracking d's tensors.
func (d *HostDevice) Registry() *Registry { return d.registry }

// Allocate implements Context.
func (d *HostDevice) Allocate(shape tensor.BHWC, desc tensor.TensorDescriptor) (Handle, error) {
	if err := shape.Validate(); err != nil {
		return 0, errors.Wrap(ErrShapeMismatch, err.Error())
	}
	if !CanCreateTensorWithShape(d, shape, desc) {
		return 0, errors.Wrapf(ErrUnsupported, "%s %s tensor of shape %v",
			desc.StorageType, desc.DataType, shape)
	}

	size := ByteSize(shape, desc.DataType)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.opts.MemoryBudget > 0 && d.used+size > d.opts.MemoryBudget {
		return 0, errors.Wrapf(ErrOutOfMemory, "requested %d bytes, %d of %d in use",
			size, d.used, d.opts.MemoryBudget)
	}

	n := int(size) / desc.DataType.Size()
	buf := &hostBuffer{size: size}
	if desc.DataType == tensor.Float16 {
		buf.f16 = make([]float16.Float16, n)
	} else {
		buf.f32 = make([]float32, n)
	}

	d.used += size
	if d.used > d.peak {
		d.peak = d.used
	}
	h := d.registry.Register(shape, desc, buf)
	slog.Debug("host tensor allocated", "handle", h, "shape", shape.String(), "bytes", size)
	return h, nil
}

// Upload implements Queue.
func (d *HostDevice) Upload(h Handle, data []float32) error {
	t, ok := d.registry.Lookup(h)
	if !ok {
		return errors.Wrapf(ErrInvalidHandle, "upload to handle %d", h)
	}
	if len(data) != t.Shape.NumElements() {
		return errors.Wrapf(ErrShapeMismatch, "tensor %v holds %d values, got %d",
			t.Shape, t.Shape.NumElements(), len(data))
	}
	if d.opts.UploadHook != nil {
		if err := d.opts.UploadHook(h, data); err != nil {
			return err
		}
	}

	packed := PackSlices(t.Shape, data)

	d.mu.Lock()
	defer d.mu.Unlock()

	buf := t.payload.(*hostBuffer)
	if buf.f16 != nil {
		buf.f16 = ToFloat16(packed)
	} else {
		buf.f32 = packed
	}
	return nil
}

// Free implements Context.
func (d *HostDevice) Free(h Handle) error {
	t, err := d.registry.Free(h)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.used -= t.payload.(*hostBuffer).size
	return nil
}

// Lookup implements Context.
func (d *HostDevice) Lookup(h Handle) (*Tensor, bool) {
	return d.registry.Lookup(h)
}

// Read returns the contents of a tensor in BHWC order, widened to float32.
func (d *HostDevice) Read(h Handle) ([]float32, error) {
	t, ok := d.registry.Lookup(h)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidHandle, "read handle %d", h)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	buf := t.payload.(*hostBuffer)
	packed := buf.f32
	if buf.f16 != nil {
		packed = FromFloat16(buf.f16)
	}
	return UnpackSlices(t.Shape, packed), nil
}

// MemoryStats returns the bytes currently allocated and the peak.
func (d *HostDevice) MemoryStats() (used, peak uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.used, d.peak
}

var (
	_ Device  = (*HostDevice)(nil)
	_ Context = (*HostDevice)(nil)
	_ Queue   = (*HostDevice)(nil)
)
