// Package device defines the device, context and queue collaborators used when
// an operation needs real device memory, plus an in-memory host implementation
// and a WebGPU implementation.
package device

import (
	"github.com/born-ml/kernelgen/internal/tensor"
)

// Vendor identifies the GPU vendor family of a device.
type Vendor int

// Known vendors.
const (
	VendorUnknown Vendor = iota
	VendorAMD
	VendorApple
	VendorARM
	VendorIntel
	VendorNvidia
	VendorPowerVR
	VendorQualcomm
)

// String returns a human-readable vendor name.
func (v Vendor) String() string {
	switch v {
	case VendorAMD:
		return "AMD"
	case VendorApple:
		return "Apple"
	case VendorARM:
		return "ARM"
	case VendorIntel:
		return "Intel"
	case VendorNvidia:
		return "NVIDIA"
	case VendorPowerVR:
		return "PowerVR"
	case VendorQualcomm:
		return "Qualcomm"
	default:
		return "Unknown"
	}
}

// VendorFromPCI maps a PCI vendor id to a Vendor.
func VendorFromPCI(id uint32) Vendor {
	switch id {
	case 0x1002, 0x1022:
		return VendorAMD
	case 0x106B:
		return VendorApple
	case 0x13B5:
		return VendorARM
	case 0x8086:
		return VendorIntel
	case 0x10DE:
		return VendorNvidia
	case 0x1010:
		return VendorPowerVR
	case 0x5143:
		return VendorQualcomm
	default:
		return VendorUnknown
	}
}

// Limits describes which storage types a device can create and how large.
// A zero size limit means unlimited.
type Limits struct {
	SupportsImageBuffer  bool
	SupportsTexture2D    bool
	SupportsTextureArray bool
	SupportsTexture3D    bool

	MaxBufferSize         uint64
	MaxImageBufferWidth   int
	MaxImage2DWidth       int
	MaxImage2DHeight      int
	MaxImage2DArrayLayers int
	MaxImage3DWidth       int
	MaxImage3DHeight      int
	MaxImage3DDepth       int
}

// Device exposes the capability queries kernel generation depends on.
type Device interface {
	Vendor() Vendor
	// IsPowerVR reports the PowerVR family, which needs full precision
	// scalar arguments.
	IsPowerVR() bool
	SupportsFP16() bool
	Limits() Limits
}

// Handle identifies a device tensor in a Registry. The zero Handle is never valid.
type Handle uint64

// Tensor is a device-resident tensor tracked by a Registry.
type Tensor struct {
	Handle     Handle
	Shape      tensor.BHWC
	Descriptor tensor.TensorDescriptor

	payload any
}

// Context allocates and releases device tensors.
type Context interface {
	Allocate(shape tensor.BHWC, desc tensor.TensorDescriptor) (Handle, error)
	Free(h Handle) error
	Lookup(h Handle) (*Tensor, bool)
}

// Queue transfers host data into device tensors.
type Queue interface {
	// Upload writes data, given in HWC order, into the tensor. It blocks
	// until the device has executed the transfer or reports why it could not.
	Upload(h Handle, data []float32) error
}

// CreationContext bundles the collaborators used when constructing operations
// that touch device memory.
type CreationContext struct {
	Context Context
	Device  Device
	Queue   Queue
}

// ByteSize returns the number of bytes a tensor occupies on the device once its
// channels are padded to whole 4-lane slices.
func ByteSize(shape tensor.BHWC, dt tensor.DataType) uint64 {
	return uint64(shape.B*shape.H*shape.W*shape.Slices()*4) * uint64(dt.Size())
}
