package device

import (
	"github.com/born-ml/kernelgen/internal/tensor"
)

// CanCreateTensorWithShape reports whether dev can hold a tensor of the given
// shape with the given descriptor.
func CanCreateTensorWithShape(dev Device, shape tensor.BHWC, desc tensor.TensorDescriptor) bool {
	limits := dev.Limits()
	slices := shape.Slices()
	width := shape.W * shape.B

	switch desc.StorageType {
	case tensor.StorageBuffer:
		size := ByteSize(shape, desc.DataType)
		return limits.MaxBufferSize == 0 || size <= limits.MaxBufferSize
	case tensor.StorageImageBuffer:
		if !limits.SupportsImageBuffer {
			return false
		}
		return fits(width*shape.H*slices, limits.MaxImageBufferWidth)
	case tensor.StorageTexture3D:
		if !limits.SupportsTexture3D {
			return false
		}
		return fits(width, limits.MaxImage3DWidth) &&
			fits(shape.H, limits.MaxImage3DHeight) &&
			fits(slices, limits.MaxImage3DDepth)
	case tensor.StorageTextureArray:
		if !limits.SupportsTextureArray {
			return false
		}
		return fits(width, limits.MaxImage2DWidth) &&
			fits(shape.H, limits.MaxImage2DHeight) &&
			fits(slices, limits.MaxImage2DArrayLayers)
	case tensor.StorageTexture2D:
		if !limits.SupportsTexture2D {
			return false
		}
		return fits(width, limits.MaxImage2DWidth) &&
			fits(shape.H*slices, limits.MaxImage2DHeight)
	case tensor.StorageSingleTexture2D:
		if !limits.SupportsTexture2D || slices != 1 {
			return false
		}
		return fits(width, limits.MaxImage2DWidth) &&
			fits(shape.H, limits.MaxImage2DHeight)
	default:
		return false
	}
}

func fits(n, limit int) bool {
	return limit == 0 || n <= limit
}

// SelectBestStorageType picks a storage type for a tensor of the given shape,
// starting from the preferred one and falling back towards plain buffers.
// The context is accepted so implementations that probe allocation can be
// substituted without changing callers.
func SelectBestStorageType(_ Context, dev Device, shape tensor.BHWC,
	preferred tensor.StorageType, dt tensor.DataType, layout tensor.Layout,
) tensor.StorageType {
	canCreate := func(st tensor.StorageType) bool {
		return CanCreateTensorWithShape(dev, shape, tensor.NewTensorDescriptor(dt, st, layout))
	}
	if preferred != tensor.StorageUnknown && canCreate(preferred) {
		return preferred
	}

	afterTextureArray := func() tensor.StorageType {
		if canCreate(tensor.StorageImageBuffer) {
			return tensor.StorageImageBuffer
		}
		return tensor.StorageBuffer
	}
	afterTexture2D := func() tensor.StorageType {
		if canCreate(tensor.StorageTextureArray) {
			return tensor.StorageTextureArray
		}
		return afterTextureArray()
	}
	afterTexture3D := func() tensor.StorageType {
		if canCreate(tensor.StorageTexture2D) {
			return tensor.StorageTexture2D
		}
		return afterTexture2D()
	}

	switch preferred {
	case tensor.StorageTexture2D, tensor.StorageSingleTexture2D:
		return afterTexture2D()
	case tensor.StorageTextureArray:
		return afterTextureArray()
	case tensor.StorageTexture3D:
		return afterTexture3D()
	default:
		return tensor.StorageBuffer
	}
}
