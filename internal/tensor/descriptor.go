package tensor

import (
	"maps"
)

// StorageType is the on-device memory object kind backing a tensor.
type StorageType int

// Supported storage types.
const (
	StorageUnknown StorageType = iota
	StorageBuffer
	StorageImageBuffer
	StorageTexture2D
	StorageTextureArray
	StorageTexture3D
	StorageSingleTexture2D
)

// String returns a human-readable storage type name.
func (s StorageType) String() string {
	switch s {
	case StorageBuffer:
		return "BUFFER"
	case StorageImageBuffer:
		return "IMAGE_BUFFER"
	case StorageTexture2D:
		return "TEXTURE_2D"
	case StorageTextureArray:
		return "TEXTURE_ARRAY"
	case StorageTexture3D:
		return "TEXTURE_3D"
	case StorageSingleTexture2D:
		return "SINGLE_TEXTURE_2D"
	default:
		return "UNKNOWN"
	}
}

// Layout is the logical axis order of a tensor.
type Layout int

// Supported layouts.
const (
	LayoutUnknown Layout = iota
	LayoutHWC
	LayoutBHWC
	LayoutLinear
)

// String returns a human-readable layout name.
func (l Layout) String() string {
	switch l {
	case LayoutHWC:
		return "HWC"
	case LayoutBHWC:
		return "BHWC"
	case LayoutLinear:
		return "LINEAR"
	default:
		return "UNKNOWN"
	}
}

// StateBatchedWidth is the descriptor state variable marking batch folded into width.
const StateBatchedWidth = "BatchedWidth"

// TensorDescriptor describes how a tensor is typed and stored on the device.
type TensorDescriptor struct {
	DataType    DataType
	StorageType StorageType
	Layout      Layout

	stateVars map[string]string
}

// NewTensorDescriptor returns a descriptor with no state variables.
func NewTensorDescriptor(dt DataType, st StorageType, layout Layout) TensorDescriptor {
	return TensorDescriptor{DataType: dt, StorageType: st, Layout: layout}
}

// SetStateVar records a code generation hint on the descriptor.
func (d *TensorDescriptor) SetStateVar(key, value string) {
	if d.stateVars == nil {
		d.stateVars = make(map[string]string)
	}
	d.stateVars[key] = value
}

// StateVar returns the hint stored under key.
func (d TensorDescriptor) StateVar(key string) (string, bool) {
	v, ok := d.stateVars[key]
	return v, ok
}

// Clone returns a deep copy of the descriptor.
func (d TensorDescriptor) Clone() TensorDescriptor {
	c := d
	c.stateVars = maps.Clone(d.stateVars)
	return c
}

// OperationDef is what the kernel fusion framework tells an operation about
// the kernel it is going to be embedded in.
type OperationDef struct {
	Precision  CalculationsPrecision
	SrcTensors []TensorDescriptor
	DstTensors []TensorDescriptor
}

// IsBatchSupported reports whether any source or destination uses a batched layout.
func (d OperationDef) IsBatchSupported() bool {
	for _, t := range d.SrcTensors {
		if t.Layout == LayoutBHWC {
			return true
		}
	}
	for _, t := range d.DstTensors {
		if t.Layout == LayoutBHWC {
			return true
		}
	}
	return false
}

// DataType returns the data type of the primary source tensor.
func (d OperationDef) DataType() DataType {
	if len(d.SrcTensors) == 0 {
		return d.Precision.DataType()
	}
	return d.SrcTensors[0].DataType
}

// PrimaryStorageType returns the storage type of the primary source tensor.
func (d OperationDef) PrimaryStorageType() StorageType {
	if len(d.SrcTensors) == 0 {
		return StorageUnknown
	}
	return d.SrcTensors[0].StorageType
}
