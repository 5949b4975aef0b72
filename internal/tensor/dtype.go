// Package tensor provides the tensor-level types shared by kernel generation:
// data types, calculation precision, BHWC shapes, storage descriptors and
// host-side constant tensors.
package tensor

// DataType represents the on-device element type of a tensor.
type DataType int

// Supported data types for device tensors.
const (
	Float32 DataType = iota
	Float16
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	default:
		return "unknown"
	}
}

// CalculationsPrecision selects the numeric precision used by generated code.
type CalculationsPrecision int

// Supported calculation precisions.
const (
	// F32 computes and stores in full precision.
	F32 CalculationsPrecision = iota
	// F32F16 stores in half precision and accumulates in full precision.
	F32F16
	// F16 computes and stores in half precision.
	F16
)

// String returns a human-readable name for the precision.
func (p CalculationsPrecision) String() string {
	switch p {
	case F32:
		return "f32"
	case F32F16:
		return "f32_f16"
	case F16:
		return "f16"
	default:
		return "unknown"
	}
}

// IsFull reports whether the precision evaluates in full precision.
func (p CalculationsPrecision) IsFull() bool {
	return p == F32
}

// DataType returns the storage data type implied by the precision.
func (p CalculationsPrecision) DataType() DataType {
	if p == F32 {
		return Float32
	}
	return Float16
}

// ParsePrecision converts a precision name ("f32", "f32_f16", "f16") to its value.
func ParsePrecision(name string) (CalculationsPrecision, bool) {
	switch name {
	case "f32":
		return F32, true
	case "f32_f16":
		return F32F16, true
	case "f16":
		return F16, true
	default:
		return F32, false
	}
}
