package device

import (
	"math"

	"github.com/samber/lo"
	"github.com/x448/float16"

	"github.com/born-ml/kernelgen/internal/parallel"
	"github.com/born-ml/kernelgen/internal/tensor"
)

// PackSlices lays out BHWC-ordered host data as 4-lane slices, the way
// device tensors store channels. Lanes past C are zero.
// Element (b, y, x, c) lands at ((((c/4)*H+y)*W+x)*B+b)*4 + c%4.
func PackSlices(shape tensor.BHWC, data []float32) []float32 {
	out := make([]float32, shape.B*shape.H*shape.W*shape.Slices()*4)
	parallel.ForGrid(shape.B, shape.H, packConfig, func(b, y int) {
		for x := 0; x < shape.W; x++ {
			for c := 0; c < shape.C; c++ {
				out[sliceIndex(shape, b, y, x, c)] = data[((b*shape.H+y)*shape.W+x)*shape.C+c]
			}
		}
	})
	return out
}

// UnpackSlices is the inverse of PackSlices.
func UnpackSlices(shape tensor.BHWC, packed []float32) []float32 {
	out := make([]float32, shape.NumElements())
	parallel.ForGrid(shape.B, shape.H, packConfig, func(b, y int) {
		for x := 0; x < shape.W; x++ {
			for c := 0; c < shape.C; c++ {
				out[((b*shape.H+y)*shape.W+x)*shape.C+c] = packed[sliceIndex(shape, b, y, x, c)]
			}
		}
	})
	return out
}

// packConfig splits packing by (batch, row); rows write disjoint lanes.
var packConfig = parallel.DefaultConfig()

func sliceIndex(shape tensor.BHWC, b, y, x, c int) int {
	return ((((c/4)*shape.H+y)*shape.W+x)*shape.B+b)*4 + c%4
}

// ToFloat16 narrows values to half precision.
func ToFloat16(values []float32) []float16.Float16 {
	return lo.Map(values, func(v float32, _ int) float16.Float16 {
		return float16.Fromfloat32(v)
	})
}

// FromFloat16 widens half precision values.
func FromFloat16(values []float16.Float16) []float32 {
	return lo.Map(values, func(v float16.Float16, _ int) float32 {
		return v.Float32()
	})
}

// EncodeBytes packs and encodes values as little-endian device bytes of type dt.
func EncodeBytes(shape tensor.BHWC, dt tensor.DataType, data []float32) []byte {
	packed := PackSlices(shape, data)
	out := make([]byte, 0, len(packed)*dt.Size())
	switch dt {
	case tensor.Float16:
		for _, h := range ToFloat16(packed) {
			bits := h.Bits()
			out = append(out, byte(bits), byte(bits>>8))
		}
	default:
		for _, v := range packed {
			bits := math.Float32bits(v)
			out = append(out, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
		}
	}
	return out
}

// DecodeBytes is the inverse of EncodeBytes.
func DecodeBytes(shape tensor.BHWC, dt tensor.DataType, raw []byte) []float32 {
	n := shape.B * shape.H * shape.W * shape.Slices() * 4
	packed := make([]float32, n)
	switch dt {
	case tensor.Float16:
		for i := range packed {
			packed[i] = float16.Frombits(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8).Float32()
		}
	default:
		for i := range packed {
			bits := uint32(raw[4*i]) | uint32(raw[4*i+1])<<8 | uint32(raw[4*i+2])<<16 | uint32(raw[4*i+3])<<24
			packed[i] = math.Float32frombits(bits)
		}
	}
	return UnpackSlices(shape, packed)
}
