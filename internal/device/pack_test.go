package device

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/born-ml/kernelgen/internal/tensor"
)

func TestPackSlicesPadsChannels(t *testing.T) {
	shape := tensor.NewBHWC(1, 1, 2, 5)
	data := []float32{
		1, 2, 3, 4, 5, // x = 0
		6, 7, 8, 9, 10, // x = 1
	}

	packed := PackSlices(shape, data)
	want := []float32{
		1, 2, 3, 4, // slice 0, x = 0
		6, 7, 8, 9, // slice 0, x = 1
		5, 0, 0, 0, // slice 1, x = 0
		10, 0, 0, 0, // slice 1, x = 1
	}
	assert.Equal(t, want, packed)
	assert.Equal(t, data, UnpackSlices(shape, packed))
}

func TestPackSlicesBatch(t *testing.T) {
	shape := tensor.NewBHWC(2, 1, 1, 2)
	data := []float32{1, 2, 3, 4}
	packed := PackSlices(shape, data)
	assert.Equal(t, []float32{1, 2, 0, 0, 3, 4, 0, 0}, packed)
	assert.Equal(t, data, UnpackSlices(shape, packed))
}

func TestEncodeBytes(t *testing.T) {
	shape := tensor.NewBHWC(1, 1, 1, 2)

	f32 := EncodeBytes(shape, tensor.Float32, []float32{1.5, -2})
	require.Len(t, f32, 16)
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(f32[0:])))
	assert.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(f32[4:])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(f32[8:]))

	f16 := EncodeBytes(shape, tensor.Float16, []float32{1.5, -2})
	require.Len(t, f16, 8)
	assert.Equal(t, float32(1.5), float16.Frombits(binary.LittleEndian.Uint16(f16[0:])).Float32())
	assert.Equal(t, float32(-2), float16.Frombits(binary.LittleEndian.Uint16(f16[2:])).Float32())
}

func TestFloat16RoundTrip(t *testing.T) {
	values := []float32{0, 1, -0.5, 1024}
	assert.Equal(t, values, FromFloat16(ToFloat16(values)))
}

func TestPackSlicesRoundTripLarge(t *testing.T) {
	shape := tensor.NewBHWC(2, 64, 3, 6)
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = float32(i)
	}
	packed := PackSlices(shape, data)
	require.Len(t, packed, 2*64*3*2*4)
	assert.Equal(t, data, UnpackSlices(shape, packed))
}

func TestDecodeBytesInvertsEncode(t *testing.T) {
	shape := tensor.NewBHWC(1, 2, 1, 5)
	data := []float32{1, -2, 3.5, 0, 8, 0.25, 6, -7, 9, 10}
	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float16} {
		raw := EncodeBytes(shape, dt, data)
		assert.Equal(t, data, DecodeBytes(shape, dt, raw), dt.String())
	}
}
