package tensor

import (
	"fmt"
)

// BHWC is the 4D logical shape of a device tensor: batch, height, width, channels.
type BHWC struct {
	B, H, W, C int
}

// NewBHWC returns a BHWC shape.
func NewBHWC(b, h, w, c int) BHWC {
	return BHWC{B: b, H: h, W: w, C: c}
}

// NumElements returns the total number of elements in the shape.
func (s BHWC) NumElements() int {
	return s.B * s.H * s.W * s.C
}

// Slices returns the number of 4-channel slices needed to hold C channels.
func (s BHWC) Slices() int {
	return DivideRoundUp(s.C, 4)
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s BHWC) Validate() error {
	dims := [4]int{s.B, s.H, s.W, s.C}
	for i, dim := range dims {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// String implements fmt.Stringer.
func (s BHWC) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", s.B, s.H, s.W, s.C)
}

// HWC is the shape of a planar host tensor.
type HWC struct {
	H, W, C int
}

// Linear is the shape of a one-dimensional host tensor.
type Linear struct {
	V int
}

// LinearTensor is a host-side float32 vector, typically per-channel constants.
type LinearTensor struct {
	Shape Linear
	Data  []float32
}

// NewLinearTensor wraps data as a linear tensor of len(data) elements.
func NewLinearTensor(data []float32) LinearTensor {
	return LinearTensor{Shape: Linear{V: len(data)}, Data: data}
}

// HWCTensor is a host-side float32 tensor stored in HWC order.
type HWCTensor struct {
	Shape HWC
	Data  []float32
}

// NewHWCTensor wraps data as an HWC tensor, checking that the sizes agree.
func NewHWCTensor(shape HWC, data []float32) (HWCTensor, error) {
	if shape.H <= 0 || shape.W <= 0 || shape.C <= 0 {
		return HWCTensor{}, fmt.Errorf("invalid HWC shape %v", shape)
	}
	if n := shape.H * shape.W * shape.C; n != len(data) {
		return HWCTensor{}, fmt.Errorf("HWC shape %v needs %d values, got %d", shape, n, len(data))
	}
	return HWCTensor{Shape: shape, Data: data}, nil
}

// DivideRoundUp returns ceil(n / d) for positive d.
func DivideRoundUp(n, d int) int {
	return (n + d - 1) / d
}
