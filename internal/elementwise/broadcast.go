package elementwise

import (
	"fmt"
	"strings"

	"github.com/born-ml/kernelgen/internal/tensor"
)

// Coordinate tokens understood by the kernel fusion framework.
const (
	coordX     = "X_COORD"
	coordY     = "Y_COORD"
	coordS     = "S_COORD"
	coordFixed = "0"
)

// BroadcastSettings marks the axes along which the second operand has extent
// one and is read from coordinate zero instead of the current element.
type BroadcastSettings struct {
	Width    bool
	Height   bool
	Channels bool
}

// BroadcastFromShape broadcasts every axis of shape whose extent is 1.
func BroadcastFromShape(shape tensor.BHWC) BroadcastSettings {
	return BroadcastSettings{
		Width:    shape.W == 1,
		Height:   shape.H == 1,
		Channels: shape.C == 1,
	}
}

// Coords returns the x, y and slice coordinates used to read the second operand.
func (b BroadcastSettings) Coords() (x, y, s string) {
	x, y, s = coordX, coordY, coordS
	if b.Width {
		x = coordFixed
	}
	if b.Height {
		y = coordFixed
	}
	if b.Channels {
		s = coordFixed
	}
	return x, y, s
}

// String implements fmt.Stringer.
func (b BroadcastSettings) String() string {
	return fmt.Sprintf("width=%t height=%t channels=%t", b.Width, b.Height, b.Channels)
}

// readSecond renders the read of the second operand into secondValue.
// A channel-broadcast operand only has lane x filled, so x is copied into
// y, z and w before any binary statement uses it.
func readSecond(b BroadcastSettings) string {
	x, y, s := b.Coords()

	var sb strings.Builder
	fmt.Fprintf(&sb, "FLT4 %s = args.%s.Read(%s, %s, %s);\n", secondValue, secondTensor, x, y, s)
	if b.Channels {
		for _, lane := range []string{"y", "z", "w"} {
			fmt.Fprintf(&sb, "  %[1]s.%[2]s = %[1]s.x;\n", secondValue, lane)
		}
	}
	return sb.String()
}
