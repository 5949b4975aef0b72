package elementwise

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernelgen/internal/tensor"
)

func TestBroadcastCoordsAllCombinations(t *testing.T) {
	for mask := 0; mask < 8; mask++ {
		b := BroadcastSettings{
			Width:    mask&1 != 0,
			Height:   mask&2 != 0,
			Channels: mask&4 != 0,
		}
		t.Run(b.String(), func(t *testing.T) {
			wantX, wantY, wantS := "X_COORD", "Y_COORD", "S_COORD"
			if b.Width {
				wantX = "0"
			}
			if b.Height {
				wantY = "0"
			}
			if b.Channels {
				wantS = "0"
			}

			x, y, s := b.Coords()
			assert.Equal(t, wantX, x)
			assert.Equal(t, wantY, y)
			assert.Equal(t, wantS, s)

			code := readSecond(b)
			lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")
			assert.Equal(t,
				fmt.Sprintf("FLT4 second_val = args.second_tensor.Read(%s, %s, %s);", wantX, wantY, wantS),
				lines[0])

			if b.Channels {
				require.Len(t, lines, 4)
				assert.Equal(t, "  second_val.y = second_val.x;", lines[1])
				assert.Equal(t, "  second_val.z = second_val.x;", lines[2])
				assert.Equal(t, "  second_val.w = second_val.x;", lines[3])
			} else {
				assert.Len(t, lines, 1)
			}
		})
	}
}

func TestBroadcastFromShape(t *testing.T) {
	tests := []struct {
		shape tensor.BHWC
		want  BroadcastSettings
	}{
		{tensor.NewBHWC(1, 1, 1, 1), BroadcastSettings{Width: true, Height: true, Channels: true}},
		{tensor.NewBHWC(1, 4, 5, 6), BroadcastSettings{}},
		{tensor.NewBHWC(1, 1, 5, 6), BroadcastSettings{Height: true}},
		{tensor.NewBHWC(1, 4, 1, 6), BroadcastSettings{Width: true}},
		{tensor.NewBHWC(1, 4, 5, 1), BroadcastSettings{Channels: true}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BroadcastFromShape(tt.shape), tt.shape.String())
	}
}

func TestReplicationPrecedesBinaryStatements(t *testing.T) {
	op := NewTwoInput(tensor.OperationDef{Precision: tensor.F32}, Mul, BroadcastSettings{Channels: true})
	code := op.Code()

	replicate := strings.LastIndex(code, "second_val.w = second_val.x;")
	combine := strings.Index(code, "in_out_value *= second_val;")
	require.GreaterOrEqual(t, replicate, 0)
	require.GreaterOrEqual(t, combine, 0)
	assert.Less(t, replicate, combine)
}
