package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernelgen/internal/tensor"
)

func TestRegistryHandles(t *testing.T) {
	r := NewRegistry()
	desc := tensor.NewTensorDescriptor(tensor.Float32, tensor.StorageBuffer, tensor.LayoutHWC)
	desc.SetStateVar(tensor.StateBatchedWidth, "true")

	a := r.Register(tensor.NewBHWC(1, 1, 1, 4), desc, "a")
	b := r.Register(tensor.NewBHWC(1, 2, 2, 4), desc, "b")
	assert.NotEqual(t, a, b)
	assert.NotZero(t, a)
	assert.Equal(t, 2, r.Len())

	ta, ok := r.Lookup(a)
	require.True(t, ok)
	assert.Equal(t, "a", ta.Payload())
	v, _ := ta.Descriptor.StateVar(tensor.StateBatchedWidth)
	assert.Equal(t, "true", v)

	// The registry keeps its own descriptor copy.
	desc.SetStateVar(tensor.StateBatchedWidth, "false")
	v, _ = ta.Descriptor.StateVar(tensor.StateBatchedWidth)
	assert.Equal(t, "true", v)

	require.NoError(t, r.Replace(b, "b2"))
	tb, _ := r.Lookup(b)
	assert.Equal(t, "b2", tb.Payload())

	freed, err := r.Free(a)
	require.NoError(t, err)
	assert.Equal(t, a, freed.Handle)

	_, err = r.Free(a)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.ErrorIs(t, r.Replace(a, nil), ErrInvalidHandle)

	// Handles are never reused.
	c := r.Register(tensor.NewBHWC(1, 1, 1, 1), desc, nil)
	assert.Greater(t, c, b)

	registered, freedCount := r.Stats()
	assert.Equal(t, uint64(3), registered)
	assert.Equal(t, uint64(1), freedCount)
}
