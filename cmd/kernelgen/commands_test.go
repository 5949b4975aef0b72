package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/kernelgen/elementwise"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionAndOps(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "kernelgen "+version+"\n", out)

	out, err = run(t, "ops")
	require.NoError(t, err)
	assert.Contains(t, out, "  hard_swish\n")
	assert.Contains(t, out, "  squared_diff\n")
}

func TestUnary(t *testing.T) {
	out, err := run(t, "unary", "abs")
	require.NoError(t, err)
	assert.Equal(t, "in_out_value = fabs(in_out_value);\n", out)

	out, err = run(t, "unary", "sigmoid", "--precision", "f16")
	require.NoError(t, err)
	assert.Contains(t, out, "in_out_value.w = convert_half(")

	_, err = run(t, "unary", "mul")
	assert.Error(t, err)
	_, err = run(t, "unary", "gelu")
	assert.ErrorIs(t, err, elementwise.ErrUnknownOperation)
	_, err = run(t, "unary", "abs", "--precision", "f64")
	assert.Error(t, err)
}

func TestScalar(t *testing.T) {
	out, err := run(t, "scalar", "mul", "2.5", "--precision", "f16")
	require.NoError(t, err)
	assert.Contains(t, out, "in_out_value *= args.scalar;\n")
	assert.Contains(t, out, "scalar half = 2.5")

	out, err = run(t, "scalar", "mul", "2.5", "--precision", "f16", "--powervr")
	require.NoError(t, err)
	assert.Contains(t, out, "scalar float = 2.5")

	_, err = run(t, "scalar", "mul", "two")
	assert.Error(t, err)
}

func TestBinary(t *testing.T) {
	out, err := run(t, "binary", "add", "--broadcast", "width,channels")
	require.NoError(t, err)
	assert.Contains(t, out, "args.second_tensor.Read(0, Y_COORD, 0);\n")
	assert.Contains(t, out, "second_val.w = second_val.x;\n")
	assert.Contains(t, out, "second_tensor object_ref declared")

	_, err = run(t, "binary", "add", "--broadcast", "depth")
	assert.Error(t, err)
}

func TestConst(t *testing.T) {
	out, err := run(t, "const", "mul", "--values", "1,2,3")
	require.NoError(t, err)
	assert.Contains(t, out, "args.second_tensor.Read(0, 0, S_COORD);\n")
	assert.Contains(t, out, "second_tensor object resolved")

	out, err = run(t, "const", "sub", "--values", "1,2", "--hwc", "1,2,1")
	require.NoError(t, err)
	assert.Contains(t, out, "Read(X_COORD, 0, 0)")

	_, err = run(t, "const", "sub", "--values", "1,2,3", "--hwc", "1,2,1")
	assert.Error(t, err)
	_, err = run(t, "const", "sub")
	assert.Error(t, err)
}
