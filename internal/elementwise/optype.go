package elementwise

import (
	"strings"
)

// OperationType identifies a pointwise operation.
type OperationType int

// Supported operations. Unary operations come first, binary after.
const (
	Unknown OperationType = iota

	Abs
	Cos
	Exp
	HardSwish
	Log
	Rsqrt
	Sigmoid
	Sin
	Sqrt
	Square
	Tanh

	Add
	Div
	Maximum
	Minimum
	Mul
	Pow
	SquaredDiff
	Sub
)

var operationNames = map[OperationType]string{
	Abs:         "abs",
	Cos:         "cos",
	Exp:         "exp",
	HardSwish:   "hard_swish",
	Log:         "log",
	Rsqrt:       "rsqrt",
	Sigmoid:     "sigmoid",
	Sin:         "sin",
	Sqrt:        "sqrt",
	Square:      "square",
	Tanh:        "tanh",
	Add:         "add",
	Div:         "div",
	Maximum:     "maximum",
	Minimum:     "minimum",
	Mul:         "mul",
	Pow:         "pow",
	SquaredDiff: "squared_diff",
	Sub:         "sub",
}

// String returns the operation name, e.g. "hard_swish".
func (op OperationType) String() string {
	if name, ok := operationNames[op]; ok {
		return name
	}
	return "unknown"
}

// IsUnary reports whether op takes a single operand.
func (op OperationType) IsUnary() bool {
	return op >= Abs && op <= Tanh
}

// IsBinary reports whether op combines two operands.
func (op OperationType) IsBinary() bool {
	return op >= Add && op <= Sub
}

// ParseOperationType looks up an operation by name. Dashes are accepted in
// place of underscores, and "max"/"min" as short forms.
func ParseOperationType(name string) (OperationType, bool) {
	name = strings.ReplaceAll(strings.ToLower(name), "-", "_")
	switch name {
	case "max":
		return Maximum, true
	case "min":
		return Minimum, true
	}
	for op, n := range operationNames {
		if n == name {
			return op, true
		}
	}
	return Unknown, false
}

// UnaryOperations returns all unary operations in declaration order.
func UnaryOperations() []OperationType {
	ops := make([]OperationType, 0, Tanh-Abs+1)
	for op := Abs; op <= Tanh; op++ {
		ops = append(ops, op)
	}
	return ops
}

// BinaryOperations returns all binary operations in declaration order.
func BinaryOperations() []OperationType {
	ops := make([]OperationType, 0, Sub-Add+1)
	for op := Add; op <= Sub; op++ {
		ops = append(ops, op)
	}
	return ops
}
