package elementwise

import (
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/samber/lo"

	"github.com/born-ml/kernelgen/internal/tensor"
)

// UnknownOperationCode is rendered in place of an operation the catalog
// does not know. It does not compile, so the kernel build fails loudly.
const UnknownOperationCode = "Unknown operation type;\n"

// operands names the values a statement template refers to: A is updated in
// place, B is the second operand of binary operations.
type operands struct {
	A, B string
}

// program is an ordered list of statements. Order is part of the contract:
// squared_diff must subtract before it squares.
type program []*template.Template

func compile(name string, statements ...string) program {
	return lo.Map(statements, func(s string, i int) *template.Template {
		return template.Must(template.New(fmt.Sprintf("%s_%d", name, i)).Parse(s))
	})
}

func (p program) render(ops operands) string {
	var sb strings.Builder
	for _, stmt := range p {
		if err := stmt.Execute(&sb, ops); err != nil {
			panic(fmt.Sprintf("elementwise: template %s: %v", stmt.Name(), err))
		}
		sb.WriteString(";\n")
	}
	return sb.String()
}

var unaryPrograms = map[OperationType]program{
	Abs: compile("abs", "{{.A}} = fabs({{.A}})"),
	Cos: compile("cos", "{{.A}} = cos({{.A}})"),
	Exp: compile("exp", "{{.A}} = exp({{.A}})"),
	HardSwish: compile("hard_swish",
		"{{.A}} *= clamp({{.A}} * (FLT)(0.16666667f) + (FLT)(0.5f), (FLT4)(0.0f), (FLT4)(1.0f))"),
	Log:    compile("log", "{{.A}} = log({{.A}})"),
	Rsqrt:  compile("rsqrt", "{{.A}} = (FLT4)(1.0f) / sqrt({{.A}})"),
	Sin:    compile("sin", "{{.A}} = sin({{.A}})"),
	Sqrt:   compile("sqrt", "{{.A}} = sqrt({{.A}})"),
	Square: compile("square", "{{.A}} *= {{.A}}"),
	Tanh:   compile("tanh", "{{.A}} = tanh({{.A}})"),
}

// sigmoidFull evaluates the whole vector at once.
var sigmoidFull = compile("sigmoid_f32", "{{.A}} = (FLT4)(1.0f) / ((FLT4)(1.0f) + exp(-({{.A}})))")

// sigmoidHalf promotes each lane to float on its own: there is no safe
// half4 native_exp, so the four lanes are computed as scalars.
var sigmoidHalf = compile("sigmoid_f16", lo.Map([]string{"x", "y", "z", "w"}, func(lane string, _ int) string {
	return fmt.Sprintf("{{.A}}.%[1]s = convert_half(native_recip(1.0f + native_exp(convert_float(-{{.A}}.%[1]s))))", lane)
})...)

var binaryPrograms = map[OperationType]program{
	Add:         compile("add", "{{.A}} += {{.B}}"),
	Div:         compile("div", "{{.A}} /= {{.B}}"),
	Maximum:     compile("maximum", "{{.A}} = max({{.A}}, {{.B}})"),
	Minimum:     compile("minimum", "{{.A}} = min({{.A}}, {{.B}})"),
	Mul:         compile("mul", "{{.A}} *= {{.B}}"),
	Pow:         compile("pow", "{{.A}} = pow({{.A}}, {{.B}})"),
	SquaredDiff: compile("squared_diff", "{{.A}} -= {{.B}}", "{{.A}} *= {{.A}}"),
	Sub:         compile("sub", "{{.A}} -= {{.B}}"),
}

// RenderUnary returns the statements applying op in place to the value named
// operand. Unknown or binary operations render UnknownOperationCode.
func RenderUnary(op OperationType, precision tensor.CalculationsPrecision, operand string) string {
	if op == Sigmoid {
		if precision.IsFull() {
			return sigmoidFull.render(operands{A: operand})
		}
		return sigmoidHalf.render(operands{A: operand})
	}
	p, ok := unaryPrograms[op]
	if !ok {
		slog.Warn("unknown unary operation rendered as sentinel", "op", int(op))
		return UnknownOperationCode
	}
	return p.render(operands{A: operand})
}

// RenderBinary returns the statements combining b into a in place.
// Unknown or unary operations render UnknownOperationCode.
func RenderBinary(op OperationType, a, b string) string {
	p, ok := binaryPrograms[op]
	if !ok {
		slog.Warn("unknown binary operation rendered as sentinel", "op", int(op))
		return UnknownOperationCode
	}
	return p.render(operands{A: a, B: b})
}
