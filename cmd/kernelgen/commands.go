package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/born-ml/kernelgen/device"
	"github.com/born-ml/kernelgen/elementwise"
	"github.com/born-ml/kernelgen/tensor"
)

// options holds the flags shared by every render command.
type options struct {
	precision precisionValue
	powerVR   bool
	verbose   bool
	broadcast []string
	values    []float32
	hwc       []int
}

// precisionValue adapts tensor.CalculationsPrecision to pflag.Value.
type precisionValue struct {
	p tensor.CalculationsPrecision
}

func (v *precisionValue) String() string { return v.p.String() }

func (v *precisionValue) Set(s string) error {
	p, ok := tensor.ParsePrecision(strings.ToLower(s))
	if !ok {
		return errors.Errorf("unknown precision %q (want f32, f32_f16 or f16)", s)
	}
	v.p = p
	return nil
}

func (v *precisionValue) Type() string { return "precision" }

var _ pflag.Value = (*precisionValue)(nil)

func newRootCommand() *cobra.Command {
	opts := &options{precision: precisionValue{p: tensor.F32}}

	root := &cobra.Command{
		Use:           "kernelgen",
		Short:         "Render elementwise GPU kernel fragments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if opts.verbose {
				handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
				slog.SetDefault(slog.New(handler))
			}
		},
	}

	flags := root.PersistentFlags()
	flags.Var(&opts.precision, "precision", "calculation precision: f32, f32_f16 or f16")
	flags.BoolVar(&opts.powerVR, "powervr", false, "target a PowerVR device")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCommand(),
		newOpsCommand(),
		newUnaryCommand(opts),
		newScalarCommand(opts),
		newBinaryCommand(opts),
		newConstCommand(opts),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kernelgen %s\n", version)
		},
	}
}

func newOpsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List supported operations",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "unary:")
			for _, op := range elementwise.UnaryOperations() {
				fmt.Fprintf(out, "  %s\n", op)
			}
			fmt.Fprintln(out, "binary:")
			for _, op := range elementwise.BinaryOperations() {
				fmt.Fprintf(out, "  %s\n", op)
			}
		},
	}
}

func newUnaryCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unary OP",
		Short: "Render a unary operation applied to in_out_value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOperation(args[0], true)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), elementwise.NewOneInput(opts.definition(), op))
		},
	}
}

func newScalarCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scalar OP VALUE",
		Short: "Render a binary operation with a scalar second operand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOperation(args[0], false)
			if err != nil {
				return err
			}
			var scalar float32
			if _, err := fmt.Sscan(args[1], &scalar); err != nil {
				return errors.Wrapf(err, "scalar %q", args[1])
			}
			host := opts.hostDevice()
			return render(cmd.OutOrStdout(),
				elementwise.CreateOneRuntimeOneScalar(host.CreationContext(), opts.definition(), op, scalar))
		},
	}
}

func newBinaryCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "binary OP",
		Short: "Render a binary operation reading the kernel's second source tensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOperation(args[0], false)
			if err != nil {
				return err
			}
			broadcast, err := parseBroadcast(opts.broadcast)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), elementwise.NewTwoInput(opts.definition(), op, broadcast))
		},
	}
	cmd.Flags().StringSliceVar(&opts.broadcast, "broadcast", nil,
		"axes of the second tensor to broadcast: width, height, channels")
	return cmd
}

func newConstCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "const OP",
		Short: "Render a binary operation with an uploaded constant second operand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, err := parseOperation(args[0], false)
			if err != nil {
				return err
			}
			if len(opts.values) == 0 {
				return errors.New("--values is required")
			}

			host := opts.hostDevice()
			ctx := host.CreationContext()
			var constant *elementwise.TwoInput
			if len(opts.hwc) == 0 {
				constant, err = elementwise.CreateTwoInputLinear(ctx, opts.definition(), op,
					tensor.NewLinearTensor(opts.values))
			} else {
				if len(opts.hwc) != 3 {
					return errors.Errorf("--hwc wants H,W,C, got %v", opts.hwc)
				}
				var ht tensor.HWCTensor
				ht, err = tensor.NewHWCTensor(tensor.HWC{H: opts.hwc[0], W: opts.hwc[1], C: opts.hwc[2]}, opts.values)
				if err != nil {
					return err
				}
				constant, err = elementwise.CreateTwoInputHWC(ctx, opts.definition(), op, ht)
			}
			if err != nil {
				return err
			}
			if err := render(cmd.OutOrStdout(), constant); err != nil {
				return err
			}
			return constant.Release()
		},
	}
	cmd.Flags().Float32SliceVar(&opts.values, "values", nil, "constant values in HWC order")
	cmd.Flags().IntSliceVar(&opts.hwc, "hwc", nil, "constant shape as H,W,C (default: a linear vector)")
	return cmd
}

// definition describes a texture-backed kernel with two sources at the
// selected precision.
func (o *options) definition() tensor.OperationDef {
	dt := tensor.Float32
	if !o.precision.p.IsFull() {
		dt = tensor.Float16
	}
	desc := tensor.NewTensorDescriptor(dt, tensor.StorageTexture2D, tensor.LayoutHWC)
	return tensor.OperationDef{
		Precision:  o.precision.p,
		SrcTensors: []tensor.TensorDescriptor{desc, desc},
		DstTensors: []tensor.TensorDescriptor{desc},
	}
}

func (o *options) hostDevice() *device.HostDevice {
	hostOpts := device.DefaultHostOptions()
	if o.powerVR {
		hostOpts.Vendor = device.VendorPowerVR
	}
	return device.NewHostDevice(hostOpts)
}

func parseOperation(name string, unary bool) (elementwise.OperationType, error) {
	op, ok := elementwise.ParseOperationType(name)
	if !ok {
		return op, errors.Wrapf(elementwise.ErrUnknownOperation, "%q", name)
	}
	if unary && !op.IsUnary() {
		return op, errors.Errorf("%s is not a unary operation", op)
	}
	if !unary && !op.IsBinary() {
		return op, errors.Errorf("%s is not a binary operation", op)
	}
	return op, nil
}

func parseBroadcast(axes []string) (elementwise.BroadcastSettings, error) {
	var b elementwise.BroadcastSettings
	for _, axis := range axes {
		switch strings.ToLower(strings.TrimSpace(axis)) {
		case "width", "w":
			b.Width = true
		case "height", "h":
			b.Height = true
		case "channels", "c":
			b.Channels = true
		default:
			return b, errors.Errorf("unknown broadcast axis %q", axis)
		}
	}
	return b, nil
}

func render(w io.Writer, op elementwise.Elementwise) error {
	if err := op.Validate(); err != nil {
		return err
	}
	fmt.Fprint(w, op.Code())
	bindings := op.Args().Bindings()
	if len(bindings) == 0 {
		return nil
	}
	fmt.Fprintln(w, "// arguments:")
	for _, b := range bindings {
		fmt.Fprintf(w, "//   %s\n", b)
	}
	return nil
}
