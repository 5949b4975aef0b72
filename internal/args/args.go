// Package args records the named runtime arguments a generated source
// fragment depends on: scalar constants, references to tensors supplied by
// the embedding kernel, and constant tensors owned by the operation.
package args

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/x448/float16"

	"github.com/born-ml/kernelgen/internal/device"
	"github.com/born-ml/kernelgen/internal/tensor"
)

// Common errors.
var (
	ErrDuplicateName   = errors.New("args: argument already declared")
	ErrUnknownArgument = errors.New("args: argument not declared")
	ErrAlreadyResolved = errors.New("args: object reference already resolved")
	ErrKindMismatch    = errors.New("args: argument has a different kind")
	ErrNoHandle        = errors.New("args: zero tensor handle")
)

// Kind is the kind of a declared argument.
type Kind int

// Argument kinds.
const (
	KindFloat Kind = iota
	KindHalf
	KindObjectRef
	KindObject
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindHalf:
		return "half"
	case KindObjectRef:
		return "object_ref"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of a binding. Scalars and owned objects are
// resolved when declared; object references start Declared and move to
// Resolved exactly once.
type State int

// Binding states.
const (
	Declared State = iota
	Resolved
)

// String returns a human-readable state name.
func (s State) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "declared"
}

// AccessType describes how generated code touches an object argument.
type AccessType int

// Access types.
const (
	Read AccessType = iota
	Write
	ReadWrite
)

// Binding is one declared argument.
type Binding struct {
	Name   string
	Kind   Kind
	State  State
	Access AccessType

	Float float32
	Half  float16.Float16

	// Descriptor and Handle are set for object kinds. For KindObject the
	// handle is owned by whoever owns the Arguments.
	Descriptor tensor.TensorDescriptor
	Handle     device.Handle
}

// String implements fmt.Stringer.
func (b Binding) String() string {
	switch b.Kind {
	case KindFloat:
		return fmt.Sprintf("%s float = %g", b.Name, b.Float)
	case KindHalf:
		return fmt.Sprintf("%s half = %g", b.Name, b.Half.Float32())
	default:
		return fmt.Sprintf("%s %s %s (%s %s) handle=%d", b.Name, b.Kind, b.State,
			b.Descriptor.DataType, b.Descriptor.StorageType, b.Handle)
	}
}

func (b *Binding) copy() Binding {
	c := *b
	c.Descriptor = b.Descriptor.Clone()
	return c
}

// Arguments is an ordered set of declared bindings.
// The zero value is ready to use, and the read-only methods accept a nil set.
type Arguments struct {
	bindings []*Binding
	index    map[string]*Binding
}

// New returns an empty argument set.
func New() *Arguments {
	return &Arguments{}
}

func (a *Arguments) add(b *Binding) error {
	if a.index == nil {
		a.index = make(map[string]*Binding)
	}
	if _, exists := a.index[b.Name]; exists {
		return errors.Wrapf(ErrDuplicateName, "%q", b.Name)
	}
	a.bindings = append(a.bindings, b)
	a.index[b.Name] = b
	return nil
}

// AddFloat declares a full precision scalar.
func (a *Arguments) AddFloat(name string, value float32) error {
	return a.add(&Binding{Name: name, Kind: KindFloat, State: Resolved, Float: value})
}

// AddHalf declares a half precision scalar.
func (a *Arguments) AddHalf(name string, value float16.Float16) error {
	return a.add(&Binding{Name: name, Kind: KindHalf, State: Resolved, Half: value})
}

// AddObjectRef declares a tensor that the embedding kernel supplies later
// through SetObjectRef.
func (a *Arguments) AddObjectRef(name string, access AccessType, desc tensor.TensorDescriptor) error {
	return a.add(&Binding{
		Name:       name,
		Kind:       KindObjectRef,
		State:      Declared,
		Access:     access,
		Descriptor: desc.Clone(),
	})
}

// AddObject declares a tensor owned by the argument set's owner.
func (a *Arguments) AddObject(name string, access AccessType, h device.Handle, desc tensor.TensorDescriptor) error {
	if h == 0 {
		return errors.Wrapf(ErrNoHandle, "object %q", name)
	}
	return a.add(&Binding{
		Name:       name,
		Kind:       KindObject,
		State:      Resolved,
		Access:     access,
		Descriptor: desc.Clone(),
		Handle:     h,
	})
}

// SetObjectRef resolves the object reference name to h. A reference can only
// be resolved once.
func (a *Arguments) SetObjectRef(name string, h device.Handle) error {
	b, ok := a.index[name]
	if !ok {
		return errors.Wrapf(ErrUnknownArgument, "%q", name)
	}
	if b.Kind != KindObjectRef {
		return errors.Wrapf(ErrKindMismatch, "%q is %s, not %s", name, b.Kind, KindObjectRef)
	}
	if b.State == Resolved {
		return errors.Wrapf(ErrAlreadyResolved, "%q bound to handle %d", name, b.Handle)
	}
	if h == 0 {
		return errors.Wrapf(ErrNoHandle, "object reference %q", name)
	}
	b.Handle = h
	b.State = Resolved
	slog.Debug("object reference resolved", "name", name, "handle", h)
	return nil
}

// Lookup returns a copy of the binding declared under name.
func (a *Arguments) Lookup(name string) (Binding, bool) {
	if a == nil {
		return Binding{}, false
	}
	b, ok := a.index[name]
	if !ok {
		return Binding{}, false
	}
	return b.copy(), true
}

// Bindings returns copies of all bindings in declaration order.
func (a *Arguments) Bindings() []Binding {
	if a == nil {
		return nil
	}
	return lo.Map(a.bindings, func(b *Binding, _ int) Binding { return b.copy() })
}

// Len returns the number of declared bindings.
func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.bindings)
}

// Unresolved returns the names of object references still waiting for a tensor.
func (a *Arguments) Unresolved() []string {
	if a == nil {
		return nil
	}
	pending := lo.Filter(a.bindings, func(b *Binding, _ int) bool { return b.State == Declared })
	return lo.Map(pending, func(b *Binding, _ int) string { return b.Name })
}

// OwnedHandles returns the handles of owned object bindings.
func (a *Arguments) OwnedHandles() []device.Handle {
	if a == nil {
		return nil
	}
	owned := lo.Filter(a.bindings, func(b *Binding, _ int) bool { return b.Kind == KindObject })
	return lo.Map(owned, func(b *Binding, _ int) device.Handle { return b.Handle })
}

// Move transfers every binding into a new Arguments and leaves a empty.
// Moving a nil set yields an empty one.
func (a *Arguments) Move() *Arguments {
	if a == nil {
		return New()
	}
	moved := &Arguments{bindings: a.bindings, index: a.index}
	a.bindings = nil
	a.index = nil
	return moved
}

// Merge moves the bindings of other into a, appending suffix to every name.
// This is how a fused kernel collects the arguments of its elementwise links
// under unique names.
//
// Owned objects stay in other, so whoever owns other still frees them; a
// receives a resolved reference to the same handle. Every other binding
// leaves other.
func (a *Arguments) Merge(other *Arguments, suffix string) error {
	if other == nil {
		return nil
	}
	for _, b := range other.bindings {
		if _, exists := a.index[b.Name+suffix]; exists {
			return errors.Wrapf(ErrDuplicateName, "%q", b.Name+suffix)
		}
	}

	var kept []*Binding
	for _, b := range other.bindings {
		if b.Kind == KindObject {
			ref := b.copy()
			ref.Name += suffix
			ref.Kind = KindObjectRef
			if err := a.add(&ref); err != nil {
				return err
			}
			kept = append(kept, b)
			continue
		}
		b.Name += suffix
		if err := a.add(b); err != nil {
			return err
		}
	}

	other.bindings = kept
	other.index = nil
	if len(kept) > 0 {
		other.index = lo.SliceToMap(kept, func(b *Binding) (string, *Binding) { return b.Name, b })
	}
	return nil
}
