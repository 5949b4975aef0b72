package device

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/kernelgen/internal/tensor"
)

// Registry is an arena of device tensors indexed by Handle. Moving ownership of
// a tensor is moving its Handle; freeing goes through the registry so a handle
// can be released at most once.
type Registry struct {
	mu      sync.Mutex
	next    Handle
	tensors map[Handle]*Tensor

	// Statistics
	totalRegistered uint64
	totalFreed      uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tensors: make(map[Handle]*Tensor)}
}

// Register adds a tensor with its backing payload and returns its handle.
func (r *Registry) Register(shape tensor.BHWC, desc tensor.TensorDescriptor, payload any) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.totalRegistered++
	h := r.next
	r.tensors[h] = &Tensor{
		Handle:     h,
		Shape:      shape,
		Descriptor: desc.Clone(),
		payload:    payload,
	}
	return h
}

// Lookup returns the tensor registered under h.
func (r *Registry) Lookup(h Handle) (*Tensor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tensors[h]
	return t, ok
}

// Replace swaps the payload stored for h.
func (r *Registry) Replace(h Handle, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tensors[h]
	if !ok {
		return errors.Wrapf(ErrInvalidHandle, "handle %d", h)
	}
	t.payload = payload
	return nil
}

// Free removes h from the registry and returns the removed tensor so the
// caller can release its payload.
func (r *Registry) Free(h Handle) (*Tensor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tensors[h]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidHandle, "handle %d", h)
	}
	delete(r.tensors, h)
	r.totalFreed++
	return t, nil
}

// Len returns the number of live tensors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tensors)
}

// Stats returns how many tensors were registered and freed over the registry's life.
func (r *Registry) Stats() (registered, freed uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.totalRegistered, r.totalFreed
}

// Payload returns the backing payload of t.
func (t *Tensor) Payload() any {
	return t.payload
}
