//go:build windows

package device

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// sizeClass groups pooled buffers by size.
type sizeClass int

const (
	// smallClass for constants < 4KB, typically per-channel vectors.
	smallClass sizeClass = iota
	// mediumClass for constants 4KB-1MB.
	mediumClass
	// largeClass for constants > 1MB.
	largeClass
)

const (
	smallThreshold  = 4 * 1024    // 4KB
	mediumThreshold = 1024 * 1024 // 1MB
	maxPoolSize     = 64          // Max buffers per class
)

type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool reuses the storage buffers of freed tensors. Constant tensors
// are created and dropped together with the kernels that embed them, so the
// same sizes come back often.
type BufferPool struct {
	device *wgpu.Device

	classes [3][]*pooledBuffer
	mu      sync.Mutex

	hits   uint64
	misses uint64
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{device: device}
}

// Acquire returns a pooled buffer of at least size bytes with the given
// usage, or creates one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := classify(size)
	pool := p.classes[class]
	for i, pb := range pool {
		if pb.size >= size && pb.usage&usage == usage {
			p.classes[class] = append(pool[:i], pool[i+1:]...)
			p.hits++
			return pb.buffer
		}
	}

	p.misses++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool, or releases it when the pool is full.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := classify(size)
	if len(p.classes[class]) >= maxPoolSize {
		buffer.Release()
		return
	}
	p.classes[class] = append(p.classes[class], &pooledBuffer{buffer: buffer, size: size, usage: usage})
}

// Clear releases all pooled buffers.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class := range p.classes {
		for _, pb := range p.classes[class] {
			pb.buffer.Release()
		}
		p.classes[class] = nil
	}
}

// Stats returns pool hits, misses and the number of pooled buffers.
func (p *BufferPool) Stats() (hits, misses uint64, pooled int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.classes {
		pooled += len(c)
	}
	return p.hits, p.misses, pooled
}

func classify(size uint64) sizeClass {
	switch {
	case size < smallThreshold:
		return smallClass
	case size < mediumThreshold:
		return mediumClass
	default:
		return largeClass
	}
}
