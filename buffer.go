// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BufferID identifies a buffer for the lifetime of the process.
// IDs are never reused, so a stale ID never names a newer buffer.
type BufferID uint64

var lastBufferID atomic.Uint64

// NewBufferID returns a fresh, process-wide unique buffer ID.
func NewBufferID() BufferID {
	return BufferID(lastBufferID.Add(1))
}

// String returns the ID in the form "buf#42".
func (id BufferID) String() string {
	return fmt.Sprintf("buf#%d", uint64(id))
}

// Backing is the memory behind a buffer, as produced by an Allocator.
// Any field may be zero: a memory buffer has only Pixels, a GPU buffer
// may have only a Texture.
type Backing struct {
	// Pixels is CPU-addressable storage of Stride*Height bytes.
	Pixels []byte

	// Texture is the GPU texture backing the buffer.
	Texture hal.Texture

	// Handle is a platform memory handle (dma-buf fd, native image...).
	Handle uintptr
}

// Buffer is a reference-counted image buffer shared between a producer,
// the queue and a consumer.
//
// A Buffer describes memory; it carries no queue state. The queue never
// reads or writes pixel memory.
//
// Buffer implements gpucontext.Texture so it can be handed to code that
// only needs the dimensions.
type Buffer struct {
	id      BufferID
	cfg     BufferRequestConfig
	stride  int32
	backing Backing

	refs     atomic.Int32
	freeOnce sync.Once
	free     func()

	extra atomic.Pointer[ExtraData]
}

var _ gpucontext.Texture = (*Buffer)(nil)

// NewBuffer wraps backing memory for cfg in a Buffer holding one reference.
// free runs exactly once, when the last reference is dropped; it may be nil.
func NewBuffer(cfg BufferRequestConfig, backing Backing, free func()) *Buffer {
	b := &Buffer{
		id:      NewBufferID(),
		cfg:     cfg,
		stride:  cfg.Stride(),
		backing: backing,
		free:    free,
	}
	b.refs.Store(1)
	return b
}

// ID returns the buffer's unique identifier.
func (b *Buffer) ID() BufferID { return b.id }

// Width returns the width in pixels.
func (b *Buffer) Width() int { return int(b.cfg.Width) }

// Height returns the height in pixels.
func (b *Buffer) Height() int { return int(b.cfg.Height) }

// Stride returns the row pitch in bytes.
func (b *Buffer) Stride() int32 { return b.stride }

// Format returns the pixel format.
func (b *Buffer) Format() gputypes.TextureFormat { return b.cfg.Format }

// Usage returns the usage flags the buffer was allocated with.
func (b *Buffer) Usage() Usage { return b.cfg.Usage }

// Size returns the byte size of the buffer.
func (b *Buffer) Size() int { return int(b.stride) * int(b.cfg.Height) }

// Config returns the request config the buffer was allocated for.
func (b *Buffer) Config() BufferRequestConfig { return b.cfg }

// Texture returns the GPU texture, or nil for memory-only buffers.
func (b *Buffer) Texture() hal.Texture { return b.backing.Texture }

// NativeHandle returns the platform memory handle, or 0 if there is none.
// For texture-backed buffers without an explicit handle, the texture's
// native handle is returned.
func (b *Buffer) NativeHandle() uintptr {
	if b.backing.Handle != 0 {
		return b.backing.Handle
	}
	if b.backing.Texture != nil {
		return b.backing.Texture.NativeHandle()
	}
	return 0
}

// Pixels returns CPU-addressable storage, or nil for GPU-only buffers.
func (b *Buffer) Pixels() []byte { return b.backing.Pixels }

// Image returns the pixels as an *image.RGBA sharing the buffer memory.
// The second result is false unless the format is 8-bit RGBA and the
// buffer has CPU backing.
func (b *Buffer) Image() (*image.RGBA, bool) {
	if !isRGBA8(b.cfg.Format) || len(b.backing.Pixels) < b.Size() {
		return nil, false
	}
	return &image.RGBA{
		Pix:    b.backing.Pixels[:b.Size()],
		Stride: int(b.stride),
		Rect:   image.Rect(0, 0, int(b.cfg.Width), int(b.cfg.Height)),
	}, true
}

// ExtraData returns the metadata attached by the last flush, or nil.
// The returned map is a copy.
func (b *Buffer) ExtraData() ExtraData {
	if p := b.extra.Load(); p != nil {
		return p.Clone()
	}
	return nil
}

// SetExtraData replaces the attached metadata. A nil map clears it.
func (b *Buffer) SetExtraData(e ExtraData) {
	if e == nil {
		b.extra.Store(nil)
		return
	}
	c := e.Clone()
	b.extra.Store(&c)
}

// Ref adds a reference and returns b.
func (b *Buffer) Ref() *Buffer {
	b.refs.Add(1)
	return b
}

// Unref drops a reference. When the count reaches zero the allocator's
// free function runs; extra Unref calls after that are ignored.
func (b *Buffer) Unref() {
	if b.refs.Add(-1) > 0 {
		return
	}
	b.freeOnce.Do(func() {
		if b.free != nil {
			b.free()
		}
	})
}

// Refs returns the current reference count.
func (b *Buffer) Refs() int32 { return b.refs.Load() }

// Released reports whether the free function has run.
func (b *Buffer) Released() bool { return b.refs.Load() <= 0 }

// String returns a short description for logs.
func (b *Buffer) String() string {
	return fmt.Sprintf("%v %dx%d %v", b.id, b.cfg.Width, b.cfg.Height, b.cfg.Format)
}
