// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BufferRequestConfig describes the buffer a producer asks for.
//
// Two configs are equivalent only if every field matches; a slot whose
// buffer was allocated for an equivalent config is reused without
// reallocation.
type BufferRequestConfig struct {
	// Width is the buffer width in pixels.
	Width int32

	// Height is the buffer height in pixels.
	Height int32

	// StrideAlignment is the row alignment in bytes.
	// Must be a power of two in [MinStrideAlignment, MaxStrideAlignment].
	StrideAlignment int32

	// Format is the pixel format. See BytesPerPixel for the accepted set.
	Format gputypes.TextureFormat

	// Usage specifies how the buffer will be accessed.
	Usage Usage

	// Timeout bounds how long a producer surface waits for a free slot.
	// The queue itself never waits. Zero means fail immediately.
	Timeout time.Duration
}

// Validate checks that c describes a buffer that can be allocated.
// The returned error wraps ErrBadConfig.
func (c BufferRequestConfig) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrBadConfig, c.Width, c.Height)
	case c.Width > MaxBufferWidth || c.Height > MaxBufferHeight:
		return fmt.Errorf("%w: size %dx%d exceeds %dx%d",
			ErrBadConfig, c.Width, c.Height, MaxBufferWidth, MaxBufferHeight)
	case c.StrideAlignment < MinStrideAlignment || c.StrideAlignment > MaxStrideAlignment:
		return fmt.Errorf("%w: stride alignment %d outside [%d, %d]",
			ErrBadConfig, c.StrideAlignment, MinStrideAlignment, MaxStrideAlignment)
	case c.StrideAlignment&(c.StrideAlignment-1) != 0:
		return fmt.Errorf("%w: stride alignment %d is not a power of two", ErrBadConfig, c.StrideAlignment)
	case !IsSupportedFormat(c.Format):
		return fmt.Errorf("%w: format %v not supported", ErrBadConfig, c.Format)
	case c.Usage.ContainsUnknownBits():
		return fmt.Errorf("%w: usage %#x has unknown bits", ErrBadConfig, uint64(c.Usage))
	case c.Timeout < 0:
		return fmt.Errorf("%w: negative timeout %v", ErrBadConfig, c.Timeout)
	}
	return nil
}

// Equal reports whether c and other are equivalent.
func (c BufferRequestConfig) Equal(other BufferRequestConfig) bool {
	return c == other
}

// Stride returns the row pitch in bytes: width times bytes per pixel,
// rounded up to the stride alignment. Returns 0 for unsupported formats.
func (c BufferRequestConfig) Stride() int32 {
	bpp, ok := BytesPerPixel(c.Format)
	if !ok {
		return 0
	}
	row := c.Width * int32(bpp)
	align := c.StrideAlignment
	if align <= 0 {
		return row
	}
	return (row + align - 1) / align * align
}

// Size returns the number of bytes a buffer for c occupies.
func (c BufferRequestConfig) Size() int {
	return int(c.Stride()) * int(c.Height)
}

// TextureDescriptor maps c to a HAL texture descriptor.
func (c BufferRequestConfig) TextureDescriptor(label string) *hal.TextureDescriptor {
	return &hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(c.Width),
			Height:             uint32(c.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        c.Format,
		Usage:         c.Usage.TextureUsage(),
	}
}

// String returns a compact description such as "640x480 RGBA8Unorm CPU_READ".
func (c BufferRequestConfig) String() string {
	return fmt.Sprintf("%dx%d %v align=%d %v timeout=%v",
		c.Width, c.Height, c.Format, c.StrideAlignment, c.Usage, c.Timeout)
}

// Rect is an integer rectangle in buffer pixel coordinates.
type Rect struct {
	X, Y, W, H int32
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Image converts r to an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.W), int(r.Y+r.H))
}

// RectFromImage converts an image.Rectangle to a Rect.
func RectFromImage(ir image.Rectangle) Rect {
	return Rect{X: int32(ir.Min.X), Y: int32(ir.Min.Y), W: int32(ir.Dx()), H: int32(ir.Dy())}
}

// BufferFlushConfig carries what the producer reports when it queues a buffer.
type BufferFlushConfig struct {
	// Damage is the region changed since the slot was last flushed.
	// A zero rectangle means the whole buffer.
	Damage Rect

	// Timestamp is the presentation time in nanoseconds.
	// Zero means "now", stamped by the queue at flush time.
	Timestamp int64
}

// Validate checks the flush config. The returned error wraps ErrBadConfig.
func (f BufferFlushConfig) Validate() error {
	d := f.Damage
	if d.W < 0 || d.H < 0 || d.X < 0 || d.Y < 0 {
		return fmt.Errorf("%w: damage %+v", ErrBadConfig, d)
	}
	if f.Timestamp < 0 {
		return fmt.Errorf("%w: negative timestamp %d", ErrBadConfig, f.Timestamp)
	}
	return nil
}

// DamageWithin returns the damage rectangle clipped to a width x height
// buffer, substituting the whole buffer for an empty damage.
func (f BufferFlushConfig) DamageWithin(width, height int32) Rect {
	full := Rect{W: width, H: height}
	if f.Damage.Empty() {
		return full
	}
	return RectFromImage(f.Damage.Image().Intersect(full.Image()))
}
