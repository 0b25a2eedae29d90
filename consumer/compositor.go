// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package consumer

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"

	surface "github.com/patrykniedzwiecki/graphic-standard"
	"github.com/patrykniedzwiecki/graphic-standard/bufferqueue"
	"github.com/patrykniedzwiecki/graphic-standard/internal/parallel"
)

// Layer is one buffer placed on the composition target.
type Layer struct {
	Buffer *surface.Buffer

	// Damage is the changed part of the buffer, in buffer coordinates.
	// An empty Damage means the whole buffer.
	Damage surface.Rect

	// Dst is where the buffer lands on the target. An empty Dst means the
	// whole target. When Dst and the buffer differ in size the buffer is
	// scaled.
	Dst image.Rectangle

	// Op is the Porter-Duff operator; the zero value is draw.Over.
	Op draw.Op
}

// LayerFromFrame builds a full-target layer from an acquired frame.
func LayerFromFrame(f bufferqueue.AcquireResult) Layer {
	return Layer{Buffer: f.Buffer, Damage: f.Damage}
}

// Compositor composes CPU-readable buffers into an RGBA target.
//
// Only damaged regions are redrawn. Damage accumulates in a tile bitmap
// until TakeDamage, so a presenter can upload just the tiles that changed.
// Layers are drawn in order; the target is split into horizontal bands
// that are composed in parallel.
//
// Compositor is safe for concurrent use.
type Compositor struct {
	mu     sync.Mutex
	target *image.RGBA
	dirty  *parallel.DirtyRegion
	pool   *parallel.WorkerPool
	bands  int
	frames uint64
}

// NewCompositor creates a compositor with a width x height transparent
// target. workers <= 0 uses GOMAXPROCS.
func NewCompositor(width, height, workers int) (*Compositor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: compositor %dx%d", surface.ErrBadConfig, width, height)
	}
	pool := parallel.NewWorkerPool(workers, 0)
	bands := min(pool.Workers(), max(1, height/parallel.DefaultTileSize))
	return &Compositor{
		target: image.NewRGBA(image.Rect(0, 0, width, height)),
		dirty:  parallel.NewDirtyRegion(width, height),
		pool:   pool,
		bands:  bands,
	}, nil
}

// Bounds returns the target rectangle.
func (c *Compositor) Bounds() image.Rectangle { return c.target.Rect }

// placement is a layer resolved against the target.
type placement struct {
	src    *image.RGBA
	sr     image.Rectangle // source rectangle, damage only
	dr     image.Rectangle // destination rectangle for sr
	scaled bool
	op     draw.Op
}

func (c *Compositor) place(l Layer) (placement, error) {
	if l.Buffer == nil {
		return placement{}, fmt.Errorf("%w: nil layer buffer", surface.ErrInvalidBuffer)
	}
	src, ok := l.Buffer.Image()
	if !ok {
		return placement{}, fmt.Errorf("%w: %v has no CPU-readable RGBA pixels", surface.ErrInvalidBuffer, l.Buffer)
	}
	bw, bh := l.Buffer.Width(), l.Buffer.Height()
	sr := surface.BufferFlushConfig{Damage: l.Damage}.DamageWithin(int32(bw), int32(bh)).Image()

	dst := l.Dst
	if dst.Empty() {
		dst = c.target.Rect
	}
	p := placement{src: src, sr: sr, op: l.Op}
	if dst.Dx() == bw && dst.Dy() == bh {
		p.dr = sr.Add(dst.Min)
		return p, nil
	}
	// Map the damaged source rectangle into the scaled destination,
	// rounding outward so edge pixels are resampled too.
	p.scaled = true
	p.dr = image.Rect(
		dst.Min.X+sr.Min.X*dst.Dx()/bw,
		dst.Min.Y+sr.Min.Y*dst.Dy()/bh,
		dst.Min.X+(sr.Max.X*dst.Dx()+bw-1)/bw,
		dst.Min.Y+(sr.Max.Y*dst.Dy()+bh-1)/bh,
	)
	return p, nil
}

// draw renders p into the part of the target covered by band.
func (p placement) draw(band *image.RGBA) {
	if p.scaled {
		draw.ApproxBiLinear.Scale(band, p.dr, p.src, p.sr, p.op, nil)
		return
	}
	draw.Draw(band, p.dr, p.src, p.sr.Min, p.op)
}

// Compose draws layers in order and returns the target area that changed.
// A layer that cannot be read fails the whole call before anything is
// drawn.
func (c *Compositor) Compose(layers ...Layer) (image.Rectangle, error) {
	places := make([]placement, 0, len(layers))
	for _, l := range layers {
		p, err := c.place(l)
		if err != nil {
			return image.Rectangle{}, err
		}
		places = append(places, p)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var changed image.Rectangle
	for _, p := range places {
		changed = changed.Union(p.dr.Intersect(c.target.Rect))
	}
	if changed.Empty() {
		return changed, nil
	}

	bandH := (changed.Dy() + c.bands - 1) / c.bands
	work := make([]func(), 0, c.bands)
	for y := changed.Min.Y; y < changed.Max.Y; y += bandH {
		r := image.Rect(changed.Min.X, y, changed.Max.X, min(y+bandH, changed.Max.Y))
		band := c.target.SubImage(r).(*image.RGBA)
		work = append(work, func() {
			for _, p := range places {
				if p.dr.Overlaps(r) {
					p.draw(band)
				}
			}
		})
	}
	c.pool.ExecuteAll(work)

	c.dirty.Mark(changed)
	c.frames++
	return changed, nil
}

// ComposeFrame composes a single acquired frame over the whole target.
func (c *Compositor) ComposeFrame(f bufferqueue.AcquireResult) (image.Rectangle, error) {
	return c.Compose(LayerFromFrame(f))
}

// Clear fills the target with col and marks it all dirty.
func (c *Compositor) Clear(col color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(c.target, c.target.Rect, image.NewUniform(col), image.Point{}, draw.Src)
	c.dirty.MarkAll()
}

// TakeDamage returns the tiles changed since the previous call and resets
// the accumulated damage.
func (c *Compositor) TakeDamage() []image.Rectangle {
	return c.dirty.TakeRects()
}

// DamageBounds returns the bounding box of the accumulated damage.
func (c *Compositor) DamageBounds() image.Rectangle {
	return c.dirty.Bounds()
}

// Snapshot returns a copy of the target.
func (c *Compositor) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.target.Rect)
	copy(out.Pix, c.target.Pix)
	return out
}

// Frames returns the number of Compose calls that changed the target.
func (c *Compositor) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Close stops the compositor's workers.
func (c *Compositor) Close() {
	c.pool.Close()
}
