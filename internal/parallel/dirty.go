// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"image"
	"math/bits"
	"sync/atomic"
)

// DefaultTileSize is the tile edge in pixels used by NewDirtyRegion.
const DefaultTileSize = 64

// DirtyRegion tracks which tiles of a width x height target need to be
// recomposed, using an atomic bitmap with one bit per tile.
//
// All methods are safe for concurrent use without external synchronization.
type DirtyRegion struct {
	words          []atomic.Uint64
	width, height  int
	tile           int
	tilesX, tilesY int
}

// NewDirtyRegion creates a tracker for a width x height target with
// DefaultTileSize tiles. All tiles start clean. Returns nil for an empty
// target.
func NewDirtyRegion(width, height int) *DirtyRegion {
	return NewDirtyRegionTiles(width, height, DefaultTileSize)
}

// NewDirtyRegionTiles is NewDirtyRegion with an explicit tile size.
func NewDirtyRegionTiles(width, height, tile int) *DirtyRegion {
	if width <= 0 || height <= 0 || tile <= 0 {
		return nil
	}
	tilesX := (width + tile - 1) / tile
	tilesY := (height + tile - 1) / tile
	return &DirtyRegion{
		words:  make([]atomic.Uint64, (tilesX*tilesY+63)/64),
		width:  width,
		height: height,
		tile:   tile,
		tilesX: tilesX,
		tilesY: tilesY,
	}
}

func (d *DirtyRegion) mark(tx, ty int) {
	idx := ty*d.tilesX + tx
	d.words[idx/64].Or(1 << (idx & 63))
}

// Mark marks every tile intersecting r, in pixel coordinates.
// Parts of r outside the target are ignored.
func (d *DirtyRegion) Mark(r image.Rectangle) {
	r = r.Intersect(image.Rect(0, 0, d.width, d.height))
	if r.Empty() {
		return
	}
	tx1, ty1 := r.Min.X/d.tile, r.Min.Y/d.tile
	tx2, ty2 := (r.Max.X-1)/d.tile, (r.Max.Y-1)/d.tile
	for ty := ty1; ty <= ty2; ty++ {
		for tx := tx1; tx <= tx2; tx++ {
			d.mark(tx, ty)
		}
	}
}

// MarkAll marks the whole target dirty.
func (d *DirtyRegion) MarkAll() {
	total := d.tilesX * d.tilesY
	for i := range d.words {
		n := min(total-i*64, 64)
		if n == 64 {
			d.words[i].Store(^uint64(0))
		} else {
			d.words[i].Store(1<<n - 1)
		}
	}
}

// IsEmpty reports whether no tile is dirty.
func (d *DirtyRegion) IsEmpty() bool {
	for i := range d.words {
		if d.words[i].Load() != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of dirty tiles.
func (d *DirtyRegion) Count() int {
	n := 0
	for i := range d.words {
		n += bits.OnesCount64(d.words[i].Load())
	}
	return n
}

// TakeRects atomically clears the region and returns the dirty tiles as
// pixel rectangles clipped to the target, in row-major order.
func (d *DirtyRegion) TakeRects() []image.Rectangle {
	var rects []image.Rectangle
	for wi := range d.words {
		word := d.words[wi].Swap(0)
		for word != 0 {
			b := bits.TrailingZeros64(word)
			word &^= 1 << b
			idx := wi*64 + b
			tx, ty := idx%d.tilesX, idx/d.tilesX
			rects = append(rects, d.tileRect(tx, ty))
		}
	}
	return rects
}

// Bounds returns the smallest rectangle covering every dirty tile,
// without clearing anything.
func (d *DirtyRegion) Bounds() image.Rectangle {
	var u image.Rectangle
	for wi := range d.words {
		word := d.words[wi].Load()
		for word != 0 {
			b := bits.TrailingZeros64(word)
			word &^= 1 << b
			idx := wi*64 + b
			u = u.Union(d.tileRect(idx%d.tilesX, idx/d.tilesX))
		}
	}
	return u
}

func (d *DirtyRegion) tileRect(tx, ty int) image.Rectangle {
	r := image.Rect(tx*d.tile, ty*d.tile, (tx+1)*d.tile, (ty+1)*d.tile)
	return r.Intersect(image.Rect(0, 0, d.width, d.height))
}

// Clear marks every tile clean.
func (d *DirtyRegion) Clear() {
	for i := range d.words {
		d.words[i].Store(0)
	}
}

// TilesX returns the number of tiles horizontally.
func (d *DirtyRegion) TilesX() int { return d.tilesX }

// TilesY returns the number of tiles vertically.
func (d *DirtyRegion) TilesY() int { return d.tilesY }
