// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command bqdemo runs a producer and a consumer over one buffer queue.
//
// The producer paints a bar sweeping across the frame and flushes only the
// damaged strip; the consumer composes each frame, scaled up 2x, into an
// image that is saved as PNG at the end.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/draw"

	surface "github.com/patrykniedzwiecki/graphic-standard"
	"github.com/patrykniedzwiecki/graphic-standard/bufferqueue"
	"github.com/patrykniedzwiecki/graphic-standard/consumer"
	"github.com/patrykniedzwiecki/graphic-standard/producer"
)

func main() {
	var (
		frames    = flag.Int("frames", 60, "number of frames to produce")
		width     = flag.Int("width", 320, "buffer width")
		height    = flag.Int("height", 240, "buffer height")
		queueSize = flag.Int("queue", surface.DefaultQueueSize, "queue capacity")
		output    = flag.String("output", "bqdemo.png", "output file")
		allocator = flag.String("allocator", surface.AllocatorMemory, "buffer allocator: memory or hal")
		verbose   = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *verbose {
		surface.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(*frames, *width, *height, *queueSize, *output, *allocator); err != nil {
		log.Fatalf("bqdemo: %v", err)
	}
}

func run(frames, width, height, queueSize int, output, allocName string) error {
	if frames <= 0 {
		return fmt.Errorf("-frames must be positive, got %d", frames)
	}
	var dev hal.Device
	if allocName == surface.AllocatorHAL {
		dev = &noop.Device{}
		surface.RegisterHALAllocator(dev)
	}
	alloc, err := surface.NewAllocator(allocName)
	if err != nil {
		return err
	}

	q := bufferqueue.New(
		bufferqueue.WithAllocator(alloc),
		bufferqueue.WithDefaultQueueSize(queueSize),
	)
	if err := q.Init("bqdemo"); err != nil {
		return err
	}
	defer func() { _ = q.Close() }()

	comp, err := consumer.NewCompositor(2*width, 2*height, 0)
	if err != nil {
		return err
	}
	defer comp.Close()

	done := make(chan struct{})
	handled := 0
	cs := consumer.New(q, consumer.HandlerFunc(func(f bufferqueue.AcquireResult) (surface.Fence, error) {
		_, err := comp.ComposeFrame(f)
		handled++
		if handled == frames {
			close(done)
		}
		return surface.NoFence, err
	}))
	if err := cs.Start(); err != nil {
		return err
	}
	defer func() { _ = cs.Close() }()

	ps := producer.New(q)
	defer func() { _ = ps.Close() }()

	cfg := surface.BufferRequestConfig{
		Width:           int32(width),
		Height:          int32(height),
		StrideAlignment: 8,
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Usage:           surface.UsageCPUWrite | surface.UsageCPURead,
		Timeout:         time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	start := time.Now()
	var prev image.Rectangle
	for i := range frames {
		bar, err := produceFrame(ctx, ps, dev, cfg, i, frames, prev)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		prev = bar
	}

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("consumer stalled after %d frames: %w", cs.Stats().Handled, ctx.Err())
	}
	elapsed := time.Since(start)

	if err := savePNG(output, comp.Snapshot()); err != nil {
		return err
	}

	st := q.Stats()
	log.Printf("%d frames in %v via %s allocator, saved %s", frames, elapsed.Round(time.Millisecond), alloc.Name(), output)
	log.Printf("queue: %v", st)
	log.Printf("consumer: %+v, producer cache: %+v", cs.Stats(), ps.CacheStats())
	return nil
}

// produceFrame paints frame i and flushes the strip that changed since the
// previous bar position. It returns the new bar rectangle.
func produceFrame(ctx context.Context, ps *producer.Surface, dev hal.Device,
	cfg surface.BufferRequestConfig, i, frames int, prev image.Rectangle) (image.Rectangle, error) {
	buf, fence, err := ps.RequestBuffer(ctx, cfg)
	if err != nil {
		return prev, err
	}
	err = fence.Wait(cfg.Timeout)
	surface.CloseFence(fence)
	if err != nil {
		_ = ps.CancelBuffer(buf, nil)
		return prev, err
	}

	img, ok := buf.Image()
	if !ok {
		_ = ps.CancelBuffer(buf, nil)
		return prev, fmt.Errorf("%v is not CPU-writable", buf)
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	barW := max(1, w/16)
	x := (w - barW) * i / max(1, frames-1)
	bar := image.Rect(x, 0, x+barW, h)

	draw.Draw(img, img.Rect, image.NewUniform(color.RGBA{R: 24, G: 32, B: 48, A: 255}), image.Point{}, draw.Src)
	hue := uint8(255 * i / max(1, frames))
	draw.Draw(img, bar, image.NewUniform(color.RGBA{R: 255 - hue, G: 160, B: hue, A: 255}), image.Point{}, draw.Src)

	flush := surface.BufferFlushConfig{}
	if i > 0 {
		flush.Damage = surface.RectFromImage(bar.Union(prev))
	}

	extra := surface.NewExtraData()
	extra.SetInt64("frame", int64(i))

	acquire, err := gpuDone(ctx, dev, uint64(i+1))
	if err != nil {
		_ = ps.CancelBuffer(buf, nil)
		return prev, err
	}
	if err := ps.FlushBuffer(buf, acquire, flush, extra); err != nil {
		surface.CloseFence(acquire)
		return prev, err
	}
	return bar, nil
}

// gpuDone returns the acquire fence for a frame. On a HAL device it
// submits a fence that completes at value and bridges it to a sync fence;
// CPU-only frames are complete already.
func gpuDone(ctx context.Context, dev hal.Device, value uint64) (surface.Fence, error) {
	if dev == nil {
		return surface.NoFence, nil
	}
	hf, err := dev.CreateFence()
	if err != nil {
		return surface.NoFence, err
	}
	f, err := surface.BridgeHALFence(ctx, dev, hf, value)
	if err != nil {
		dev.DestroyFence(hf)
		return surface.NoFence, err
	}
	if nf, ok := hf.(*noop.Fence); ok {
		nf.Signal(value)
	}
	return f, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
