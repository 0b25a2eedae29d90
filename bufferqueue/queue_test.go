// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bufferqueue

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gputypes"

	surface "github.com/patrykniedzwiecki/graphic-standard"
)

func testConfig() surface.BufferRequestConfig {
	return surface.BufferRequestConfig{
		Width:           64,
		Height:          32,
		StrideAlignment: 8,
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Usage:           surface.UsageCPURead | surface.UsageCPUWrite | surface.UsageMemDMA,
	}
}

func newTestQueue(t *testing.T, opts ...Option) *Queue {
	t.Helper()
	q := New(append([]Option{WithAllocator(surface.NewMemoryAllocator())}, opts...)...)
	if err := q.Init(t.Name()); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func mustRequest(t *testing.T, q *Queue, cfg surface.BufferRequestConfig) RequestResult {
	t.Helper()
	res, err := q.RequestBuffer(cfg)
	if err != nil {
		t.Fatalf("RequestBuffer() = %v", err)
	}
	return res
}

func mustFlush(t *testing.T, q *Queue, seq uint64) {
	t.Helper()
	if err := q.FlushBuffer(seq, surface.NoFence, surface.BufferFlushConfig{}, nil); err != nil {
		t.Fatalf("FlushBuffer(%d) = %v", seq, err)
	}
}

func TestInit(t *testing.T) {
	q := New(WithAllocator(surface.NewMemoryAllocator()))
	if _, err := q.RequestBuffer(testConfig()); !errors.Is(err, surface.ErrNotInitialized) {
		t.Errorf("RequestBuffer before Init = %v, want ErrNotInitialized", err)
	}
	if err := q.Init("a"); err != nil {
		t.Fatalf("Init() = %v", err)
	}
	if err := q.Init("b"); !errors.Is(err, surface.ErrAlreadyInitialized) {
		t.Errorf("second Init() = %v, want ErrAlreadyInitialized", err)
	}
	if q.Name() != "a" {
		t.Errorf("Name() = %q, want %q", q.Name(), "a")
	}
	if q.QueueSize() != surface.DefaultQueueSize {
		t.Errorf("QueueSize() = %d, want %d", q.QueueSize(), surface.DefaultQueueSize)
	}
}

func TestWithDefaultQueueSize(t *testing.T) {
	q := newTestQueue(t, WithDefaultQueueSize(5))
	if q.QueueSize() != 5 {
		t.Errorf("QueueSize() = %d, want 5", q.QueueSize())
	}
	q2 := newTestQueue(t, WithDefaultQueueSize(surface.MaxQueueSize+1))
	if q2.QueueSize() != surface.DefaultQueueSize {
		t.Errorf("out-of-range option: QueueSize() = %d, want default", q2.QueueSize())
	}
}

func TestRequestBadConfig(t *testing.T) {
	q := newTestQueue(t)
	cfg := testConfig()
	cfg.Width = 0
	if _, err := q.RequestBuffer(cfg); !errors.Is(err, surface.ErrBadConfig) {
		t.Errorf("RequestBuffer(zero width) = %v, want ErrBadConfig", err)
	}
	cfg = testConfig()
	cfg.Format = gputypes.TextureFormatDepth32Float
	if _, err := q.RequestBuffer(cfg); !errors.Is(err, surface.ErrBadConfig) {
		t.Errorf("RequestBuffer(depth format) = %v, want ErrBadConfig", err)
	}
	if s := q.Stats(); s.Slots != 0 {
		t.Errorf("bad config created %d slots", s.Slots)
	}
}

// P1: no more than capacity requests succeed without a release.
func TestCapacityBound(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 8, surface.MaxQueueSize} {
		q := newTestQueue(t)
		if err := q.SetQueueSize(capacity); err != nil {
			t.Fatalf("SetQueueSize(%d) = %v", capacity, err)
		}
		for i := range capacity {
			if _, err := q.RequestBuffer(testConfig()); err != nil {
				t.Fatalf("capacity %d: request %d = %v", capacity, i, err)
			}
		}
		if _, err := q.RequestBuffer(testConfig()); !errors.Is(err, surface.ErrQueueFull) {
			t.Errorf("capacity %d: extra request = %v, want ErrQueueFull", capacity, err)
		}
		if got := q.Stats().QueueFull; got != 1 {
			t.Errorf("Stats().QueueFull = %d, want 1", got)
		}
	}
}

// Scenario: capacity 2, two requests, third fails, cancels are single-use.
func TestRequestRequestRequestCancelCancel(t *testing.T) {
	q := newTestQueue(t)
	if err := q.SetQueueSize(2); err != nil {
		t.Fatalf("SetQueueSize(2) = %v", err)
	}

	first := mustRequest(t, q, testConfig())
	if first.Buffer == nil {
		t.Fatal("first request on a fresh slot returned nil buffer")
	}
	second := mustRequest(t, q, testConfig())
	if second.Buffer == nil {
		t.Fatal("request on a second slot returned nil buffer")
	}
	if first.Sequence == second.Sequence {
		t.Fatal("two live reservations share a sequence")
	}
	if _, err := q.RequestBuffer(testConfig()); !errors.Is(err, surface.ErrQueueFull) {
		t.Fatalf("third request = %v, want ErrQueueFull", err)
	}

	for _, seq := range []uint64{first.Sequence, second.Sequence} {
		if err := q.CancelBuffer(seq, nil); err != nil {
			t.Errorf("CancelBuffer(%d) = %v", seq, err)
		}
	}
	for _, seq := range []uint64{first.Sequence, second.Sequence} {
		if err := q.CancelBuffer(seq, nil); !errors.Is(err, surface.ErrInvalidSequence) {
			t.Errorf("second CancelBuffer(%d) = %v, want ErrInvalidSequence", seq, err)
		}
	}
}

// Scenario: capacity 1, request, cancel, grow.
func TestRequestCancelSetQueueSize(t *testing.T) {
	q := newTestQueue(t)
	if err := q.SetQueueSize(1); err != nil {
		t.Fatalf("SetQueueSize(1) = %v", err)
	}
	res := mustRequest(t, q, testConfig())
	if err := q.CancelBuffer(res.Sequence, nil); err != nil {
		t.Fatalf("CancelBuffer() = %v", err)
	}
	if err := q.SetQueueSize(2); err != nil {
		t.Fatalf("SetQueueSize(2) = %v", err)
	}
	if q.QueueSize() != 2 {
		t.Errorf("QueueSize() = %d, want 2", q.QueueSize())
	}
}

// P3 and the request/flush/flush scenario.
func TestFlushSingleUse(t *testing.T) {
	q := newTestQueue(t)
	res := mustRequest(t, q, testConfig())
	mustFlush(t, q, res.Sequence)
	err := q.FlushBuffer(res.Sequence, surface.NoFence, surface.BufferFlushConfig{}, nil)
	if !errors.Is(err, surface.ErrInvalidSequence) {
		t.Errorf("second FlushBuffer() = %v, want ErrInvalidSequence", err)
	}
	if err := q.CancelBuffer(res.Sequence, nil); !errors.Is(err, surface.ErrInvalidSequence) {
		t.Errorf("CancelBuffer after flush = %v, want ErrInvalidSequence", err)
	}
}

func TestUnknownSequence(t *testing.T) {
	q := newTestQueue(t)
	for _, seq := range []uint64{0, 1, 1 << 8, 12345} {
		if err := q.CancelBuffer(seq, nil); !errors.Is(err, surface.ErrInvalidSequence) {
			t.Errorf("CancelBuffer(%d) = %v, want ErrInvalidSequence", seq, err)
		}
		if err := q.ReleaseBuffer(seq, surface.NoFence); !errors.Is(err, surface.ErrInvalidSequence) {
			t.Errorf("ReleaseBuffer(%d) = %v, want ErrInvalidSequence", seq, err)
		}
	}
}

// P4: lazy transfer and reallocation.
func TestLazyTransfer(t *testing.T) {
	q := newTestQueue(t)
	cfg := testConfig()

	first := mustRequest(t, q, cfg)
	if first.Buffer == nil {
		t.Fatal("first request returned nil buffer")
	}
	if err := q.CancelBuffer(first.Sequence, nil); err != nil {
		t.Fatalf("CancelBuffer() = %v", err)
	}

	again := mustRequest(t, q, cfg)
	if again.Buffer != nil {
		t.Fatalf("same-config request on the same slot returned %v, want nil", again.Buffer)
	}
	if SlotIndex(again.Sequence) != SlotIndex(first.Sequence) {
		t.Fatalf("request moved from slot %d to %d", SlotIndex(first.Sequence), SlotIndex(again.Sequence))
	}
	if len(again.DeletingBuffers) != 0 {
		t.Errorf("DeletingBuffers = %v, want none", again.DeletingBuffers)
	}
	if err := q.CancelBuffer(again.Sequence, nil); err != nil {
		t.Fatalf("CancelBuffer() = %v", err)
	}

	changed := cfg
	changed.Width = 128
	realloc := mustRequest(t, q, changed)
	if realloc.Buffer == nil {
		t.Fatal("changed-config request returned nil buffer")
	}
	if realloc.Buffer.Width() != 128 {
		t.Errorf("reallocated width = %d, want 128", realloc.Buffer.Width())
	}
	if !slices.Contains(realloc.DeletingBuffers, first.Buffer.ID()) {
		t.Errorf("DeletingBuffers = %v, want to contain %v", realloc.DeletingBuffers, first.Buffer.ID())
	}

	s := q.Stats()
	if s.LazyHits != 1 || s.Reallocations != 2 {
		t.Errorf("LazyHits/Reallocations = %d/%d, want 1/2", s.LazyHits, s.Reallocations)
	}
}

func TestSelectPrefersMatchingSlot(t *testing.T) {
	q := newTestQueue(t)
	small := testConfig()
	large := testConfig()
	large.Width = 256

	a := mustRequest(t, q, small)
	b := mustRequest(t, q, large)
	if err := q.CancelBuffer(a.Sequence, nil); err != nil {
		t.Fatal(err)
	}
	if err := q.CancelBuffer(b.Sequence, nil); err != nil {
		t.Fatal(err)
	}

	res := mustRequest(t, q, large)
	if SlotIndex(res.Sequence) != SlotIndex(b.Sequence) {
		t.Errorf("large request took slot %d, want matching slot %d", SlotIndex(res.Sequence), SlotIndex(b.Sequence))
	}
	if res.Buffer != nil {
		t.Error("matching slot should be a lazy hit")
	}
}

// P5: acquire order follows flush order.
func TestFIFOAcquireOrder(t *testing.T) {
	q := newTestQueue(t)
	var seqs []uint64
	for range 3 {
		seqs = append(seqs, mustRequest(t, q, testConfig()).Sequence)
	}
	order := []int{2, 0, 1}
	for _, i := range order {
		mustFlush(t, q, seqs[i])
	}
	for _, i := range order {
		res, err := q.AcquireBuffer()
		if err != nil {
			t.Fatalf("AcquireBuffer() = %v", err)
		}
		if res.Sequence != seqs[i] {
			t.Errorf("acquired %d, want %d", res.Sequence, seqs[i])
		}
		if res.Buffer == nil {
			t.Error("acquire returned nil buffer")
		}
	}
	if _, err := q.AcquireBuffer(); !errors.Is(err, surface.ErrNoBuffer) {
		t.Errorf("AcquireBuffer on empty queue = %v, want ErrNoBuffer", err)
	}
}

func TestAcquireCarriesFlushData(t *testing.T) {
	q := newTestQueue(t)
	res := mustRequest(t, q, testConfig())

	extra := surface.NewExtraData()
	extra.SetInt32("alpha", 200)
	flush := surface.BufferFlushConfig{Damage: surface.Rect{X: 4, Y: 4, W: 100, H: 100}, Timestamp: 42}
	if err := q.FlushBuffer(res.Sequence, surface.NoFence, flush, extra); err != nil {
		t.Fatalf("FlushBuffer() = %v", err)
	}
	extra.SetInt32("alpha", 0)

	acq, err := q.AcquireBuffer()
	if err != nil {
		t.Fatalf("AcquireBuffer() = %v", err)
	}
	if acq.Timestamp != 42 {
		t.Errorf("Timestamp = %d, want 42", acq.Timestamp)
	}
	if want := (surface.Rect{X: 4, Y: 4, W: 60, H: 28}); acq.Damage != want {
		t.Errorf("Damage = %+v, want %+v", acq.Damage, want)
	}
	if v, _ := acq.ExtraData.GetInt32("alpha"); v != 200 {
		t.Errorf("ExtraData alpha = %d, want 200", v)
	}
	if v, _ := acq.Buffer.ExtraData().GetInt32("alpha"); v != 200 {
		t.Errorf("Buffer.ExtraData alpha = %d, want 200", v)
	}
}

func TestFlushStampsTimestamp(t *testing.T) {
	q := newTestQueue(t)
	res := mustRequest(t, q, testConfig())
	mustFlush(t, q, res.Sequence)
	acq, err := q.AcquireBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if acq.Timestamp <= 0 {
		t.Errorf("Timestamp = %d, want the flush time", acq.Timestamp)
	}
	if want := (surface.Rect{W: 64, H: 32}); acq.Damage != want {
		t.Errorf("empty damage = %+v, want whole buffer", acq.Damage)
	}
}

func TestFlushBadConfigKeepsSlot(t *testing.T) {
	q := newTestQueue(t)
	res := mustRequest(t, q, testConfig())
	bad := surface.BufferFlushConfig{Damage: surface.Rect{W: -1, H: 1}}
	if err := q.FlushBuffer(res.Sequence, surface.NoFence, bad, nil); !errors.Is(err, surface.ErrBadConfig) {
		t.Fatalf("FlushBuffer(bad) = %v, want ErrBadConfig", err)
	}
	mustFlush(t, q, res.Sequence)
}

func TestReleaseCycle(t *testing.T) {
	q := newTestQueue(t)
	if err := q.SetQueueSize(1); err != nil {
		t.Fatal(err)
	}
	res := mustRequest(t, q, testConfig())
	mustFlush(t, q, res.Sequence)

	if err := q.ReleaseBuffer(res.Sequence, surface.NoFence); !errors.Is(err, surface.ErrInvalidSequence) {
		t.Errorf("release of a QUEUED slot = %v, want ErrInvalidSequence", err)
	}
	acq, err := q.AcquireBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if err := q.ReleaseBuffer(acq.Sequence, surface.NoFence); err != nil {
		t.Fatalf("ReleaseBuffer() = %v", err)
	}
	if err := q.ReleaseBuffer(acq.Sequence, surface.NoFence); !errors.Is(err, surface.ErrInvalidSequence) {
		t.Errorf("second ReleaseBuffer() = %v, want ErrInvalidSequence", err)
	}

	next := mustRequest(t, q, testConfig())
	if next.Buffer != nil {
		t.Error("request after release on the same slot should be lazy")
	}
	if next.Sequence == res.Sequence {
		t.Error("sequence reused for a new reservation")
	}
}

func TestReleaseBufferHandle(t *testing.T) {
	q := newTestQueue(t)
	res := mustRequest(t, q, testConfig())
	if err := q.ReleaseBufferHandle(res.Buffer, surface.NoFence); !errors.Is(err, surface.ErrInvalidBuffer) {
		t.Errorf("release of REQUESTED buffer = %v, want ErrInvalidBuffer", err)
	}
	mustFlush(t, q, res.Sequence)
	acq, err := q.AcquireBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if err := q.ReleaseBufferHandle(acq.Buffer, surface.NoFence); err != nil {
		t.Fatalf("ReleaseBufferHandle() = %v", err)
	}
	if err := q.ReleaseBufferHandle(acq.Buffer, surface.NoFence); !errors.Is(err, surface.ErrInvalidBuffer) {
		t.Errorf("second ReleaseBufferHandle() = %v, want ErrInvalidBuffer", err)
	}
	if err := q.ReleaseBufferHandle(nil, surface.NoFence); !errors.Is(err, surface.ErrInvalidBuffer) {
		t.Errorf("ReleaseBufferHandle(nil) = %v, want ErrInvalidBuffer", err)
	}
}

// P6: queue size bounds.
func TestSetQueueSizeBounds(t *testing.T) {
	q := newTestQueue(t)
	for _, n := range []int{0, -1, surface.MaxQueueSize + 1} {
		if err := q.SetQueueSize(n); !errors.Is(err, surface.ErrOutOfRange) {
			t.Errorf("SetQueueSize(%d) = %v, want ErrOutOfRange", n, err)
		}
	}
	if err := q.SetQueueSize(surface.MaxQueueSize); err != nil {
		t.Errorf("SetQueueSize(max) = %v", err)
	}
	if err := q.SetQueueSize(surface.DefaultQueueSize); err != nil {
		t.Errorf("SetQueueSize(default) = %v", err)
	}
	if q.QueueSize() != surface.DefaultQueueSize {
		t.Errorf("QueueSize() = %d, want %d", q.QueueSize(), surface.DefaultQueueSize)
	}
}

func TestShrinkBusy(t *testing.T) {
	q := newTestQueue(t)
	a := mustRequest(t, q, testConfig())
	b := mustRequest(t, q, testConfig())
	_ = a

	if err := q.SetQueueSize(1); !errors.Is(err, surface.ErrQueueBusy) {
		t.Fatalf("shrink over a REQUESTED slot = %v, want ErrQueueBusy", err)
	}
	if q.QueueSize() != surface.DefaultQueueSize {
		t.Errorf("failed shrink changed capacity to %d", q.QueueSize())
	}
	if err := q.CancelBuffer(b.Sequence, nil); err != nil {
		t.Fatal(err)
	}
	if err := q.SetQueueSize(1); err != nil {
		t.Fatalf("shrink with FREE tail = %v", err)
	}

	// The dropped buffer is reported by the next request.
	if err := q.CancelBuffer(a.Sequence, nil); err != nil {
		t.Fatal(err)
	}
	res := mustRequest(t, q, testConfig())
	if !slices.Contains(res.DeletingBuffers, b.Buffer.ID()) {
		t.Errorf("DeletingBuffers = %v, want to contain %v", res.DeletingBuffers, b.Buffer.ID())
	}
	if s := q.Stats(); s.Slots != 1 {
		t.Errorf("Slots = %d, want 1", s.Slots)
	}
}

func TestShrinkOverQueuedSlot(t *testing.T) {
	q := newTestQueue(t)
	a := mustRequest(t, q, testConfig())
	b := mustRequest(t, q, testConfig())
	mustFlush(t, q, b.Sequence)
	if err := q.CancelBuffer(a.Sequence, nil); err != nil {
		t.Fatal(err)
	}
	if err := q.SetQueueSize(1); !errors.Is(err, surface.ErrQueueBusy) {
		t.Errorf("shrink over a QUEUED slot = %v, want ErrQueueBusy", err)
	}
}

func TestCleanCache(t *testing.T) {
	q := newTestQueue(t)
	res := mustRequest(t, q, testConfig())
	if err := q.CancelBuffer(res.Sequence, nil); err != nil {
		t.Fatal(err)
	}
	if err := q.CleanCache(); err != nil {
		t.Fatalf("CleanCache() = %v", err)
	}
	next := mustRequest(t, q, testConfig())
	if next.Buffer == nil {
		t.Error("request after CleanCache should deliver a fresh buffer")
	}
	if !slices.Contains(next.DeletingBuffers, res.Buffer.ID()) {
		t.Errorf("DeletingBuffers = %v, want to contain %v", next.DeletingBuffers, res.Buffer.ID())
	}
}

type failingAllocator struct{ calls atomic.Int32 }

func (a *failingAllocator) Name() string { return "failing" }

func (a *failingAllocator) Alloc(surface.BufferRequestConfig) (*surface.Buffer, error) {
	a.calls.Add(1)
	return nil, surface.ErrAllocFailed
}

func TestAllocFailureLeavesQueueUnchanged(t *testing.T) {
	alloc := &failingAllocator{}
	q := New(WithAllocator(alloc))
	if err := q.Init("failing"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = q.Close() })

	if _, err := q.RequestBuffer(testConfig()); !errors.Is(err, surface.ErrAllocFailed) {
		t.Fatalf("RequestBuffer() = %v, want ErrAllocFailed", err)
	}
	s := q.Stats()
	if s.Slots != 0 || s.Requests != 0 {
		t.Errorf("failed allocation left Slots=%d Requests=%d", s.Slots, s.Requests)
	}
}

func TestConsumerListener(t *testing.T) {
	q := newTestQueue(t)
	var calls atomic.Int32
	if err := q.RegisterConsumerListener(surface.ConsumerListenerFunc(func() { calls.Add(1) })); err != nil {
		t.Fatal(err)
	}
	res := mustRequest(t, q, testConfig())
	if calls.Load() != 0 {
		t.Error("listener called on request")
	}
	mustFlush(t, q, res.Sequence)
	if calls.Load() != 1 {
		t.Errorf("listener calls = %d, want 1 after flush", calls.Load())
	}

	// Last registration wins.
	var second atomic.Int32
	_ = q.RegisterConsumerListener(surface.ConsumerListenerFunc(func() { second.Add(1) }))
	mustFlush(t, q, mustRequest(t, q, testConfig()).Sequence)
	if calls.Load() != 1 || second.Load() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", calls.Load(), second.Load())
	}

	q.UnregisterConsumerListener()
	mustFlush(t, q, mustRequest(t, q, testConfig()).Sequence)
	if second.Load() != 1 {
		t.Error("unregistered listener was called")
	}
}

func TestListenerMayReenter(t *testing.T) {
	q := newTestQueue(t)
	acquired := make(chan uint64, 1)
	_ = q.RegisterConsumerListener(surface.ConsumerListenerFunc(func() {
		res, err := q.AcquireBuffer()
		if err != nil {
			t.Errorf("AcquireBuffer from listener = %v", err)
			return
		}
		acquired <- res.Sequence
	}))
	res := mustRequest(t, q, testConfig())
	mustFlush(t, q, res.Sequence)
	if got := <-acquired; got != res.Sequence {
		t.Errorf("listener acquired %d, want %d", got, res.Sequence)
	}
}

func TestReleaseListenerAndFence(t *testing.T) {
	q := newTestQueue(t)
	var released []surface.BufferID
	q.RegisterReleaseListener(surface.ReleaseListenerFunc(func(id surface.BufferID) {
		released = append(released, id)
	}))

	res := mustRequest(t, q, testConfig())
	if res.ReleaseFence != surface.NoFence {
		t.Errorf("first request release fence = %d, want NoFence", res.ReleaseFence)
	}
	mustFlush(t, q, res.Sequence)
	acq, err := q.AcquireBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if err := q.ReleaseBuffer(acq.Sequence, surface.NoFence); err != nil {
		t.Fatal(err)
	}
	if len(released) != 1 || released[0] != res.Buffer.ID() {
		t.Errorf("released = %v, want [%v]", released, res.Buffer.ID())
	}
}

func TestClose(t *testing.T) {
	alloc := surface.NewMemoryAllocator()
	q := New(WithAllocator(alloc))
	if err := q.Init("close"); err != nil {
		t.Fatal(err)
	}
	a := mustRequest(t, q, testConfig())
	b := mustRequest(t, q, testConfig())
	mustFlush(t, q, b.Sequence)
	a.Buffer.Unref()
	b.Buffer.Unref()

	if err := q.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if alloc.Live() != 0 {
		t.Errorf("Live() after Close = %d, want 0", alloc.Live())
	}
	if _, err := q.RequestBuffer(testConfig()); !errors.Is(err, surface.ErrQueueClosed) {
		t.Errorf("RequestBuffer after Close = %v, want ErrQueueClosed", err)
	}
	if _, err := q.AcquireBuffer(); !errors.Is(err, surface.ErrQueueClosed) {
		t.Errorf("AcquireBuffer after Close = %v, want ErrQueueClosed", err)
	}
}

func TestSlotIndex(t *testing.T) {
	for idx := range surface.MaxQueueSize {
		for _, gen := range []uint64{1, 2, 255, 1 << 40} {
			if got := SlotIndex(makeSequence(gen, idx)); got != idx {
				t.Errorf("SlotIndex(makeSequence(%d, %d)) = %d", gen, idx, got)
			}
		}
	}
}

func TestSlotStateString(t *testing.T) {
	tests := map[SlotState]string{
		StateFree:      "FREE",
		StateRequested: "REQUESTED",
		StateQueued:    "QUEUED",
		StateAcquired:  "ACQUIRED",
		SlotState(9):   "SlotState(9)",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestDump(t *testing.T) {
	q := newTestQueue(t)
	res := mustRequest(t, q, testConfig())
	mustFlush(t, q, res.Sequence)
	out := q.Dump()
	for _, want := range []string{"QUEUED", "capacity=3", "TestDump"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump() missing %q:\n%s", want, out)
		}
	}
}

// Sequences stay unique among live reservations and slots are never double
// booked while a producer and a consumer run concurrently.
func TestConcurrentProducerConsumer(t *testing.T) {
	q := newTestQueue(t)
	const frames = 500

	available := make(chan struct{}, frames)
	_ = q.RegisterConsumerListener(surface.ConsumerListenerFunc(func() {
		available <- struct{}{}
	}))

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < frames; {
			res, err := q.RequestBuffer(testConfig())
			if errors.Is(err, surface.ErrQueueFull) {
				continue
			}
			if err != nil {
				t.Errorf("RequestBuffer() = %v", err)
				return
			}
			extra := surface.NewExtraData()
			extra.SetInt64("frame", int64(i))
			if err := q.FlushBuffer(res.Sequence, surface.NoFence, surface.BufferFlushConfig{}, extra); err != nil {
				t.Errorf("FlushBuffer() = %v", err)
				return
			}
			i++
		}
	}()

	go func() {
		defer wg.Done()
		for want := int64(0); want < frames; want++ {
			<-available
			res, err := q.AcquireBuffer()
			if err != nil {
				t.Errorf("AcquireBuffer() = %v", err)
				return
			}
			if got, _ := res.ExtraData.GetInt64("frame"); got != want {
				t.Errorf("acquired frame %d, want %d", got, want)
			}
			if err := q.ReleaseBuffer(res.Sequence, surface.NoFence); err != nil {
				t.Errorf("ReleaseBuffer() = %v", err)
				return
			}
		}
	}()
	wg.Wait()

	s := q.Stats()
	if s.Flushes != frames || s.Acquires != frames || s.Releases != frames {
		t.Errorf("stats = %v", s)
	}
	if s.Slots > q.QueueSize() {
		t.Errorf("Slots = %d exceeds capacity %d", s.Slots, q.QueueSize())
	}
}

func BenchmarkRequestFlushAcquireRelease(b *testing.B) {
	q := New(WithAllocator(surface.NewMemoryAllocator()))
	if err := q.Init("bench"); err != nil {
		b.Fatal(err)
	}
	defer q.Close()
	cfg := testConfig()
	b.ReportAllocs()
	for b.Loop() {
		res, _ := q.RequestBuffer(cfg)
		_ = q.FlushBuffer(res.Sequence, surface.NoFence, surface.BufferFlushConfig{Timestamp: 1}, nil)
		acq, _ := q.AcquireBuffer()
		_ = q.ReleaseBuffer(acq.Sequence, surface.NoFence)
	}
}
