// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Usage specifies how a buffer will be accessed.
// Flags can be combined with bitwise OR.
type Usage uint64

const (
	// UsageCPURead allows the CPU to read buffer contents.
	UsageCPURead Usage = 1 << iota

	// UsageCPUWrite allows the CPU to write buffer contents.
	UsageCPUWrite

	// UsageMemDMA requests memory that can be shared with display hardware.
	UsageMemDMA

	// UsageRender allows the buffer to be a GPU render attachment.
	UsageRender

	// UsageTexture allows the buffer to be sampled as a GPU texture.
	UsageTexture

	// UsageCopySrc allows the buffer to be a GPU copy source.
	UsageCopySrc

	// UsageCopyDst allows the buffer to be a GPU copy destination.
	UsageCopyDst
)

const usageAll = UsageCPURead | UsageCPUWrite | UsageMemDMA |
	UsageRender | UsageTexture | UsageCopySrc | UsageCopyDst

// Contains reports whether u includes every bit of flag.
func (u Usage) Contains(flag Usage) bool {
	return u&flag == flag
}

// ContainsUnknownBits reports whether u has bits outside the defined flags.
func (u Usage) ContainsUnknownBits() bool {
	return u&^usageAll != 0
}

// HostVisible reports whether the buffer needs CPU-addressable memory.
func (u Usage) HostVisible() bool {
	return u&(UsageCPURead|UsageCPUWrite|UsageMemDMA) != 0
}

// TextureUsage maps the GPU-facing flags onto WebGPU texture usage.
// CPU and DMA flags have no texture equivalent and are dropped.
func (u Usage) TextureUsage() gputypes.TextureUsage {
	var tu gputypes.TextureUsage
	if u.Contains(UsageRender) {
		tu |= gputypes.TextureUsageRenderAttachment
	}
	if u.Contains(UsageTexture) {
		tu |= gputypes.TextureUsageTextureBinding
	}
	if u.Contains(UsageCopySrc) {
		tu |= gputypes.TextureUsageCopySrc
	}
	if u.Contains(UsageCopyDst) {
		tu |= gputypes.TextureUsageCopyDst
	}
	return tu
}

// String returns the flags joined with '|', e.g. "CPU_READ|CPU_WRITE".
func (u Usage) String() string {
	if u == 0 {
		return "NONE"
	}
	names := []struct {
		flag Usage
		name string
	}{
		{UsageCPURead, "CPU_READ"},
		{UsageCPUWrite, "CPU_WRITE"},
		{UsageMemDMA, "MEM_DMA"},
		{UsageRender, "RENDER"},
		{UsageTexture, "TEXTURE"},
		{UsageCopySrc, "COPY_SRC"},
		{UsageCopyDst, "COPY_DST"},
	}
	var parts []string
	for _, n := range names {
		if u.Contains(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if u.ContainsUnknownBits() {
		parts = append(parts, "UNKNOWN")
	}
	return strings.Join(parts, "|")
}
