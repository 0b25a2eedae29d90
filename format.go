// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import "github.com/gogpu/gputypes"

// bytesPerPixel lists the pixel formats a buffer can be requested in.
// Depth, stencil and block-compressed formats are not shareable between
// a producer and a compositor and are rejected.
var bytesPerPixel = map[gputypes.TextureFormat]int{
	gputypes.TextureFormatR8Unorm:        1,
	gputypes.TextureFormatRG8Unorm:       2,
	gputypes.TextureFormatRGBA8Unorm:     4,
	gputypes.TextureFormatRGBA8UnormSrgb: 4,
	gputypes.TextureFormatBGRA8Unorm:     4,
	gputypes.TextureFormatBGRA8UnormSrgb: 4,
	gputypes.TextureFormatRGB10A2Unorm:   4,
	gputypes.TextureFormatRGBA16Float:    8,
}

// BytesPerPixel returns the size of one pixel of format f.
// The second result is false for formats buffers cannot use.
func BytesPerPixel(f gputypes.TextureFormat) (int, bool) {
	n, ok := bytesPerPixel[f]
	return n, ok
}

// IsSupportedFormat reports whether buffers can be requested in format f.
func IsSupportedFormat(f gputypes.TextureFormat) bool {
	_, ok := bytesPerPixel[f]
	return ok
}

// isRGBA8 reports whether f stores four 8-bit channels in RGBA order,
// which is the layout of image.RGBA.
func isRGBA8(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatRGBA8Unorm || f == gputypes.TextureFormatRGBA8UnormSrgb
}
