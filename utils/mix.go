// SPDX-License-Identifier: EPL-2.0

package utils

// AddInterleaved adds the mono block src into channel ch of the interleaved buffer dst,
// which holds frames of `channels` samples. Samples are summed, never overwritten.
// Frames beyond either buffer are ignored.
func AddInterleaved(dst, src []float32, ch, channels int) {
	if channels <= 0 || ch < 0 || ch >= channels {
		return
	}

	frames := min(len(src), len(dst)/channels)
	if channels == 1 {
		for i := range frames {
			dst[i] += src[i]
		}
		return
	}

	for i := range frames {
		dst[i*channels+ch] += src[i]
	}
}

// ExtractChannel copies channel ch of the interleaved buffer src into the mono block dst.
func ExtractChannel(dst, src []float32, ch, channels int) int {
	if channels <= 0 || ch < 0 || ch >= channels {
		return 0
	}

	frames := min(len(dst), len(src)/channels)
	for i := range frames {
		dst[i] = src[i*channels+ch]
	}

	return frames
}
