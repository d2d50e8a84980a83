// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes big-endian integer PCM AIFF files through
// github.com/go-audio/aiff.
//
// Depths of 8, 16, 24 and 32 bits are accepted. Compressed AIFF-C payloads
// report ErrUnsupportedAiffLayout or ErrNotAiffFile depending on how far the
// header parses.
package aiff
