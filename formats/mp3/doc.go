// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG Layer III streams with
// github.com/hajimehoshi/go-mp3.
//
// The decoder always reports two channels; mono files come out duplicated.
// Use audio.Conform to fold and resample the result for a server.
package mp3
