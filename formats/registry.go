// SPDX-License-Identifier: EPL-2.0

// Package formats wires the bundled decoders into an audio.Registry.
package formats

import (
	"github.com/ik5/audsrv/audio"
	"github.com/ik5/audsrv/formats/aiff"
	"github.com/ik5/audsrv/formats/mp3"
	"github.com/ik5/audsrv/formats/vorbis"
	"github.com/ik5/audsrv/formats/wav"
)

// NewRegistry returns a registry keyed by file extension with every bundled
// decoder.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})

	return r
}
