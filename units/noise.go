// SPDX-License-Identifier: EPL-2.0

package units

import (
	"github.com/ik5/audsrv/seed"
	"github.com/ik5/audsrv/server"
)

// Noise is white noise drawn from the server's shared generator. Creating it
// reseeds the generator, so with a global seed set every run produces the
// same samples.
type Noise struct {
	Base
	gen *seed.Generator
}

func NewNoise(srv *server.Server) (*Noise, error) {
	if srv == nil {
		return nil, ErrNilServer
	}

	n := &Noise{gen: srv.Seeds()}
	if _, err := n.gen.GenerateSeed(seed.KindNoise); err != nil {
		return nil, err
	}
	if err := n.init(srv, n.compute); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Noise) compute() error {
	n.gen.Fill(n.buf)
	return nil
}
