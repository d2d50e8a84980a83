// SPDX-License-Identifier: EPL-2.0

package units

import (
	"github.com/ik5/audsrv/server"
	"github.com/ik5/audsrv/utils"
)

// Input reads one channel of the server input block. The channel wraps
// around the input channel count. A server that is not duplex yields silence.
type Input struct {
	Base
	chnl int
}

func NewInput(srv *server.Server, chnl int) (*Input, error) {
	in := &Input{chnl: chnl}
	if err := in.init(srv, in.compute); err != nil {
		return nil, err
	}
	return in, nil
}

func (in *Input) compute() error {
	if !in.srv.Duplex() {
		clear(in.buf)
		return nil
	}

	ichnls := in.srv.Ichnls()
	ch := in.chnl % ichnls
	if ch < 0 {
		ch += ichnls
	}

	n := utils.ExtractChannel(in.buf, in.srv.InputBuffer(), ch, ichnls)
	clear(in.buf[n:])

	return nil
}
