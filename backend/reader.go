// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"encoding/binary"
	"math"

	"github.com/ik5/audsrv/server"
)

// blockReader serves the server output as float32 little-endian bytes,
// computing a new block whenever the previous one is consumed. A failing
// block is delivered as silence.
type blockReader struct {
	srv     *server.Server
	pending []byte
	buf     []byte
	onError func(error)
}

func newBlockReader(srv *server.Server, onError func(error)) *blockReader {
	return &blockReader{srv: srv, onError: onError}
}

func (r *blockReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) == 0 {
			r.next()
		}
		c := copy(p[n:], r.pending)
		r.pending = r.pending[c:]
		n += c
	}

	return n, nil
}

func (r *blockReader) next() {
	err := r.srv.ProcessBuffers()
	out := r.srv.OutputBuffer()

	if cap(r.buf) < 4*len(out) {
		r.buf = make([]byte, 4*len(out))
	}
	r.buf = r.buf[:4*len(out)]

	if err != nil {
		clear(r.buf)
		if r.onError != nil {
			r.onError(err)
		}
	} else {
		for i, v := range out {
			binary.LittleEndian.PutUint32(r.buf[4*i:], math.Float32bits(v))
		}
	}

	if len(r.buf) == 0 {
		// Keep Read from spinning on an unbooted server without buffers.
		r.buf = append(r.buf, 0, 0, 0, 0)
	}
	r.pending = r.buf
}
