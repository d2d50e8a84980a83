// SPDX-License-Identifier: EPL-2.0

package units

import "github.com/ik5/audsrv/server"

// Sig turns a constant or another unit's block into a stream.
type Sig struct {
	Base
	value *paramSlot
}

func NewSig(srv *server.Server, value Param) (*Sig, error) {
	s := &Sig{value: newParamSlot(value)}
	if err := s.init(srv, s.compute); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sig) SetValue(p Param) { s.value.store(p) }

func (s *Sig) compute() error {
	p := s.value.load()
	if !p.IsStream() {
		for i := range s.buf {
			s.buf[i] = p.value
		}
		return nil
	}

	src := p.block()
	for i := range s.buf {
		s.buf[i] = at(src, i, 0)
	}
	return nil
}
