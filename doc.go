// SPDX-License-Identifier: EPL-2.0

// Package audsrv is a real-time audio server: a block scheduler that runs
// processing units in registration order and mixes them into interleaved
// output channels.
//
// The engine lives in the server package. Units live in units, decoders in
// formats and the drivers that call the per-block callback in backend. This
// package adds helpers for rendering a server offline:
//
//	srv := server.New(server.DefaultConfig())
//	_ = srv.Boot(true)
//	sine, _ := units.NewSine(srv, units.Const(440))
//	sine.Out(0)
//	samples, err := audsrv.Render(context.Background(), srv, 172)
//
// and for converting decoded files to mono 16-bit PCM at a fixed rate.
package audsrv
