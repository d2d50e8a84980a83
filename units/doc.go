// SPDX-License-Identifier: EPL-2.0

// Package units contains processing nodes that plug into a server.Server.
//
// Every unit embeds Base, which owns the unit's output block and its
// server.Stream, registers the stream on construction and applies the mul/add
// post-processing after each compute. Units read each other through the
// Output interface; a unit must be created after the units it reads so it
// computes after them in the registry.
//
//	srv := server.New(server.DefaultConfig())
//	_ = srv.Boot(true)
//	sine, _ := units.NewSine(srv, units.Const(440))
//	sine.SetMul(units.Const(0.2))
//	sine.Out(0)
//
// Constructors fail only when the server rejects the stream, which happens
// when it is not booted.
package units
