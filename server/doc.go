// SPDX-License-Identifier: EPL-2.0

// Package server implements the audio server: the fixed-size block scheduler that
// owns the I/O buffers and drives an ordered registry of streams once per audio
// callback.
//
// # Lifecycle
//
// A server is configured, booted, started, stopped and shut down:
//
//	srv := server.New(server.DefaultConfig(), server.WithLogger(logger))
//	srv.Boot(true)  // allocate and zero the I/O buffers
//	srv.Start()
//	// ... backend calls srv.ProcessBuffers() once per block ...
//	srv.Shutdown()
//	srv.Close()
//
// Sequencing mistakes (booting twice, starting an unbooted server, ...) never
// panic: they are logged through the verbosity mask and return a sentinel error
// the caller is free to ignore.
//
// # Streams
//
// Every unit owns one Stream. The stream carries a view of the unit's output
// block, its compute function, an active flag, output routing and the duration
// and delayed-start counters. ProcessBuffers walks the registry in registration
// order; producers must be registered before their consumers, and
// ChangeStreamPosition lets a graph builder fix the order afterwards.
//
// # Concurrency
//
// ProcessBuffers runs on the audio thread and holds the registry lock for the
// whole block. Registry mutation from the control thread waits for the block
// boundary. AddStream, RemoveStream, ChangeStreamPosition, Shutdown and Close
// called from the per-block hook or a compute function are queued and applied
// when the walk ends, so the hook can spawn and retire voices.
//
// # Embedding
//
// Table is a bounded arena of up to MaxServers servers addressed by slot id.
// ProcessEmbedded drives one block of the server in a slot, which is what a
// plugin host running several engines in one process uses.
package server
