// SPDX-License-Identifier: EPL-2.0

// Package backend drives server.Server.ProcessBuffers from a clock.
//
// Offline renders a fixed number of blocks as fast as possible, Clock paces
// blocks on the wall clock for headless runs, and Oto pulls blocks from the
// sound card through github.com/ebitengine/oto/v3. Build with the headless
// tag to drop the device dependency.
package backend
