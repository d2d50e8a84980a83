// SPDX-License-Identifier: EPL-2.0

// Package seed provides the deterministic pseudo-random generator shared by the
// units of one server.
//
// A single linear-congruential state is advanced by Rand. Units that randomize
// their behaviour call GenerateSeed with their Kind when they are created; that
// reseeds the shared state from the configured global seed and a per-kind call
// counter, so identical seeds and identical construction order reproduce
// identical output:
//
//	gen := seed.NewGenerator()
//	gen.SetGlobalSeed(1234)
//	gen.GenerateSeed(seed.KindNoise)
//	x := gen.Uniform()
//
// With a global seed of 0 the seed is derived from the wall clock instead and
// runs are not reproducible.
package seed
