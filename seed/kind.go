// SPDX-License-Identifier: EPL-2.0

package seed

// Kind identifies a category of randomized unit. Each kind keeps its own
// invocation counter and prime multiplier.
type Kind int

const (
	KindChoice Kind = iota
	KindRandInt
	KindRandi
	KindRandh
	KindRandDur
	KindXnoise
	KindXnoiseMidi
	KindXnoiseDur
	KindUrn
	KindNoise
	KindPinkNoise
	KindBrownNoise
	KindTrigRand
	KindTrigRandInt
	KindTrigChoice
	KindTrigXnoise
	KindTrigXnoiseMidi
	KindBeater
	KindEuclide
	KindLogiMap
	KindGranulator
	KindGranule
	KindParticle
	KindLooper
	KindMarkerShuffler
	KindMarkerLooper
	KindMarkov
	KindJitter
	KindScatter

	NumKinds int = iota
)

var kindPrimes = [NumKinds]uint64{
	2111, 2423, 3359, 3463, 3671, 4919, 5023, 5231, 5647, 6271,
	6791, 7103, 7207, 7727, 8039, 8663, 9391, 10223, 10639, 10847,
	11159, 11471, 11783, 11887, 12511, 12823, 13759, 13967, 14071,
}

var kindNames = [NumKinds]string{
	"choice", "randint", "randi", "randh", "randdur", "xnoise", "xnoisemidi",
	"xnoisedur", "urn", "noise", "pinknoise", "brownnoise", "trigrand",
	"trigrandint", "trigchoice", "trigxnoise", "trigxnoisemidi", "beater",
	"euclide", "logimap", "granulator", "granule", "particle", "looper",
	"markershuffler", "markerlooper", "markov", "jitter", "scatter",
}

// Valid reports whether k is one of the recognised kinds.
func (k Kind) Valid() bool { return k >= 0 && int(k) < NumKinds }

// Prime returns the multiplier of k, or 0 for an unknown kind.
func (k Kind) Prime() uint64 {
	if !k.Valid() {
		return 0
	}
	return kindPrimes[k]
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}
