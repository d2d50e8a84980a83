// SPDX-License-Identifier: EPL-2.0

package units

type postMode int

const (
	postNone postMode = iota
	postConst
	postStream
)

func modeOf(p Param, identity float32) postMode {
	switch {
	case p.IsStream():
		return postStream
	case p.value == identity:
		return postNone
	default:
		return postConst
	}
}

// resolvePost picks the post-processing routine for a mul/add pair. It runs
// on parameter changes, never per sample. A nil result leaves the block as is.
func resolvePost(mul, add Param) func([]float32) {
	m, a := mul.value, add.value

	switch [2]postMode{modeOf(mul, 1), modeOf(add, 0)} {
	case [2]postMode{postNone, postNone}:
		return nil

	case [2]postMode{postConst, postNone}:
		return func(buf []float32) {
			for i := range buf {
				buf[i] *= m
			}
		}

	case [2]postMode{postNone, postConst}:
		return func(buf []float32) {
			for i := range buf {
				buf[i] += a
			}
		}

	case [2]postMode{postConst, postConst}:
		return func(buf []float32) {
			for i := range buf {
				buf[i] = buf[i]*m + a
			}
		}

	case [2]postMode{postStream, postNone}:
		return func(buf []float32) {
			mb := mul.block()
			for i := range buf {
				buf[i] *= at(mb, i, 1)
			}
		}

	case [2]postMode{postNone, postStream}:
		return func(buf []float32) {
			ab := add.block()
			for i := range buf {
				buf[i] += at(ab, i, 0)
			}
		}

	case [2]postMode{postStream, postConst}:
		return func(buf []float32) {
			mb := mul.block()
			for i := range buf {
				buf[i] = buf[i]*at(mb, i, 1) + a
			}
		}

	case [2]postMode{postConst, postStream}:
		return func(buf []float32) {
			ab := add.block()
			for i := range buf {
				buf[i] = buf[i]*m + at(ab, i, 0)
			}
		}

	default:
		return func(buf []float32) {
			mb, ab := mul.block(), add.block()
			for i := range buf {
				buf[i] = buf[i]*at(mb, i, 1) + at(ab, i, 0)
			}
		}
	}
}
