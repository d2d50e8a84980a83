// SPDX-License-Identifier: EPL-2.0

package units

import "errors"

var (
	ErrNilServer  = errors.New("unit needs a server")
	ErrNilInput   = errors.New("unit needs an input")
	ErrFilterType = errors.New("unknown filter type")
	ErrNotFinite  = errors.New("value is NaN or infinite")
)
