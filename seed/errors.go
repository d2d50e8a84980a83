// SPDX-License-Identifier: EPL-2.0

package seed

import "errors"

var (
	ErrUnknownKind = errors.New("unknown randomized object kind")
)
