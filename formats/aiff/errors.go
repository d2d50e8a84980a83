// SPDX-License-Identifier: EPL-2.0

package aiff

import "errors"

var (
	// ErrNotAiffFile indicates the file is not a valid AIFF file
	ErrNotAiffFile = errors.New("not an AIFF file")

	// ErrUnsupportedDepth indicates a bit depth other than 8, 16, 24 or 32
	ErrUnsupportedDepth = errors.New("unsupported AIFF bit depth")

	// ErrUnsupportedAiffLayout indicates a header without channels or rate
	ErrUnsupportedAiffLayout = errors.New("unsupported AIFF layout")
)
