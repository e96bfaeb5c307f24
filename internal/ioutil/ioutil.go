// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package ioutil

import (
	"io"

	"github.com/z5labs/httpwire/internal/try"
)

// ReadAllAndTryClose reads r to EOF and closes it, if possible, on every path.
func ReadAllAndTryClose(r io.Reader) (_ []byte, err error) {
	defer try.Close(&err, r)
	return io.ReadAll(r)
}

// CopyAndTryClose copies src to dst and closes src, if possible, on every path.
func CopyAndTryClose(dst io.Writer, src io.Reader) (_ int64, err error) {
	defer try.Close(&err, src)
	return io.Copy(dst, src)
}
