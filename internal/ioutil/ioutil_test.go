// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package ioutil

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type readCloser struct {
	io.Reader
	closed   int
	closeErr error
}

func (rc *readCloser) Close() error {
	rc.closed++
	return rc.closeErr
}

type readFunc func([]byte) (int, error)

func (f readFunc) Read(b []byte) (int, error) {
	return f(b)
}

func TestReadAllAndTryClose(t *testing.T) {
	t.Run("will close the reader", func(t *testing.T) {
		t.Run("if everything is read successfully", func(t *testing.T) {
			rc := &readCloser{Reader: strings.NewReader("hello")}

			b, err := ReadAllAndTryClose(rc)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "hello", string(b)) {
				return
			}
			if !assert.Equal(t, 1, rc.closed) {
				return
			}
		})

		t.Run("if the read fails", func(t *testing.T) {
			readErr := errors.New("failed to read")
			rc := &readCloser{
				Reader: readFunc(func(b []byte) (int, error) {
					return 0, readErr
				}),
			}

			_, err := ReadAllAndTryClose(rc)
			if !assert.ErrorIs(t, err, readErr) {
				return
			}
			if !assert.Equal(t, 1, rc.closed) {
				return
			}
		})
	})

	t.Run("will return the close error", func(t *testing.T) {
		t.Run("if closing fails", func(t *testing.T) {
			closeErr := errors.New("failed to close")
			rc := &readCloser{Reader: strings.NewReader("hello"), closeErr: closeErr}

			_, err := ReadAllAndTryClose(rc)
			if !assert.ErrorIs(t, err, closeErr) {
				return
			}
		})
	})
}

func TestCopyAndTryClose(t *testing.T) {
	t.Run("will copy every byte", func(t *testing.T) {
		t.Run("if the source is not a closer", func(t *testing.T) {
			var buf bytes.Buffer

			n, err := CopyAndTryClose(&buf, strings.NewReader("abc"))
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, int64(3), n) {
				return
			}
			if !assert.Equal(t, "abc", buf.String()) {
				return
			}
		})
	})
}
