// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package codec

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrProtocol is matched, via errors.Is, by every error which means the
// bytes on the connection were not a well framed HTTP/1.1 message. A
// connection which produced one must not be reused.
var ErrProtocol = errors.New("http protocol error")

// EmptyMessageError occurs when the stream ends before a start line.
type EmptyMessageError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e EmptyMessageError) Error() string {
	return fmt.Sprintf("stream ended before a start line was read: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e EmptyMessageError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, ErrProtocol).
func (e EmptyMessageError) Is(target error) bool {
	return target == ErrProtocol
}

// MalformedStartLineError occurs when a request or status line is
// missing one of its space separated components.
type MalformedStartLineError struct {
	Line  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e MalformedStartLineError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("malformed start line: %s", strconv.Quote(e.Line))
	}
	return fmt.Sprintf("malformed start line: %s: %s", strconv.Quote(e.Line), e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e MalformedStartLineError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, ErrProtocol).
func (e MalformedStartLineError) Is(target error) bool {
	return target == ErrProtocol
}

// InvalidStatusCodeError occurs when the status line's code is not an integer.
type InvalidStatusCodeError struct {
	Value string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidStatusCodeError) Error() string {
	return fmt.Sprintf("invalid status code %s: %s", strconv.Quote(e.Value), e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidStatusCodeError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, ErrProtocol).
func (e InvalidStatusCodeError) Is(target error) bool {
	return target == ErrProtocol
}

// MalformedHeaderError occurs in strict mode when a header line has no
// colon or no name.
type MalformedHeaderError struct {
	Line string
}

// Error implements the [builtin.error] interface.
func (e MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed header line: %s", strconv.Quote(e.Line))
}

// Is allows errors.Is(err, ErrProtocol).
func (e MalformedHeaderError) Is(target error) bool {
	return target == ErrProtocol
}

// TruncatedHeaderError occurs when the stream ends inside the header block.
type TruncatedHeaderError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e TruncatedHeaderError) Error() string {
	return fmt.Sprintf("stream ended before the end of the header block: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TruncatedHeaderError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, ErrProtocol).
func (e TruncatedHeaderError) Is(target error) bool {
	return target == ErrProtocol
}

// LineTooLongError occurs when a start or header line exceeds the limit.
type LineTooLongError struct {
	Limit int
}

// Error implements the [builtin.error] interface.
func (e LineTooLongError) Error() string {
	return fmt.Sprintf("line exceeds %d bytes", e.Limit)
}

// Is allows errors.Is(err, ErrProtocol).
func (e LineTooLongError) Is(target error) bool {
	return target == ErrProtocol
}

// TruncatedBodyError occurs when fewer than Content-Length body bytes
// could be read.
type TruncatedBodyError struct {
	Expected int64
	Read     int64
	Cause    error
}

// Error implements the [builtin.error] interface.
func (e TruncatedBodyError) Error() string {
	return fmt.Sprintf("read %d of %d body bytes: %s", e.Read, e.Expected, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TruncatedBodyError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, ErrProtocol).
func (e TruncatedBodyError) Is(target error) bool {
	return target == ErrProtocol
}
