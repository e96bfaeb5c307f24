// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package message

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrPrecondition is matched by every [PreconditionError].
	ErrPrecondition = errors.New("precondition violation")

	// ErrNotFound is matched by every [NotFoundError].
	ErrNotFound = errors.New("not found")
)

// PreconditionError reports a programmer error, e.g. an empty method or
// a URL without a host. Fluent setters panic with it; operations like
// sending a request return it.
type PreconditionError struct {
	Name   string
	Reason string
}

// Error implements the [builtin.error] interface.
func (e PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for %s: %s", e.Name, e.Reason)
}

// Is allows errors.Is(err, ErrPrecondition).
func (e PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// NotFoundError is returned when a header lookup finds nothing.
type NotFoundError struct {
	Header string
}

// Error implements the [builtin.error] interface.
func (e NotFoundError) Error() string {
	return fmt.Sprintf("no %s header found", strconv.Quote(e.Header))
}

// Is allows errors.Is(err, ErrNotFound).
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidContentLengthError occurs when the Content-Length header
// is present but is not a non-negative integer.
type InvalidContentLengthError struct {
	Value string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidContentLengthError) Error() string {
	return fmt.Sprintf("invalid content length %s: %s", strconv.Quote(e.Value), e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidContentLengthError) Unwrap() error {
	return e.Cause
}

func precondition(name, reason string) {
	panic(PreconditionError{Name: name, Reason: reason})
}
