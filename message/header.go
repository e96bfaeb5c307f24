// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package message

import (
	"slices"
	"strconv"
	"strings"
)

// Well known header names and values.
const (
	ContentLengthName = "Content-Length"
	AuthorizationName = "Authorization"

	BearerPrefix = "Bearer "
	TokenPrefix  = "Token "
)

// Header is a single name/value pair.
type Header struct {
	Name  string
	Value string
}

// Equal reports whether both headers have the same name, ignoring case,
// and exactly the same value.
func (h Header) Equal(other Header) bool {
	return strings.EqualFold(h.Name, other.Name) && h.Value == other.Value
}

// String returns the header as it appears on the wire, minus the line ending.
func (h Header) String() string {
	return h.Name + ":" + h.Value
}

// HeaderReader is the read-only view of a header collection.
type HeaderReader interface {
	// Get returns a [NotFoundError] if there is no header with the given name.
	Get(name string) (Header, error)
	Contains(name string) bool
	Value(name string) (string, error)

	// All returns a copy of every header in iteration order.
	All() []Header
	Len() int
}

// Headers is an ordered collection of headers with case-insensitive
// lookups. There is at most one header per case-insensitive name.
//
// The zero value is an empty collection ready to use.
type Headers struct {
	order []string
	byKey map[string]Header
}

// NewHeaders returns a collection containing hs, applied in order.
func NewHeaders(hs ...Header) *Headers {
	h := &Headers{}
	for _, x := range hs {
		h.Set(x.Name, x.Value)
	}
	return h
}

func headerKey(name string) string {
	return strings.ToLower(name)
}

// Set stores the header. A header which already exists under the same
// case-insensitive name is replaced where it stands, taking on the new
// name casing. Set panics if name is empty.
func (h *Headers) Set(name, value string) *Headers {
	if name == "" {
		precondition("header name", "must not be empty")
	}
	if h.byKey == nil {
		h.byKey = make(map[string]Header)
	}

	key := headerKey(name)
	if _, exists := h.byKey[key]; !exists {
		h.order = append(h.order, key)
	}
	h.byKey[key] = Header{Name: name, Value: value}
	return h
}

// SetInt stores an integer valued header.
func (h *Headers) SetInt(name string, n int64) *Headers {
	return h.Set(name, strconv.FormatInt(n, 10))
}

// SetAll copies every header from hr into h.
func (h *Headers) SetAll(hr HeaderReader) *Headers {
	if hr == nil {
		return h
	}
	for _, x := range hr.All() {
		h.Set(x.Name, x.Value)
	}
	return h
}

// SetAuthorization sets the Authorization header.
func (h *Headers) SetAuthorization(value string) *Headers {
	if value == "" {
		precondition("authorization", "must not be empty")
	}
	return h.Set(AuthorizationName, value)
}

// SetAuthorizationBearer sets the Authorization header to a bearer token.
func (h *Headers) SetAuthorizationBearer(token string) *Headers {
	if token == "" {
		precondition("authorization bearer", "must not be empty")
	}
	return h.SetAuthorization(BearerPrefix + token)
}

// SetAuthorizationToken sets the Authorization header to a "Token" credential.
func (h *Headers) SetAuthorizationToken(token string) *Headers {
	if token == "" {
		precondition("authorization token", "must not be empty")
	}
	return h.SetAuthorization(TokenPrefix + token)
}

// Get implements the [HeaderReader] interface.
func (h *Headers) Get(name string) (Header, error) {
	x, ok := h.byKey[headerKey(name)]
	if !ok {
		return Header{}, NotFoundError{Header: name}
	}
	return x, nil
}

// Contains implements the [HeaderReader] interface.
func (h *Headers) Contains(name string) bool {
	_, ok := h.byKey[headerKey(name)]
	return ok
}

// Value implements the [HeaderReader] interface.
func (h *Headers) Value(name string) (string, error) {
	x, err := h.Get(name)
	if err != nil {
		return "", err
	}
	return x.Value, nil
}

// Remove deletes and returns the named header.
func (h *Headers) Remove(name string) (Header, error) {
	key := headerKey(name)
	x, ok := h.byKey[key]
	if !ok {
		return Header{}, NotFoundError{Header: name}
	}
	delete(h.byKey, key)
	h.order = slices.DeleteFunc(h.order, func(k string) bool {
		return k == key
	})
	return x, nil
}

// Clear removes every header.
func (h *Headers) Clear() *Headers {
	h.order = nil
	h.byKey = nil
	return h
}

// All implements the [HeaderReader] interface.
func (h *Headers) All() []Header {
	hs := make([]Header, 0, len(h.order))
	for _, key := range h.order {
		hs = append(hs, h.byKey[key])
	}
	return hs
}

// Len implements the [HeaderReader] interface.
func (h *Headers) Len() int {
	return len(h.order)
}

// Equal reports whether other holds equal headers in the same order.
func (h *Headers) Equal(other HeaderReader) bool {
	if other == nil {
		return h.Len() == 0
	}
	return slices.EqualFunc(h.All(), other.All(), Header.Equal)
}

// String implements the [fmt.Stringer] interface.
func (h *Headers) String() string {
	ss := make([]string, 0, h.Len())
	for _, x := range h.All() {
		ss = append(ss, x.String())
	}
	return "[" + strings.Join(ss, ",") + "]"
}

// headerView exposes a [Headers] through [HeaderReader] only, so callers
// of a message's Headers method can't mutate it behind its setters.
type headerView struct {
	h *Headers
}

func (v headerView) Get(name string) (Header, error) { return v.h.Get(name) }

func (v headerView) Contains(name string) bool { return v.h.Contains(name) }

func (v headerView) Value(name string) (string, error) { return v.h.Value(name) }

func (v headerView) All() []Header { return v.h.All() }

func (v headerView) Len() int { return v.h.Len() }

func (v headerView) String() string { return v.h.String() }

// Authorization returns the value of the Authorization header.
func Authorization(hr HeaderReader) (string, error) {
	return hr.Value(AuthorizationName)
}

// AuthorizationWithPrefix returns the Authorization header value with
// prefix removed. A header without the prefix counts as missing.
func AuthorizationWithPrefix(hr HeaderReader, prefix string) (string, error) {
	v, err := Authorization(hr)
	if err != nil {
		return "", err
	}
	rest, ok := strings.CutPrefix(v, prefix)
	if !ok {
		return "", NotFoundError{Header: AuthorizationName}
	}
	return rest, nil
}

// AuthorizationBearer returns the bearer token from the Authorization header.
func AuthorizationBearer(hr HeaderReader) (string, error) {
	return AuthorizationWithPrefix(hr, BearerPrefix)
}

// AuthorizationToken returns the "Token" credential from the Authorization header.
func AuthorizationToken(hr HeaderReader) (string, error) {
	return AuthorizationWithPrefix(hr, TokenPrefix)
}

func contentLength(hr HeaderReader) (int64, error) {
	v, err := hr.Value(ContentLengthName)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, InvalidContentLengthError{Value: v, Cause: err}
	}
	if n < 0 {
		return 0, InvalidContentLengthError{Value: v, Cause: strconv.ErrRange}
	}
	return n, nil
}
