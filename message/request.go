// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package message

import (
	"bytes"
	"io"
	"net/url"
)

// RequestView is the read-only view of a [Request] given to handlers.
type RequestView interface {
	Method() string
	URL() *url.URL
	Version() string
	Headers() HeaderReader
	Header(name string) (Header, error)
	HeaderValue(name string) (string, error)
	ContentLength() (int64, error)

	// Body is nil when the request has no body.
	Body() io.Reader
}

// Request is a mutable HTTP request.
type Request struct {
	method  string
	url     *url.URL
	version string
	headers Headers
	body    io.Reader
}

// NewRequest returns an empty request using [DefaultVersion].
func NewRequest() *Request {
	return &Request{
		version: DefaultVersion,
	}
}

// Get returns a GET request for the given absolute URL.
func Get(rawURL string) (*Request, error) {
	return NewRequest().SetMethod(MethodGet).ParseURL(rawURL)
}

// SetMethod panics if method is empty.
func (r *Request) SetMethod(method string) *Request {
	if method == "" {
		precondition("method", "must not be empty")
	}
	r.method = method
	return r
}

// SetURL sets the absolute URL the request is sent to. It panics
// if u is nil or is missing a scheme or host.
func (r *Request) SetURL(u *url.URL) *Request {
	if err := checkURL(u); err != nil {
		panic(err)
	}
	return r.SetTarget(u)
}

// ParseURL parses rawURL and sets it as the request URL. Unlike
// [Request.SetURL] an unusable URL is returned as an error.
func (r *Request) ParseURL(rawURL string) (*Request, error) {
	if rawURL == "" {
		return r, PreconditionError{Name: "url", Reason: "must not be empty"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return r, err
	}
	if err := checkURL(u); err != nil {
		return r, err
	}
	return r.SetTarget(u), nil
}

// SetTarget sets the request target exactly as it was received, which
// for origin-form targets like "/echo" has neither scheme nor host.
func (r *Request) SetTarget(u *url.URL) *Request {
	if u == nil {
		precondition("url", "must not be nil")
	}
	clone := *u
	r.url = &clone
	return r
}

func checkURL(u *url.URL) error {
	switch {
	case u == nil:
		return PreconditionError{Name: "url", Reason: "must not be nil"}
	case u.Scheme == "":
		return PreconditionError{Name: "url scheme", Reason: "must not be empty"}
	case u.Host == "":
		return PreconditionError{Name: "url host", Reason: "must not be empty"}
	}
	return nil
}

// SetVersion panics if version is empty.
func (r *Request) SetVersion(version string) *Request {
	if version == "" {
		precondition("http version", "must not be empty")
	}
	r.version = version
	return r
}

// SetHeader sets a header, replacing any header with the same name.
func (r *Request) SetHeader(name, value string) *Request {
	r.headers.Set(name, value)
	return r
}

// SetHeaderInt sets an integer valued header.
func (r *Request) SetHeaderInt(name string, n int64) *Request {
	r.headers.SetInt(name, n)
	return r
}

// SetHeaders copies every header from hr into the request.
func (r *Request) SetHeaders(hr HeaderReader) *Request {
	r.headers.SetAll(hr)
	return r
}

// RemoveHeader deletes a header if present.
func (r *Request) RemoveHeader(name string) *Request {
	r.headers.Remove(name)
	return r
}

// SetBodyReader sets a body of exactly n bytes read from body. A zero
// length clears the body and the Content-Length header. It panics if n
// is negative, or if exactly one of n and body is zero/nil.
func (r *Request) SetBodyReader(n int64, body io.Reader) *Request {
	switch {
	case n < 0:
		precondition("content length", "must not be negative")
	case n == 0 && body != nil:
		precondition("body", "must be nil if content length is 0")
	case n > 0 && body == nil:
		precondition("body", "must not be nil if content length is greater than 0")
	}

	r.body = body
	if n == 0 {
		r.headers.Remove(ContentLengthName)
		return r
	}
	r.headers.SetInt(ContentLengthName, n)
	return r
}

// SetBody sets the body to b. An empty b means no body.
func (r *Request) SetBody(b []byte) *Request {
	if len(b) == 0 {
		return r.SetBodyReader(0, nil)
	}
	return r.SetBodyReader(int64(len(b)), bytes.NewReader(b))
}

// SetBodyString sets the body to the UTF-8 bytes of s.
func (r *Request) SetBodyString(s string) *Request {
	return r.SetBody([]byte(s))
}

// Method implements the [RequestView] interface.
func (r *Request) Method() string {
	return r.method
}

// URL implements the [RequestView] interface. It returns a copy,
// or nil if no URL has been set.
func (r *Request) URL() *url.URL {
	if r.url == nil {
		return nil
	}
	clone := *r.url
	return &clone
}

// Version implements the [RequestView] interface.
func (r *Request) Version() string {
	return r.version
}

// Headers implements the [RequestView] interface.
func (r *Request) Headers() HeaderReader {
	return headerView{h: &r.headers}
}

// Header implements the [RequestView] interface.
func (r *Request) Header(name string) (Header, error) {
	return r.headers.Get(name)
}

// HeaderValue implements the [RequestView] interface.
func (r *Request) HeaderValue(name string) (string, error) {
	return r.headers.Value(name)
}

// ContentLength implements the [RequestView] interface.
func (r *Request) ContentLength() (int64, error) {
	return contentLength(&r.headers)
}

// Body implements the [RequestView] interface.
func (r *Request) Body() io.Reader {
	return r.body
}

// Close releases the body, if it needs releasing.
func (r *Request) Close() error {
	c, ok := r.body.(io.Closer)
	if !ok {
		return nil
	}
	return c.Close()
}
