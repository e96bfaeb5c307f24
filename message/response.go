// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package message

import (
	"bytes"
	"io"
	"sync"
)

// ResponseView is the read-only view of a [Response].
type ResponseView interface {
	Version() string
	StatusCode() int
	ReasonPhrase() string
	Headers() HeaderReader
	Header(name string) (Header, error)
	HeaderValue(name string) (string, error)
	ContentLength() (int64, error)

	// Body is never nil. A response without a body has an empty one.
	Body() io.ReadCloser
}

// Response is a mutable HTTP response. It owns its body, which is
// released by [Response.Close].
type Response struct {
	version      string
	statusCode   int
	reasonPhrase string
	headers      Headers
	body         io.ReadCloser

	closeOnce sync.Once
	closeErr  error
}

// NewResponse returns a response with no version, status or body set.
func NewResponse() *Response {
	return &Response{
		body: emptyBody(),
	}
}

func emptyBody() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(nil))
}

// SetVersion panics if version is empty.
func (r *Response) SetVersion(version string) *Response {
	if version == "" {
		precondition("http version", "must not be empty")
	}
	r.version = version
	return r
}

// SetStatusCode sets the status code.
func (r *Response) SetStatusCode(code int) *Response {
	r.statusCode = code
	return r
}

// SetReasonPhrase sets the reason phrase. It may be empty.
func (r *Response) SetReasonPhrase(phrase string) *Response {
	r.reasonPhrase = phrase
	return r
}

// SetHeader sets a header, replacing any header with the same name.
func (r *Response) SetHeader(name, value string) *Response {
	r.headers.Set(name, value)
	return r
}

// SetHeaderInt sets an integer valued header.
func (r *Response) SetHeaderInt(name string, n int64) *Response {
	r.headers.SetInt(name, n)
	return r
}

// SetHeaders copies every header from hr into the response.
func (r *Response) SetHeaders(hr HeaderReader) *Response {
	r.headers.SetAll(hr)
	return r
}

// RemoveHeader deletes a header if present.
func (r *Response) RemoveHeader(name string) *Response {
	r.headers.Remove(name)
	return r
}

// SetBody replaces the body stream, closing the previous one. The
// Content-Length header is left untouched. It panics if body is nil.
func (r *Response) SetBody(body io.ReadCloser) *Response {
	if body == nil {
		precondition("body", "must not be nil")
	}
	if r.body != nil {
		r.body.Close()
	}
	r.body = body
	return r
}

// SetBodyBytes sets the body to b along with a matching Content-Length.
// An empty b leaves an empty body and no Content-Length.
func (r *Response) SetBodyBytes(b []byte) *Response {
	if len(b) == 0 {
		r.headers.Remove(ContentLengthName)
		return r.SetBody(emptyBody())
	}
	r.headers.SetInt(ContentLengthName, int64(len(b)))
	return r.SetBody(io.NopCloser(bytes.NewReader(b)))
}

// SetBodyString sets the body to the UTF-8 bytes of s.
func (r *Response) SetBodyString(s string) *Response {
	return r.SetBodyBytes([]byte(s))
}

// Version implements the [ResponseView] interface.
func (r *Response) Version() string {
	return r.version
}

// StatusCode implements the [ResponseView] interface.
func (r *Response) StatusCode() int {
	return r.statusCode
}

// ReasonPhrase implements the [ResponseView] interface.
func (r *Response) ReasonPhrase() string {
	return r.reasonPhrase
}

// Headers implements the [ResponseView] interface.
func (r *Response) Headers() HeaderReader {
	return headerView{h: &r.headers}
}

// Header implements the [ResponseView] interface.
func (r *Response) Header(name string) (Header, error) {
	return r.headers.Get(name)
}

// HeaderValue implements the [ResponseView] interface.
func (r *Response) HeaderValue(name string) (string, error) {
	return r.headers.Value(name)
}

// ContentLength implements the [ResponseView] interface.
func (r *Response) ContentLength() (int64, error) {
	return contentLength(&r.headers)
}

// Body implements the [ResponseView] interface.
func (r *Response) Body() io.ReadCloser {
	if r.body == nil {
		r.body = emptyBody()
	}
	return r.body
}

// Close releases the body. Only the first call has an effect.
func (r *Response) Close() error {
	r.closeOnce.Do(func() {
		if r.body == nil {
			return
		}
		r.closeErr = r.body.Close()
	})
	return r.closeErr
}
