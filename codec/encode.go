// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package codec

import (
	"bufio"
	"errors"
	"io"
	"strconv"

	"github.com/z5labs/httpwire/message"
)

type writeOptions struct {
	omitBody bool
}

// WriteOption configures [WriteResponse].
type WriteOption func(*writeOptions)

// OmitBody writes the status line and headers only. Servers use it when
// answering HEAD requests.
func OmitBody() WriteOption {
	return func(wo *writeOptions) {
		wo.omitBody = true
	}
}

// OmitBodyIf is [OmitBody] when omit is true and a no-op otherwise.
func OmitBodyIf(omit bool) WriteOption {
	return func(wo *writeOptions) {
		wo.omitBody = wo.omitBody || omit
	}
}

var errMissingMethod = message.PreconditionError{Name: "request method", Reason: "must not be empty"}

var errMissingURL = message.PreconditionError{Name: "request url", Reason: "must not be nil"}

var (
	errBodyWithoutLength = message.PreconditionError{Name: "request body", Reason: "requires a Content-Length header"}
	errLengthWithoutBody = message.PreconditionError{Name: "request body", Reason: "must not be nil if content length is greater than 0"}
	errShortBody         = message.PreconditionError{Name: "request body", Reason: "is shorter than its content length"}
)

// WriteRequest encodes req to w. Exactly Content-Length bytes of the body
// are written and the body is not released; that remains the request
// owner's responsibility.
//
// A body without a Content-Length header, a positive Content-Length
// without a body, or a body that ends early is a [message.PreconditionError].
// Nothing is written for the first two; a short body may leave a partial
// message on w.
func WriteRequest(w io.Writer, req message.RequestView) error {
	if req.Method() == "" {
		return errMissingMethod
	}
	u := req.URL()
	if u == nil {
		return errMissingURL
	}
	n, err := requestBodyLength(req)
	if err != nil {
		return err
	}
	version := req.Version()
	if version == "" {
		version = message.DefaultVersion
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(req.Method())
	bw.WriteByte(' ')
	bw.WriteString(u.String())
	bw.WriteByte(' ')
	bw.WriteString(version)
	bw.WriteString("\r\n")
	writeHeaders(bw, req.Headers())

	if n > 0 {
		_, err := io.CopyN(bw, req.Body(), n)
		if errors.Is(err, io.EOF) {
			return errShortBody
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func requestBodyLength(req message.RequestView) (int64, error) {
	body := req.Body()
	n, err := req.ContentLength()
	if errors.Is(err, message.ErrNotFound) {
		if body != nil {
			return 0, errBodyWithoutLength
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if n > 0 && body == nil {
		return 0, errLengthWithoutBody
	}
	return n, nil
}

// WriteResponse encodes resp to w. An empty version defaults to
// [message.DefaultVersion] and an empty reason phrase to the standard
// phrase for the status code, if one exists. The status line always
// carries the space after the code, even when the phrase stays empty.
//
// The body is not released.
func WriteResponse(w io.Writer, resp message.ResponseView, opts ...WriteOption) error {
	wo := &writeOptions{}
	for _, opt := range opts {
		opt(wo)
	}

	version := resp.Version()
	if version == "" {
		version = message.DefaultVersion
	}
	reason := resp.ReasonPhrase()
	if reason == "" {
		reason = message.ReasonPhrase(resp.StatusCode())
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(version)
	bw.WriteByte(' ')
	bw.WriteString(strconv.Itoa(resp.StatusCode()))
	bw.WriteByte(' ')
	bw.WriteString(reason)
	bw.WriteString("\r\n")
	writeHeaders(bw, resp.Headers())

	if !wo.omitBody {
		_, err := io.Copy(bw, resp.Body())
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// bufio.Writer errors are sticky so they're only checked on Flush.
func writeHeaders(bw *bufio.Writer, hr message.HeaderReader) {
	for _, h := range hr.All() {
		bw.WriteString(h.Name)
		bw.WriteByte(':')
		bw.WriteString(h.Value)
		bw.WriteString("\r\n")
	}
	bw.WriteString("\r\n")
}
