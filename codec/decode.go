// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package codec

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/z5labs/httpwire/message"
)

// DefaultMaxLineBytes bounds a single start or header line.
const DefaultMaxLineBytes = 1 << 20

type readOptions struct {
	head         bool
	strict       bool
	maxLineBytes int
}

// ReadOption configures [ReadRequest] and [ReadResponse].
type ReadOption func(*readOptions)

// ForMethod tells [ReadResponse] which method the response answers.
// Responses to HEAD never have their body read, whatever their
// Content-Length says.
func ForMethod(method string) ReadOption {
	return func(ro *readOptions) {
		ro.head = method == message.MethodHead
	}
}

// ForHeadRequest is shorthand for ForMethod(message.MethodHead).
func ForHeadRequest() ReadOption {
	return ForMethod(message.MethodHead)
}

// StrictHeaders makes header lines without a colon, or with an empty
// name, fail with a [MalformedHeaderError]. By default they are skipped.
func StrictHeaders() ReadOption {
	return func(ro *readOptions) {
		ro.strict = true
	}
}

// MaxLineBytes bounds the length of a single start or header line,
// excluding its line ending. The default is [DefaultMaxLineBytes].
func MaxLineBytes(n int) ReadOption {
	return func(ro *readOptions) {
		if n > 0 {
			ro.maxLineBytes = n
		}
	}
}

func newReadOptions(opts []ReadOption) *readOptions {
	ro := &readOptions{
		maxLineBytes: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(ro)
	}
	return ro
}

// similar to readLineSlice() in net/textproto/reader.go
type lineReader struct {
	r   *bufio.Reader
	max int
}

func newLineReader(r io.Reader, max int) *lineReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &lineReader{r: br, max: max}
}

func (lr *lineReader) readLine() (string, error) {
	var line []byte
	for {
		frag, err := lr.r.ReadSlice('\n')
		line = append(line, frag...)
		if len(bytes.TrimRight(line, "\r\n")) > lr.max {
			return "", LineTooLongError{Limit: lr.max}
		}
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}

	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}

func (lr *lineReader) readStartLine() (string, error) {
	line, err := lr.readLine()
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "", EmptyMessageError{Cause: err}
	}
	return line, err
}

func (lr *lineReader) readHeaders(ro *readOptions, set func(name, value string)) error {
	for {
		line, err := lr.readLine()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return TruncatedHeaderError{Cause: err}
		}
		if err != nil {
			return err
		}
		if line == "" {
			return nil
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" {
			// Lines without a usable name are dropped unless the
			// caller asked for strict parsing.
			if ro.strict {
				return MalformedHeaderError{Line: line}
			}
			continue
		}
		set(name, strings.TrimSpace(value))
	}
}

// bodyLength is the declared Content-Length, or 0 if it's missing
// or unusable.
func bodyLength(hr message.HeaderReader) int64 {
	v, err := hr.Value(message.ContentLengthName)
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (lr *lineReader) readBody(n int64) ([]byte, error) {
	var buf bytes.Buffer
	read, err := io.CopyN(&buf, lr.r, n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, TruncatedBodyError{
			Expected: n,
			Read:     read,
			Cause:    err,
		}
	}
	return buf.Bytes(), nil
}

// ReadRequest decodes a single request from r. If r is a [*bufio.Reader]
// it's used directly, otherwise it's wrapped in one.
//
// The request target is kept exactly as sent, so origin-form targets
// produce a URL without scheme or host.
func ReadRequest(r io.Reader, opts ...ReadOption) (*message.Request, error) {
	ro := newReadOptions(opts)
	lr := newLineReader(r, ro.maxLineBytes)

	line, err := lr.readStartLine()
	if err != nil {
		return nil, err
	}

	method, rest, ok := strings.Cut(line, " ")
	if !ok || method == "" {
		return nil, MalformedStartLineError{Line: line}
	}
	target, version, ok := strings.Cut(rest, " ")
	if !ok || target == "" || version == "" {
		return nil, MalformedStartLineError{Line: line}
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, MalformedStartLineError{Line: line, Cause: err}
	}

	req := message.NewRequest().
		SetMethod(method).
		SetTarget(u).
		SetVersion(version)

	err = lr.readHeaders(ro, func(name, value string) {
		req.SetHeader(name, value)
	})
	if err != nil {
		return nil, err
	}

	n := bodyLength(req.Headers())
	if n == 0 {
		req.RemoveHeader(message.ContentLengthName)
		return req, nil
	}
	body, err := lr.readBody(n)
	if err != nil {
		return nil, err
	}
	return req.SetBody(body), nil
}

// ReadResponse decodes a single response from r. If r is a [*bufio.Reader]
// it's used directly, otherwise it's wrapped in one.
//
// The returned response always has a body; it's empty when Content-Length
// is missing, zero or the response answers a HEAD request.
func ReadResponse(r io.Reader, opts ...ReadOption) (*message.Response, error) {
	ro := newReadOptions(opts)
	lr := newLineReader(r, ro.maxLineBytes)

	line, err := lr.readStartLine()
	if err != nil {
		return nil, err
	}

	version, rest, ok := strings.Cut(line, " ")
	if !ok || version == "" {
		return nil, MalformedStartLineError{Line: line}
	}
	// A missing reason phrase is tolerated since there is no default
	// phrase for most status codes.
	code, reason, _ := strings.Cut(rest, " ")
	statusCode, err := strconv.Atoi(code)
	if err != nil {
		return nil, InvalidStatusCodeError{Value: code, Cause: err}
	}

	resp := message.NewResponse().
		SetVersion(version).
		SetStatusCode(statusCode).
		SetReasonPhrase(reason)

	err = lr.readHeaders(ro, func(name, value string) {
		resp.SetHeader(name, value)
	})
	if err != nil {
		return nil, err
	}

	n := bodyLength(resp.Headers())
	if ro.head || n == 0 {
		return resp, nil
	}
	body, err := lr.readBody(n)
	if err != nil {
		return nil, err
	}
	return resp.SetBody(io.NopCloser(bytes.NewReader(body))), nil
}
