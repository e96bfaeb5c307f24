// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package client sends HTTP/1.1 requests.
//
// Two backends implement [Sender]: [Basic] speaks the wire format directly
// over a TCP connection and [Native] delegates to the net/http stack.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/z5labs/httpwire/internal/noop"
	"github.com/z5labs/httpwire/message"
)

// Sender sends a request and returns its response. The caller owns the
// returned response and must Close it.
type Sender interface {
	Send(context.Context, message.RequestView) (*message.Response, error)
}

// Get sends a GET request for rawURL with the given headers.
func Get(ctx context.Context, s Sender, rawURL string, headers ...message.Header) (*message.Response, error) {
	req, err := message.Get(rawURL)
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		req.SetHeader(h.Name, h.Value)
	}
	return s.Send(ctx, req)
}

// ErrHostNotFound is matched by [HostNotFoundError].
var ErrHostNotFound = errors.New("host not found")

// HostNotFoundError means the request's host could not be resolved.
type HostNotFoundError struct {
	Host  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e HostNotFoundError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("host not found: %s", strconv.Quote(e.Host))
	}
	return fmt.Sprintf("host not found: %s: %s", strconv.Quote(e.Host), e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e HostNotFoundError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, ErrHostNotFound).
func (e HostNotFoundError) Is(target error) bool {
	return target == ErrHostNotFound
}

// hostNotFound maps any resolver failure to a HostNotFoundError,
// keeping the resolver error as the cause.
func hostNotFound(host string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return HostNotFoundError{Host: host, Cause: err}
	}
	return err
}

func checkRequest(req message.RequestView) error {
	if req.Method() == "" {
		return message.PreconditionError{Name: "request method", Reason: "must not be empty"}
	}
	u := req.URL()
	if u == nil {
		return message.PreconditionError{Name: "request url", Reason: "must not be nil"}
	}
	if u.Host == "" {
		return message.PreconditionError{Name: "request url host", Reason: "must not be empty"}
	}
	return nil
}

type options struct {
	name       string
	timeout    time.Duration
	logHandler slog.Handler
}

// Option configures both [Basic] and [Native] clients.
type Option interface {
	BasicOption
	NativeOption
}

type commonOptionFunc func(*options)

func (f commonOptionFunc) applyBasic(bo *basicOptions) {
	f(&bo.options)
}

func (f commonOptionFunc) applyNative(no *nativeOptions) {
	f(&no.options)
}

// Name is added to every log record as "http_client".
func Name(s string) Option {
	return commonOptionFunc(func(o *options) {
		o.name = s
	})
}

// Timeout bounds a single Send, including connecting and reading the
// whole response.
func Timeout(d time.Duration) Option {
	return commonOptionFunc(func(o *options) {
		o.timeout = d
	})
}

// LogHandler sets the handler used for client logs.
func LogHandler(h slog.Handler) Option {
	return commonOptionFunc(func(o *options) {
		o.logHandler = h
	})
}

func defaultOptions() options {
	return options{
		logHandler: noop.LogHandler{},
	}
}
