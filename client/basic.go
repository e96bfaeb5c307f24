// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/z5labs/httpwire/codec"
	"github.com/z5labs/httpwire/internal/try"
	"github.com/z5labs/httpwire/message"
	"github.com/z5labs/httpwire/pkg/otelslog"
	"github.com/z5labs/httpwire/pkg/slogfield"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultPort is dialed when the request URL has no port.
const DefaultPort = "80"

// Resolver resolves a host name to addresses. [*net.Resolver] implements it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Dialer opens connections. [*net.Dialer] implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type basicOptions struct {
	options

	resolver     Resolver
	dialer       Dialer
	maxLineBytes int
}

// BasicOption configures a [Basic] client.
type BasicOption interface {
	applyBasic(*basicOptions)
}

type basicOptionFunc func(*basicOptions)

func (f basicOptionFunc) applyBasic(bo *basicOptions) {
	f(bo)
}

// WithResolver overrides the resolver used to look up request hosts.
func WithResolver(r Resolver) BasicOption {
	return basicOptionFunc(func(bo *basicOptions) {
		bo.resolver = r
	})
}

// WithDialer overrides the dialer used to connect to request hosts.
func WithDialer(d Dialer) BasicOption {
	return basicOptionFunc(func(bo *basicOptions) {
		bo.dialer = d
	})
}

// MaxLineBytes bounds the status and header lines of a response.
func MaxLineBytes(n int) BasicOption {
	return basicOptionFunc(func(bo *basicOptions) {
		bo.maxLineBytes = n
	})
}

// Basic opens a new TCP connection for every request, writes the request
// with the wire codec and reads back a single response. Response bodies
// are read fully into memory before the connection is closed.
//
// TLS is not supported, every URL is dialed in plain text.
type Basic struct {
	log          *slog.Logger
	resolver     Resolver
	dialer       Dialer
	timeout      time.Duration
	maxLineBytes int
}

// NewBasic returns a [Basic] client.
func NewBasic(opts ...BasicOption) *Basic {
	bo := &basicOptions{
		options:      defaultOptions(),
		resolver:     net.DefaultResolver,
		dialer:       &net.Dialer{},
		maxLineBytes: codec.DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt.applyBasic(bo)
	}

	log := otelslog.New(bo.logHandler)
	if bo.name != "" {
		log = log.With(slogfield.String("http_client", bo.name))
	}
	return &Basic{
		log:          log,
		resolver:     bo.resolver,
		dialer:       bo.dialer,
		timeout:      bo.timeout,
		maxLineBytes: bo.maxLineBytes,
	}
}

// Send implements the [Sender] interface.
func (c *Basic) Send(ctx context.Context, req message.RequestView) (_ *message.Response, err error) {
	spanCtx, span := otel.Tracer("client").Start(ctx, "Basic.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	defer func() {
		if err == nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}()

	err = checkRequest(req)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		spanCtx, cancel = context.WithTimeout(spanCtx, c.timeout)
		defer cancel()
	}

	u := req.URL()
	span.SetAttributes(
		attribute.String("http.request.method", req.Method()),
		attribute.String("url.full", u.String()),
	)

	conn, err := c.dial(spanCtx, u.Hostname(), u.Port())
	if err != nil {
		c.log.ErrorContext(spanCtx, "failed to connect", slogfield.String("url", u.String()), slogfield.Error(err))
		return nil, err
	}
	defer try.Close(&err, conn)

	if deadline, ok := spanCtx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(spanCtx, func() {
		// unblocks any pending read or write
		conn.SetDeadline(time.Now())
	})
	defer stop()

	start := time.Now()
	c.log.InfoContext(spanCtx, "request sent", slogfield.Method(req.Method()), slogfield.String("url", u.String()))

	err = codec.WriteRequest(conn, req)
	if err != nil {
		c.log.ErrorContext(spanCtx, "failed to write request", slogfield.Error(err))
		return nil, err
	}

	resp, err := codec.ReadResponse(
		bufio.NewReader(conn),
		codec.ForMethod(req.Method()),
		codec.MaxLineBytes(c.maxLineBytes),
	)
	if err != nil {
		c.log.ErrorContext(spanCtx, "failed to read response", slogfield.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))
	c.log.InfoContext(
		spanCtx,
		"response received",
		slogfield.String("url", u.String()),
		slogfield.StatusCode(resp.StatusCode()),
		slogfield.Duration("latency", time.Since(start)),
	)
	return resp, nil
}

func (c *Basic) dial(ctx context.Context, host, port string) (net.Conn, error) {
	addrs, err := c.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, HostNotFoundError{Host: host, Cause: err}
	}
	if len(addrs) == 0 {
		return nil, HostNotFoundError{Host: host}
	}
	if port == "" {
		port = DefaultPort
	}
	return c.dialer.DialContext(ctx, "tcp", net.JoinHostPort(addrs[0], port))
}
