// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server accepts HTTP/1.1 connections, routes each request to a
// registered handler and writes the handler's response back.
package server

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/z5labs/httpwire/codec"
	"github.com/z5labs/httpwire/internal/fixedpool"
	"github.com/z5labs/httpwire/internal/noop"
	"github.com/z5labs/httpwire/internal/try"
	"github.com/z5labs/httpwire/message"
	"github.com/z5labs/httpwire/pkg/otelslog"
	"github.com/z5labs/httpwire/pkg/slogfield"
	"github.com/z5labs/httpwire/route"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// ErrDisposed is returned by [Server.Start] once the server has been closed.
var ErrDisposed = errors.New("server has been disposed")

// State is the lifecycle state of a [Server].
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDisposed
)

// String implements the [fmt.Stringer] interface.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Handler answers a request. The captured values are the path components
// matched by the route's wildcards, in pattern order. Returning nil
// results in a 500 response.
type Handler func(ctx context.Context, captured []string, req message.RequestView) *message.Response

type options struct {
	logHandler   slog.Handler
	notFound     Handler
	scheduler    Scheduler
	maxLineBytes int
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Option configures a [Server].
type Option func(*options)

// LogHandler sets the handler used for server logs.
func LogHandler(h slog.Handler) Option {
	return func(o *options) {
		o.logHandler = h
	}
}

// NotFoundHandler replaces the default handler for requests which match
// no registered pattern.
func NotFoundHandler(h Handler) Option {
	return func(o *options) {
		o.notFound = h
	}
}

// WithScheduler sets how accepted connections are run. The default
// is [Inline].
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// MaxConcurrentConnections allows up to n connections to be handled at
// once. Values of 1 or less keep the default of one at a time.
func MaxConcurrentConnections(n int) Option {
	return func(o *options) {
		if n <= 1 {
			o.scheduler = Inline()
			return
		}
		o.scheduler = Limited(n)
	}
}

// MaxLineBytes bounds the request line and each header line.
func MaxLineBytes(n int) Option {
	return func(o *options) {
		o.maxLineBytes = n
	}
}

// ReadTimeout bounds reading a whole request from a connection.
func ReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WriteTimeout bounds writing a whole response to a connection.
func WriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

// Server serves one request per accepted connection.
type Server struct {
	ls     net.Listener
	log    *slog.Logger
	routes route.Table[Handler]

	notFound     Handler
	scheduler    Scheduler
	maxLineBytes int
	readTimeout  time.Duration
	writeTimeout time.Duration

	state  *atomic.Int32
	active *atomic.Int64

	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// New returns an idle [Server] which will accept connections from ls.
// The server owns ls and closes it when disposed.
func New(ls net.Listener, opts ...Option) *Server {
	o := &options{
		logHandler:   noop.LogHandler{},
		notFound:     NotFound,
		scheduler:    Inline(),
		maxLineBytes: codec.DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(o)
	}

	s := &Server{
		ls:           ls,
		log:          otelslog.New(o.logHandler),
		notFound:     o.notFound,
		scheduler:    o.scheduler,
		maxLineBytes: o.maxLineBytes,
		readTimeout:  o.readTimeout,
		writeTimeout: o.writeTimeout,
		state:        atomic.NewInt32(int32(StateIdle)),
		active:       atomic.NewInt64(0),
	}
	s.initMetrics()
	return s
}

// Listen is a convenience for net.Listen followed by [New].
func Listen(network, address string, opts ...Option) (*Server, error) {
	ls, err := net.Listen(network, address)
	if err != nil {
		return nil, err
	}
	return New(ls, opts...), nil
}

func (s *Server) initMetrics() {
	meter := otel.Meter("server")

	requests, err := meter.Int64Counter(
		"httpwire.server.requests",
		metric.WithDescription("Number of requests served."),
	)
	if err != nil {
		s.log.Warn("failed to create request counter", slogfield.Error(err))
		requests, _ = metricnoop.NewMeterProvider().Meter("server").Int64Counter("httpwire.server.requests")
	}
	s.requests = requests

	duration, err := meter.Float64Histogram(
		"httpwire.server.duration",
		metric.WithDescription("Time taken to serve a request."),
		metric.WithUnit("s"),
	)
	if err != nil {
		s.log.Warn("failed to create duration histogram", slogfield.Error(err))
		duration, _ = metricnoop.NewMeterProvider().Meter("server").Float64Histogram("httpwire.server.duration")
	}
	s.duration = duration
}

// Handle registers h for pattern. See the route package for the pattern
// syntax. Registering the same pattern again replaces its handler.
func (s *Server) Handle(pattern string, h Handler) error {
	if h == nil {
		return message.PreconditionError{Name: "handler", Reason: "must not be nil"}
	}
	return s.routes.Register(pattern, h)
}

// HandleFunc registers f for pattern, for handlers which have no use
// for the captured wildcard values.
func (s *Server) HandleFunc(pattern string, f func(context.Context, message.RequestView) *message.Response) error {
	if f == nil {
		return message.PreconditionError{Name: "handler", Reason: "must not be nil"}
	}
	return s.Handle(pattern, func(ctx context.Context, _ []string, req message.RequestView) *message.Response {
		return f(ctx, req)
	})
}

// Patterns returns the registered patterns in precedence order.
func (s *Server) Patterns() []route.Pattern {
	return s.routes.Patterns()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.ls.Addr()
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// ActiveConnections returns the number of connections being handled.
func (s *Server) ActiveConnections() int64 {
	return s.active.Load()
}

// Healthy reports whether the server is accepting connections.
func (s *Server) Healthy(ctx context.Context) bool {
	return s.State() == StateRunning
}

// Start runs the accept loop until the server is closed or ctx is
// cancelled, either of which disposes the server. Connections already
// accepted are handled to completion before Start returns.
//
// Start may be called from the idle or running states. Once disposed it
// returns [ErrDisposed].
func (s *Server) Start(ctx context.Context) error {
	swapped := s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
	if !swapped && s.State() != StateRunning {
		return ErrDisposed
	}

	s.log.InfoContext(ctx, "started server", slogfield.Addr("addr", s.Addr()))
	defer s.log.InfoContext(ctx, "stopped server", slogfield.Addr("addr", s.Addr()))

	err := fixedpool.Wait(
		ctx,
		s.acceptLoop,
		s.closeOnDone,
	)
	s.scheduler.Wait()
	if err != nil {
		s.log.ErrorContext(ctx, "server encountered unexpected error", slogfield.Error(err))
	}
	return err
}

// Close disposes the server and closes its listener. It's safe to call
// more than once; only the first call closes the listener.
func (s *Server) Close() error {
	prev := s.state.Swap(int32(StateDisposed))
	if State(prev) == StateDisposed {
		return nil
	}
	return s.ls.Close()
}

func (s *Server) closeOnDone(ctx context.Context) error {
	<-ctx.Done()
	return s.Close()
}

func (s *Server) acceptLoop(ctx context.Context) error {
	// Handlers run detached from the loop's cancellation so that
	// in-flight requests can complete during shutdown.
	connCtx := context.WithoutCancel(ctx)
	for {
		conn, err := s.ls.Accept()
		if err != nil {
			if s.State() == StateDisposed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				s.log.WarnContext(ctx, "timed out accepting connection", slogfield.Error(err))
				continue
			}
			return err
		}

		s.active.Inc()
		s.scheduler.Go(func() {
			defer s.active.Dec()
			s.serveConn(connCtx, conn)
		})
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer func() {
		err := conn.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.WarnContext(ctx, "failed to close connection", slogfield.Error(err))
		}
	}()

	start := time.Now()
	if s.readTimeout > 0 {
		conn.SetReadDeadline(start.Add(s.readTimeout))
	}

	req, err := codec.ReadRequest(bufio.NewReader(conn), codec.MaxLineBytes(s.maxLineBytes))
	if err != nil {
		s.handleReadError(ctx, conn, err)
		return
	}
	defer req.Close()

	ctx = otel.GetTextMapPropagator().Extract(ctx, headerCarrier{hr: req.Headers()})
	spanCtx, span := otel.Tracer("server").Start(
		ctx,
		"Server.serve",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method()),
			attribute.String("url.path", req.URL().Path),
		),
	)
	defer span.End()

	s.log.DebugContext(
		spanCtx,
		"received request",
		slogfield.Method(req.Method()),
		slogfield.Path(req.URL().Path),
		slogfield.Headers(req.Headers()),
	)

	resp := s.dispatch(spanCtx, req)
	defer resp.Close()

	if resp.Version() == "" {
		resp.SetVersion(req.Version())
	}
	if resp.ReasonPhrase() == "" {
		resp.SetReasonPhrase(message.ReasonPhrase(resp.StatusCode()))
	}

	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	err = codec.WriteResponse(conn, resp, codec.OmitBodyIf(req.Method() == message.MethodHead))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.ErrorContext(spanCtx, "failed to write response", slogfield.Error(err))
	}

	attrs := metric.WithAttributes(
		attribute.String("http.request.method", req.Method()),
		attribute.Int("http.response.status_code", resp.StatusCode()),
	)
	s.requests.Add(spanCtx, 1, attrs)
	s.duration.Record(spanCtx, time.Since(start).Seconds(), attrs)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))

	s.log.InfoContext(
		spanCtx,
		"served request",
		slogfield.Method(req.Method()),
		slogfield.Path(req.URL().Path),
		slogfield.StatusCode(resp.StatusCode()),
		slogfield.Duration("latency", time.Since(start)),
	)
}

func (s *Server) handleReadError(ctx context.Context, conn net.Conn, err error) {
	if s.State() == StateDisposed || errors.Is(err, net.ErrClosed) {
		return
	}

	var emptyErr codec.EmptyMessageError
	if errors.As(err, &emptyErr) {
		// peer connected and hung up without sending anything
		return
	}
	if !errors.Is(err, codec.ErrProtocol) {
		s.log.WarnContext(ctx, "failed to read request", slogfield.Addr("remote_addr", conn.RemoteAddr()), slogfield.Error(err))
		return
	}

	s.log.WarnContext(ctx, "received malformed request", slogfield.Addr("remote_addr", conn.RemoteAddr()), slogfield.Error(err))

	resp := BadRequest()
	defer resp.Close()

	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	err = codec.WriteResponse(conn, resp.SetVersion(message.DefaultVersion))
	if err != nil {
		s.log.WarnContext(ctx, "failed to write bad request response", slogfield.Error(err))
	}
}

func (s *Server) dispatch(ctx context.Context, req *message.Request) *message.Response {
	h := s.notFound
	var captured []string

	r, found := s.routes.Match(req.URL().Path)
	if found {
		h = r.Handler
		captured = r.Captured
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("http.route", r.Pattern.String()))
	}

	resp, err := invoke(ctx, h, captured, req)
	if err != nil {
		s.log.ErrorContext(ctx, "handler panicked", slogfield.Path(req.URL().Path), slogfield.Error(err))
		return InternalServerError()
	}
	if resp == nil {
		s.log.WarnContext(ctx, "handler returned no response", slogfield.Path(req.URL().Path))
		return InternalServerError()
	}
	return resp
}

func invoke(ctx context.Context, h Handler, captured []string, req message.RequestView) (resp *message.Response, err error) {
	defer try.Recover(&err)

	return h(ctx, captured, req), nil
}

// NotFound is the default not found handler.
func NotFound(ctx context.Context, captured []string, req message.RequestView) *message.Response {
	return message.NewResponse().
		SetStatusCode(message.StatusNotFound).
		SetReasonPhrase(message.ReasonPhrase(message.StatusNotFound)).
		SetBodyString("404: Not Found")
}

// InternalServerError is sent when a handler returns no response or panics.
func InternalServerError() *message.Response {
	return message.NewResponse().
		SetStatusCode(message.StatusInternalServerError).
		SetReasonPhrase(message.ReasonPhrase(message.StatusInternalServerError)).
		SetBodyString("500: Internal Server Error")
}

// BadRequest is sent when a request can't be decoded.
func BadRequest() *message.Response {
	return message.NewResponse().
		SetStatusCode(message.StatusBadRequest).
		SetReasonPhrase(message.ReasonPhrase(message.StatusBadRequest)).
		SetBodyString("400: Bad Request")
}
