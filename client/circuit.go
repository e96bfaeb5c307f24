// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/z5labs/httpwire/internal/noop"
	"github.com/z5labs/httpwire/message"
	"github.com/z5labs/httpwire/pkg/otelslog"
	"github.com/z5labs/httpwire/pkg/slogfield"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned by [Circuit.Send] while the circuit is open
// or too many half-open requests are in flight.
var ErrCircuitOpen = errors.New("circuit open")

type circuitOptions struct {
	name        string
	logHandler  slog.Handler
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
	statusCodes []int
}

// CircuitOption configures a [Circuit].
type CircuitOption func(*circuitOptions)

// CircuitName names the circuit in logs.
func CircuitName(s string) CircuitOption {
	return func(co *circuitOptions) {
		co.name = s
	}
}

// CircuitLogHandler sets the handler used to log state changes.
func CircuitLogHandler(h slog.Handler) CircuitOption {
	return func(co *circuitOptions) {
		co.logHandler = h
	}
}

// HalfOpenRequests is how many requests are let through while half open.
func HalfOpenRequests(n uint32) CircuitOption {
	return func(co *circuitOptions) {
		co.maxRequests = n
	}
}

// OpenStateTimeout is how long the circuit stays open before going half open.
func OpenStateTimeout(d time.Duration) CircuitOption {
	return func(co *circuitOptions) {
		co.timeout = d
	}
}

// CountResetInterval is how often failure counts are cleared while closed.
func CountResetInterval(d time.Duration) CircuitOption {
	return func(co *circuitOptions) {
		co.interval = d
	}
}

// TripAfter opens the circuit after n consecutive failures.
func TripAfter(n uint32) CircuitOption {
	return func(co *circuitOptions) {
		co.tripCount = n
	}
}

// FailureStatusCodes overrides which response status codes count as
// failures. By default 400, 401, 403 and 500 do.
func FailureStatusCodes(codes ...int) CircuitOption {
	return func(co *circuitOptions) {
		co.statusCodes = codes
	}
}

type failureStatusError struct {
	code int
}

func (e failureStatusError) Error() string {
	return fmt.Sprintf("response status code counted as failure: %d", e.code)
}

// Circuit wraps a [Sender] with a circuit breaker. Responses with a
// failure status code are still returned to the caller but count
// towards tripping the circuit.
type Circuit struct {
	base  Sender
	cb    *gobreaker.CircuitBreaker
	codes map[int]struct{}
}

// NewCircuit wraps base in a circuit breaker.
func NewCircuit(base Sender, opts ...CircuitOption) *Circuit {
	co := &circuitOptions{
		logHandler: noop.LogHandler{},
		tripCount:  5,
	}
	for _, opt := range opts {
		opt(co)
	}
	if len(co.statusCodes) == 0 {
		co.statusCodes = []int{
			400, // Bad Request
			401, // Unauthorized
			403, // Forbidden
			500, // Internal Server Error
		}
	}

	codes := make(map[int]struct{}, len(co.statusCodes))
	for _, code := range co.statusCodes {
		codes[code] = struct{}{}
	}

	logger := otelslog.New(co.logHandler)
	if co.name != "" {
		logger = logger.With(slogfield.String("http_client", co.name))
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        co.name,
		MaxRequests: co.maxRequests,
		Interval:    co.interval,
		Timeout:     co.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= co.tripCount
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				logger.Error("circuit has been opened")
			case gobreaker.StateHalfOpen:
				logger.Warn(
					"circuit is now half open and letting some requests through",
					slogfield.Uint32("max_requests_allowed_through", co.maxRequests),
				)
			case gobreaker.StateClosed:
				logger.Info("circuit has been closed")
			}
		},
	})

	return &Circuit{
		base:  base,
		cb:    cb,
		codes: codes,
	}
}

// Send implements the [Sender] interface.
func (c *Circuit) Send(ctx context.Context, req message.RequestView) (*message.Response, error) {
	v, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.base.Send(ctx, req)
		if err != nil {
			return nil, err
		}
		if _, failed := c.codes[resp.StatusCode()]; failed {
			return resp, failureStatusError{code: resp.StatusCode()}
		}
		return resp, nil
	})

	var statusErr failureStatusError
	if errors.As(err, &statusErr) {
		return v.(*message.Response), nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	if err != nil {
		return nil, err
	}
	return v.(*message.Response), nil
}

// State returns the current circuit state.
func (c *Circuit) State() gobreaker.State {
	return c.cb.State()
}
