// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/z5labs/httpwire/message"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

type senderFunc func(context.Context, message.RequestView) (*message.Response, error)

func (f senderFunc) Send(ctx context.Context, req message.RequestView) (*message.Response, error) {
	return f(ctx, req)
}

func statusSender(code int, calls *int) Sender {
	return senderFunc(func(ctx context.Context, req message.RequestView) (*message.Response, error) {
		*calls++
		return message.NewResponse().SetStatusCode(code), nil
	})
}

func TestCircuit_Send(t *testing.T) {
	t.Run("will return the response", func(t *testing.T) {
		t.Run("if the status code counts as a failure", func(t *testing.T) {
			var calls int
			c := NewCircuit(statusSender(500, &calls), TripAfter(10))

			resp, err := Get(context.Background(), c, "http://example.com/")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 500, resp.StatusCode()) {
				return
			}
		})
	})

	t.Run("will open the circuit", func(t *testing.T) {
		t.Run("if the trip count of consecutive failures is reached", func(t *testing.T) {
			var calls int
			c := NewCircuit(statusSender(500, &calls), TripAfter(2), OpenStateTimeout(time.Minute))

			for range 2 {
				_, err := Get(context.Background(), c, "http://example.com/")
				if !assert.Nil(t, err) {
					return
				}
			}
			if !assert.Equal(t, gobreaker.StateOpen, c.State()) {
				return
			}

			_, err := Get(context.Background(), c, "http://example.com/")
			if !assert.ErrorIs(t, err, ErrCircuitOpen) {
				return
			}
			if !assert.ErrorIs(t, err, gobreaker.ErrOpenState) {
				return
			}
			if !assert.Equal(t, 2, calls) {
				return
			}
		})

		t.Run("if the base sender keeps failing", func(t *testing.T) {
			sendErr := errors.New("failed to send")
			base := senderFunc(func(ctx context.Context, req message.RequestView) (*message.Response, error) {
				return nil, sendErr
			})
			c := NewCircuit(base, TripAfter(1), OpenStateTimeout(time.Minute))

			_, err := Get(context.Background(), c, "http://example.com/")
			if !assert.ErrorIs(t, err, sendErr) {
				return
			}

			_, err = Get(context.Background(), c, "http://example.com/")
			if !assert.ErrorIs(t, err, ErrCircuitOpen) {
				return
			}
		})
	})

	t.Run("will stay closed", func(t *testing.T) {
		t.Run("if the status code is not a failure status code", func(t *testing.T) {
			var calls int
			c := NewCircuit(statusSender(404, &calls), TripAfter(1))

			for range 3 {
				_, err := Get(context.Background(), c, "http://example.com/")
				if !assert.Nil(t, err) {
					return
				}
			}
			if !assert.Equal(t, gobreaker.StateClosed, c.State()) {
				return
			}
		})

		t.Run("if the failure status codes are overridden", func(t *testing.T) {
			var calls int
			c := NewCircuit(statusSender(500, &calls), TripAfter(1), FailureStatusCodes(503))

			for range 3 {
				_, err := Get(context.Background(), c, "http://example.com/")
				if !assert.Nil(t, err) {
					return
				}
			}
			if !assert.Equal(t, 3, calls) {
				return
			}
		})
	})
}
