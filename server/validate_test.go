// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"net"
	"testing"

	"github.com/z5labs/httpwire/message"
	"github.com/z5labs/httpwire/pkg/health"

	"github.com/stretchr/testify/assert"
)

func okHandler(ctx context.Context, captured []string, req message.RequestView) *message.Response {
	return message.NewResponse().SetStatusCode(message.StatusOK)
}

func newTestRequest(t *testing.T, method, rawURL string) *message.Request {
	t.Helper()

	req, err := message.NewRequest().SetMethod(method).ParseURL(rawURL)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestForMethods(t *testing.T) {
	t.Run("will return 405", func(t *testing.T) {
		t.Run("if the method is not allowed", func(t *testing.T) {
			h := Validate(okHandler, ForMethods(message.MethodGet, message.MethodHead))

			resp := h(context.Background(), nil, newTestRequest(t, message.MethodPost, "http://localhost/health"))
			if !assert.Equal(t, message.StatusMethodNotAllowed, resp.StatusCode()) {
				return
			}
			if !assert.Equal(t, "Method Not Allowed", resp.ReasonPhrase()) {
				return
			}
		})
	})

	t.Run("will call the handler", func(t *testing.T) {
		t.Run("if the method is allowed", func(t *testing.T) {
			h := Validate(okHandler, ForMethods(message.MethodGet, message.MethodHead))

			resp := h(context.Background(), nil, newTestRequest(t, message.MethodHead, "http://localhost/health"))
			if !assert.Equal(t, message.StatusOK, resp.StatusCode()) {
				return
			}
		})
	})
}

func TestMinimumParams(t *testing.T) {
	testCases := []struct {
		Name   string
		URL    string
		Status int
	}{
		{
			Name:   "will return 400 if a parameter is missing",
			URL:    "http://localhost/things?a=1",
			Status: message.StatusBadRequest,
		},
		{
			Name:   "will return 400 if the parameters have the wrong names",
			URL:    "http://localhost/things?a=1&c=2",
			Status: message.StatusBadRequest,
		},
		{
			Name:   "will call the handler if all parameters are present",
			URL:    "http://localhost/things?a=1&b=2",
			Status: message.StatusOK,
		},
		{
			Name:   "will call the handler if extra parameters are present",
			URL:    "http://localhost/things?a=1&b=2&c=3",
			Status: message.StatusOK,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			h := Validate(okHandler, MinimumParams("a", "b"))

			resp := h(context.Background(), nil, newTestRequest(t, message.MethodGet, testCase.URL))
			assert.Equal(t, testCase.Status, resp.StatusCode())
		})
	}
}

func TestExactParams(t *testing.T) {
	t.Run("will return 400", func(t *testing.T) {
		t.Run("if extra parameters are present", func(t *testing.T) {
			h := Validate(okHandler, ExactParams("a"))

			resp := h(context.Background(), nil, newTestRequest(t, message.MethodGet, "http://localhost/things?a=1&b=2"))
			assert.Equal(t, message.StatusBadRequest, resp.StatusCode())
		})
	})

	t.Run("will call the handler", func(t *testing.T) {
		t.Run("if exactly the named parameters are present", func(t *testing.T) {
			h := Validate(okHandler, ExactParams("a"))

			resp := h(context.Background(), nil, newTestRequest(t, message.MethodGet, "http://localhost/things?a=1"))
			assert.Equal(t, message.StatusOK, resp.StatusCode())
		})
	})
}

func TestValidate(t *testing.T) {
	t.Run("will stop at the first failing validator", func(t *testing.T) {
		calls := 0
		counting := ValidatorFunc(func(ctx context.Context, req message.RequestView) *message.Response {
			calls++
			return nil
		})

		h := Validate(okHandler, counting, ForMethods(message.MethodGet), counting)

		resp := h(context.Background(), nil, newTestRequest(t, message.MethodPut, "http://localhost/"))
		if !assert.Equal(t, message.StatusMethodNotAllowed, resp.StatusCode()) {
			return
		}
		if !assert.Equal(t, 1, calls) {
			return
		}
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("will return 200", func(t *testing.T) {
		t.Run("if the metric is healthy", func(t *testing.T) {
			var m health.Binary
			h := HealthHandler(&m)

			resp := h(context.Background(), nil, newTestRequest(t, message.MethodGet, "http://localhost/health"))
			if !assert.Equal(t, message.StatusOK, resp.StatusCode()) {
				return
			}
			if !assert.Equal(t, "OK", resp.ReasonPhrase()) {
				return
			}
		})
	})

	t.Run("will return 503", func(t *testing.T) {
		t.Run("if the metric is unhealthy", func(t *testing.T) {
			var m health.Binary
			m.Toggle()
			h := HealthHandler(&m)

			resp := h(context.Background(), nil, newTestRequest(t, message.MethodGet, "http://localhost/health"))
			if !assert.Equal(t, message.StatusServiceUnavailable, resp.StatusCode()) {
				return
			}
			if !assert.Equal(t, "Service Unavailable", resp.ReasonPhrase()) {
				return
			}
		})

		t.Run("if the server is not running", func(t *testing.T) {
			ls, err := net.Listen("tcp", "127.0.0.1:0")
			if !assert.Nil(t, err) {
				return
			}
			s := New(ls)
			defer s.Close()

			h := HealthHandler(health.And(s, &health.Binary{}))

			resp := h(context.Background(), nil, newTestRequest(t, message.MethodGet, "http://localhost/health"))
			if !assert.Equal(t, message.StatusServiceUnavailable, resp.StatusCode()) {
				return
			}
		})
	})
}
