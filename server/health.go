// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"

	"github.com/z5labs/httpwire/message"
	"github.com/z5labs/httpwire/pkg/health"
)

// HealthHandler wraps a health.Metric into a [Handler].
//
// If m.Healthy returns true, then status code 200 is
// returned, else, status code 503 is returned.
func HealthHandler(m health.Metric) Handler {
	return func(ctx context.Context, captured []string, req message.RequestView) *message.Response {
		if m.Healthy(ctx) {
			return message.NewResponse().
				SetStatusCode(message.StatusOK).
				SetReasonPhrase(message.ReasonPhrase(message.StatusOK))
		}
		return message.NewResponse().
			SetStatusCode(message.StatusServiceUnavailable).
			SetReasonPhrase("Service Unavailable")
	}
}
