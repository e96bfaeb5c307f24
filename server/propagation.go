// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"github.com/z5labs/httpwire/message"

	"go.opentelemetry.io/otel/propagation"
)

// headerCarrier lets a propagator extract trace context from request
// headers. Requests are read only, so Set does nothing.
type headerCarrier struct {
	hr message.HeaderReader
}

var _ propagation.TextMapCarrier = headerCarrier{}

func (c headerCarrier) Get(key string) string {
	v, err := c.hr.Value(key)
	if err != nil {
		return ""
	}
	return v
}

func (headerCarrier) Set(key, value string) {}

func (c headerCarrier) Keys() []string {
	hs := c.hr.All()
	keys := make([]string, len(hs))
	for i, h := range hs {
		keys[i] = h.Name
	}
	return keys
}
