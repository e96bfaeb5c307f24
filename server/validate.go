// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"

	"github.com/z5labs/httpwire/message"
)

// Validator checks a request before it reaches a [Handler]. A nil
// response means the request is valid, otherwise the response is sent
// in place of the handler's.
type Validator interface {
	Validate(context.Context, message.RequestView) *message.Response
}

// ValidatorFunc is a func implementation of the [Validator] interface.
type ValidatorFunc func(context.Context, message.RequestView) *message.Response

// Validate implements the [Validator] interface.
func (f ValidatorFunc) Validate(ctx context.Context, req message.RequestView) *message.Response {
	return f(ctx, req)
}

// Validate runs every validator, in order, before h. The first failing
// validator short circuits the rest.
func Validate(h Handler, validators ...Validator) Handler {
	return func(ctx context.Context, captured []string, req message.RequestView) *message.Response {
		for _, validator := range validators {
			resp := validator.Validate(ctx, req)
			if resp != nil {
				return resp
			}
		}
		return h(ctx, captured, req)
	}
}

// ForMethods rejects requests whose method isn't one of methods
// with 405 Method Not Allowed.
func ForMethods(methods ...string) Validator {
	return ValidatorFunc(func(ctx context.Context, req message.RequestView) *message.Response {
		for _, method := range methods {
			if method == req.Method() {
				return nil
			}
		}
		return MethodNotAllowed()
	})
}

// MinimumParams rejects requests missing any of the named query
// parameters with 400 Bad Request.
func MinimumParams(names ...string) Validator {
	return ValidatorFunc(func(ctx context.Context, req message.RequestView) *message.Response {
		params := req.URL().Query()
		if len(params) < len(names) {
			return BadRequest()
		}
		for _, name := range names {
			if !params.Has(name) {
				return BadRequest()
			}
		}
		return nil
	})
}

// ExactParams is like [MinimumParams] but also rejects requests
// carrying any other query parameter.
func ExactParams(names ...string) Validator {
	return ValidatorFunc(func(ctx context.Context, req message.RequestView) *message.Response {
		params := req.URL().Query()
		if len(params) != len(names) {
			return BadRequest()
		}
		for _, name := range names {
			if !params.Has(name) {
				return BadRequest()
			}
		}
		return nil
	})
}

// MethodNotAllowed is sent by [ForMethods].
func MethodNotAllowed() *message.Response {
	return message.NewResponse().
		SetStatusCode(message.StatusMethodNotAllowed).
		SetReasonPhrase("Method Not Allowed").
		SetBodyString("405: Method Not Allowed")
}
