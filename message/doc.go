// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package message models HTTP/1.1 requests and responses.
//
// A [Request] or [Response] is built with fluent setters which return the
// same value, e.g.
//
//	req := message.NewRequest().
//		SetMethod(message.MethodPost).
//		SetURL(u).
//		SetHeader("Content-Type", "text/plain").
//		SetBodyString("hello")
//
// Both types keep the Content-Length header consistent with their body:
// a non-empty body always carries a matching Content-Length and an empty
// body carries none.
//
// Code which should only observe a message depends on the read-only
// [RequestView], [ResponseView] and [HeaderReader] interfaces instead.
package message
