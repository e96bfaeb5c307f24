// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides slog.Attr constructors with consistent key
// names for the values httpwire logs.
package slogfield

import (
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/z5labs/httpwire/message"
)

// Any returns an slog.Attr for the supplied value.
func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Strings returns an slog.Attr for a slice of strings.
func Strings(key string, values []string) slog.Attr {
	return slog.Any(key, values)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Int64 returns an slog.Attr for a int64.
func Int64(key string, n int64) slog.Attr {
	return slog.Int64(key, n)
}

// Uint32 returns an slog.Attr for a uint32.
func Uint32(key string, n uint32) slog.Attr {
	return slog.Uint64(key, uint64(n))
}

// Method returns an slog.Attr for a request method.
func Method(method string) slog.Attr {
	return slog.String("http_method", method)
}

// Path returns an slog.Attr for a request path.
func Path(path string) slog.Attr {
	return slog.String("http_path", path)
}

// StatusCode returns an slog.Attr for a response status code.
func StatusCode(code int) slog.Attr {
	return slog.Int("http_status_code", code)
}

// Addr returns an slog.Attr for a network address. A nil address is
// logged as an empty string.
func Addr(key string, addr net.Addr) slog.Attr {
	if addr == nil {
		return slog.String(key, "")
	}
	return slog.String(key, addr.String())
}

// Headers groups every header under "headers", keyed by lower cased name.
func Headers(hr message.HeaderReader) slog.Attr {
	hs := hr.All()
	attrs := make([]any, len(hs))
	for i, h := range hs {
		attrs[i] = slog.String(strings.ToLower(h.Name), h.Value)
	}
	return slog.Group("headers", attrs...)
}
