// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package codec converts between [message.Request]/[message.Response]
// values and the HTTP/1.1 text framing used on a connection.
//
// Only Content-Length delimited bodies are understood. Chunked transfer
// encoding, trailers and header folding are not supported.
package codec
