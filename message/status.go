// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package message

// DefaultVersion is used whenever a message has no HTTP version set.
const DefaultVersion = "HTTP/1.1"

// Request methods.
const (
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
	MethodOptions = "OPTIONS"
	MethodTrace   = "TRACE"
	MethodConnect = "CONNECT"
)

// Status codes with a default reason phrase.
const (
	StatusContinue            = 100
	StatusSwitchingProtocols  = 101
	StatusOK                  = 200
	StatusCreated             = 201
	StatusAccepted            = 202
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusInternalServerError = 500
)

// Status codes used by this module without a default reason phrase.
const (
	StatusMethodNotAllowed   = 405
	StatusServiceUnavailable = 503
)

// https://www.w3.org/Protocols/rfc2616/rfc2616-sec6.html
var reasonPhrases = map[int]string{
	StatusContinue:            "Continue",
	StatusSwitchingProtocols:  "Switching Protocols",
	StatusOK:                  "OK",
	StatusCreated:             "Created",
	StatusAccepted:            "Accepted",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusInternalServerError: "Internal Server Error",
}

// ReasonPhrase returns the default reason phrase for code, or an
// empty string if there is none.
func ReasonPhrase(code int) string {
	return reasonPhrases[code]
}
