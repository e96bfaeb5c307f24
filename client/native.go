// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package client

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/z5labs/httpwire/message"
	"github.com/z5labs/httpwire/pkg/otelslog"
	"github.com/z5labs/httpwire/pkg/slogfield"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type retryOptions struct {
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

type nativeOptions struct {
	options

	rt http.RoundTripper
	ro *retryOptions
}

// NativeOption configures a [Native] client.
type NativeOption interface {
	applyNative(*nativeOptions)
}

type nativeOptionFunc func(*nativeOptions)

func (f nativeOptionFunc) applyNative(no *nativeOptions) {
	f(no)
}

// RoundTripper overrides the base transport, which is
// [http.DefaultTransport] by default.
func RoundTripper(rt http.RoundTripper) NativeOption {
	return nativeOptionFunc(func(no *nativeOptions) {
		no.rt = rt
	})
}

// Retry enables retrying failed requests with exponential backoff.
// Retries happen on connection errors and 5xx responses.
func Retry(maxRetries int, waitMin, waitMax time.Duration) NativeOption {
	return nativeOptionFunc(func(no *nativeOptions) {
		no.ro = &retryOptions{
			maxRetries: maxRetries,
			waitMin:    waitMin,
			waitMax:    waitMax,
		}
	})
}

// Native sends requests through the net/http client stack, instrumented
// with OpenTelemetry. Redirects are never followed; the 3xx response is
// returned as is. Response bodies are streamed from the connection so
// the returned response must be closed.
type Native struct {
	log    *slog.Logger
	client *http.Client
}

// NewNative returns a [Native] client.
func NewNative(opts ...NativeOption) *Native {
	no := &nativeOptions{
		options: defaultOptions(),
		rt:      http.DefaultTransport,
	}
	for _, opt := range opts {
		opt.applyNative(no)
	}

	log := otelslog.New(no.logHandler)
	if no.name != "" {
		log = log.With(slogfield.String("http_client", no.name))
	}

	hc := &http.Client{
		Transport: otelhttp.NewTransport(no.rt),
	}
	if no.ro != nil {
		rc := &retryablehttp.Client{
			HTTPClient:   hc,
			Logger:       log,
			RetryWaitMin: no.ro.waitMin,
			RetryWaitMax: no.ro.waitMax,
			RetryMax:     no.ro.maxRetries,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			Backoff:      retryablehttp.DefaultBackoff,
			ErrorHandler: retryablehttp.PassthroughErrorHandler,
		}
		hc = rc.StandardClient()
	}
	hc.Timeout = no.timeout
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return &Native{
		log:    log,
		client: hc,
	}
}

// Send implements the [Sender] interface.
func (c *Native) Send(ctx context.Context, req message.RequestView) (*message.Response, error) {
	err := checkRequest(req)
	if err != nil {
		return nil, err
	}

	hreq, err := toHttpRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	c.log.InfoContext(ctx, "request sent", slogfield.Method(hreq.Method), slogfield.String("url", hreq.URL.String()))

	hresp, err := c.client.Do(hreq)
	if err != nil {
		err = hostNotFound(hreq.URL.Hostname(), err)
		c.log.ErrorContext(ctx, "failed to send request", slogfield.String("url", hreq.URL.String()), slogfield.Error(err))
		return nil, err
	}

	c.log.InfoContext(
		ctx,
		"response received",
		slogfield.String("url", hreq.URL.String()),
		slogfield.StatusCode(hresp.StatusCode),
		slogfield.Duration("latency", time.Since(start)),
	)
	return fromHttpResponse(hresp), nil
}

func toHttpRequest(ctx context.Context, req message.RequestView) (*http.Request, error) {
	hreq, err := http.NewRequestWithContext(ctx, req.Method(), req.URL().String(), req.Body())
	if err != nil {
		return nil, err
	}
	for _, h := range req.Headers().All() {
		switch strings.ToLower(h.Name) {
		case "content-length":
			n, err := strconv.ParseInt(h.Value, 10, 64)
			if err != nil {
				return nil, message.InvalidContentLengthError{Value: h.Value, Cause: err}
			}
			hreq.ContentLength = n
		case "host":
			hreq.Host = h.Value
		default:
			// net/http writes keys as given so the original casing survives
			hreq.Header[h.Name] = []string{h.Value}
		}
	}
	return hreq, nil
}

func fromHttpResponse(hresp *http.Response) *message.Response {
	version := hresp.Proto
	if version == "" {
		version = message.DefaultVersion
	}
	resp := message.NewResponse().
		SetVersion(version).
		SetStatusCode(hresp.StatusCode).
		SetReasonPhrase(strings.TrimPrefix(hresp.Status, strconv.Itoa(hresp.StatusCode)+" "))

	for _, name := range slices.Sorted(maps.Keys(hresp.Header)) {
		resp.SetHeader(name, strings.Join(hresp.Header[name], ","))
	}
	if hresp.ContentLength > 0 && !resp.Headers().Contains(message.ContentLengthName) {
		resp.SetHeaderInt(message.ContentLengthName, hresp.ContentLength)
	}
	if hresp.Body == nil {
		return resp
	}
	return resp.SetBody(hresp.Body)
}
