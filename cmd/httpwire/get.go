// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/z5labs/httpwire/client"
	"github.com/z5labs/httpwire/codec"
	"github.com/z5labs/httpwire/internal/try"
	"github.com/z5labs/httpwire/message"

	"github.com/spf13/cobra"
)

// Backends selectable with the get command's --backend flag.
const (
	BackendBasic  = "basic"
	BackendNative = "native"
)

// UnknownBackendError
type UnknownBackendError struct {
	Backend string
}

// Error implements the [builtin.error] interface.
func (e UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown backend: %q (expected %s or %s)", e.Backend, BackendBasic, BackendNative)
}

// InvalidHeaderFlagError is returned for a --header value without a colon.
type InvalidHeaderFlagError struct {
	Value string
}

// Error implements the [builtin.error] interface.
func (e InvalidHeaderFlagError) Error() string {
	return fmt.Sprintf("invalid header, expected name:value: %q", e.Value)
}

type getFlags struct {
	backend string
	head    bool
	headers []string
	timeout time.Duration
	retries int
}

func newGetCmd() *cobra.Command {
	var flags getFlags

	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Send a GET request and print the response as it was received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sender, err := newSender(flags)
			if err != nil {
				return err
			}

			req, err := newGetRequest(args[0], flags)
			if err != nil {
				return err
			}
			defer try.Close(&err, req)

			resp, err := sender.Send(cmd.Context(), req)
			if err != nil {
				return err
			}
			defer try.Close(&err, resp)

			return printResponse(cmd.OutOrStdout(), resp, flags.head)
		},
	}

	cmd.Flags().StringVarP(&flags.backend, "backend", "b", BackendBasic, "client backend, basic or native")
	cmd.Flags().BoolVar(&flags.head, "head", false, "send a HEAD request instead of GET")
	cmd.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "request header as name:value, may be repeated")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "time limit for the whole exchange")
	cmd.Flags().IntVar(&flags.retries, "retries", 0, "retries on connection errors and 5xx responses, native backend only")
	return cmd
}

func newSender(flags getFlags) (client.Sender, error) {
	switch flags.backend {
	case BackendBasic:
		return client.NewBasic(
			client.Name("httpwire"),
			client.Timeout(flags.timeout),
		), nil
	case BackendNative:
		opts := []client.NativeOption{
			client.Name("httpwire"),
			client.Timeout(flags.timeout),
		}
		if flags.retries > 0 {
			opts = append(opts, client.Retry(flags.retries, 100*time.Millisecond, 2*time.Second))
		}
		return client.NewNative(opts...), nil
	default:
		return nil, UnknownBackendError{Backend: flags.backend}
	}
}

func newGetRequest(rawURL string, flags getFlags) (*message.Request, error) {
	method := message.MethodGet
	if flags.head {
		method = message.MethodHead
	}

	req, err := message.NewRequest().SetMethod(method).ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	for _, h := range flags.headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, InvalidHeaderFlagError{Value: h}
		}
		req.SetHeader(name, strings.TrimSpace(value))
	}
	return req, nil
}

func printResponse(w io.Writer, resp *message.Response, head bool) error {
	return codec.WriteResponse(w, resp, codec.OmitBodyIf(head))
}
