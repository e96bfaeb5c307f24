// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/z5labs/httpwire/config"
	"github.com/z5labs/httpwire/internal/app"
	"github.com/z5labs/httpwire/message"
	"github.com/z5labs/httpwire/pkg/health"
	"github.com/z5labs/httpwire/pkg/maskslog"
	"github.com/z5labs/httpwire/pkg/otelslog"
	"github.com/z5labs/httpwire/pkg/slogfield"
	"github.com/z5labs/httpwire/server"

	"github.com/spf13/cobra"
)

//go:embed default_config.yaml
var defaultConfig []byte

// EnvPrefix marks environment variables which override the config,
// e.g. HTTPWIRE_SERVER__ADDR.
const EnvPrefix = "HTTPWIRE_"

// Config is the serve command's configuration, layered from the embedded
// defaults, an optional config file and HTTPWIRE_ environment variables.
type Config struct {
	OTel struct {
		ServiceName string `config:"service_name"`
		Trace       bool   `config:"trace"`
		Metrics     bool   `config:"metrics"`
	} `config:"otel"`

	Logging struct {
		Level slog.Level `config:"level"`
	} `config:"logging"`

	Server struct {
		Network                  string        `config:"network"`
		Addr                     string        `config:"addr"`
		MaxConcurrentConnections int           `config:"max_concurrent_connections"`
		MaxLineBytes             int           `config:"max_line_bytes"`
		ReadTimeout              time.Duration `config:"read_timeout"`
		WriteTimeout             time.Duration `config:"write_timeout"`
	} `config:"server"`
}

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP/1.1 server with a few demo routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run[Config](
				cmd.Context(),
				buildServe(cmd.OutOrStdout(), cmd.ErrOrStderr()),
				configSources(cfgPath)...,
			)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "YAML or JSON config file, rendered as a text/template first")
	return cmd
}

// configSources layers the embedded defaults, the optional file at path
// and the environment, later sources overriding earlier ones. A file
// ending in .json is parsed as JSON, anything else as YAML.
func configSources(path string) []config.Source {
	srcs := []config.Source{
		config.FromYaml(config.RenderTextTemplate(bytes.NewReader(defaultConfig))),
	}
	if path != "" {
		f := config.RenderTextTemplate(config.NewFileReader(os.DirFS(filepath.Dir(path)), filepath.Base(path)))
		if strings.EqualFold(filepath.Ext(path), ".json") {
			srcs = append(srcs, config.FromJson(f))
		} else {
			srcs = append(srcs, config.FromYaml(f))
		}
	}
	return append(srcs, config.FromEnv(EnvPrefix))
}

func buildServe(logOut, otelOut io.Writer) app.BuilderFunc[Config] {
	return func(ctx context.Context, cfg Config) (app.App, error) {
		err := initOTel(ctx, otelOut, cfg)
		if err != nil {
			return nil, err
		}

		logHandler := otelslog.NewHandler(maskslog.NewHandler(
			slog.NewJSONHandler(logOut, &slog.HandlerOptions{
				Level: cfg.Logging.Level,
			}),
			maskslog.Attr("authorization", maskslog.Redact),
			maskslog.Attr("cookie", maskslog.Redact),
		))

		srv, err := newServer(cfg, logHandler)
		if err != nil {
			return nil, errors.Join(err, app.ShutdownOTel().Run(ctx))
		}

		log := slog.New(logHandler)
		run := app.RunFunc(func(ctx context.Context) error {
			log.InfoContext(ctx, "serving", slogfield.Addr("addr", srv.Addr()))
			return srv.Start(ctx)
		})

		var a app.App = app.Recover(run)
		a = app.WithSignalNotifications(a, os.Interrupt, syscall.SIGTERM)
		a = app.PostRun(a, app.ComposeHooks(
			app.HookFunc(func(context.Context) error {
				return srv.Close()
			}),
			app.ShutdownOTel(),
		))
		return a, nil
	}
}

func newServer(cfg Config, logHandler slog.Handler) (*server.Server, error) {
	srv, err := server.Listen(
		cfg.Server.Network,
		cfg.Server.Addr,
		server.LogHandler(logHandler),
		server.MaxConcurrentConnections(cfg.Server.MaxConcurrentConnections),
		server.MaxLineBytes(cfg.Server.MaxLineBytes),
		server.ReadTimeout(cfg.Server.ReadTimeout),
		server.WriteTimeout(cfg.Server.WriteTimeout),
	)
	if err != nil {
		return nil, err
	}

	err = registerRoutes(srv, &health.Binary{})
	if err != nil {
		return nil, errors.Join(err, srv.Close())
	}
	return srv, nil
}

func registerRoutes(srv *server.Server, liveness *health.Binary) error {
	readOnly := server.ForMethods(message.MethodGet, message.MethodHead)

	return errors.Join(
		srv.Handle("/echo", echo),
		srv.Handle("/things/*", server.Validate(thing, readOnly)),
		srv.Handle("/files/**", server.Validate(file, readOnly)),
		srv.Handle("/health/liveness", server.Validate(
			server.HealthHandler(health.And(srv, liveness)),
			readOnly,
		)),
		srv.Handle("/health/liveness/toggle", server.Validate(
			toggle(liveness),
			server.ForMethods(message.MethodPost),
		)),
	)
}

func ok() *message.Response {
	return message.NewResponse().
		SetStatusCode(message.StatusOK).
		SetReasonPhrase(message.ReasonPhrase(message.StatusOK))
}

// echo answers with the request's headers and body.
func echo(ctx context.Context, captured []string, req message.RequestView) *message.Response {
	resp := ok().SetHeaders(req.Headers())

	body := req.Body()
	if body == nil {
		return resp
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return server.InternalServerError()
	}
	return resp.SetBodyBytes(b)
}

func thing(ctx context.Context, captured []string, req message.RequestView) *message.Response {
	return ok().SetBodyString(fmt.Sprintf("thing: %s", captured[0]))
}

func file(ctx context.Context, captured []string, req message.RequestView) *message.Response {
	return ok().SetBodyString(fmt.Sprintf("file: %s", captured[0]))
}

func toggle(liveness *health.Binary) server.Handler {
	return func(ctx context.Context, captured []string, req message.RequestView) *message.Response {
		liveness.Toggle()
		return ok()
	}
}
