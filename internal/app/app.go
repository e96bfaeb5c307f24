// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app runs long lived commands, e.g. the httpwire server, from
// config through to shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/z5labs/httpwire/config"
	"github.com/z5labs/httpwire/internal/try"

	"go.opentelemetry.io/otel"
)

// App represents the entry point for user specific code.
type App interface {
	Run(context.Context) error
}

// RunFunc is a func implementation of the [App] interface.
type RunFunc func(context.Context) error

// Run implements the [App] interface.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Builder initializes an [App] from its config.
type Builder[T any] interface {
	Build(ctx context.Context, cfg T) (App, error)
}

// BuilderFunc is a func implementation of the [Builder] interface.
type BuilderFunc[T any] func(context.Context, T) (App, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context, cfg T) (App, error) {
	return f(ctx, cfg)
}

// Run reads the config sources, unmarshals them into T, builds the [App]
// and, lastly, runs it.
func Run[T any](ctx context.Context, builder Builder[T], srcs ...config.Source) error {
	m, err := config.Read(srcs...)
	if err != nil {
		return ConfigReadError{Cause: err}
	}

	var cfg T
	err = m.Unmarshal(&cfg)
	if err != nil {
		return ConfigUnmarshalError{Cause: err}
	}

	a, err := builder.Build(ctx, cfg)
	if err != nil {
		return BuildError{Cause: err}
	}

	err = a.Run(ctx)
	if err != nil {
		return RunError{Cause: err}
	}
	return nil
}

// ConfigReadError is returned by [Run] when a config source fails.
type ConfigReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigReadError) Error() string {
	return fmt.Sprintf("failed to read config source(s): %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigReadError) Unwrap() error {
	return e.Cause
}

// ConfigUnmarshalError is returned by [Run] when the config doesn't fit T.
type ConfigUnmarshalError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigUnmarshalError) Error() string {
	return fmt.Sprintf("failed to unmarshal config: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigUnmarshalError) Unwrap() error {
	return e.Cause
}

// BuildError
type BuildError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e BuildError) Error() string {
	return fmt.Sprintf("failed to build app: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e BuildError) Unwrap() error {
	return e.Cause
}

// RunError
type RunError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e RunError) Error() string {
	return fmt.Sprintf("failed to run app: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e RunError) Unwrap() error {
	return e.Cause
}

// Recover wraps the given [App] with panic recovery. A recovered
// value that isn't an error is returned as a [try.PanicError].
func Recover(a App) App {
	return RunFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return a.Run(ctx)
	})
}

// WithSignalNotifications cancels the context passed to a.Run when one
// of signals is received by the process.
func WithSignalNotifications(a App, signals ...os.Signal) App {
	return RunFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return a.Run(sigCtx)
	})
}

// Hook is run at a fixed point relative to [App.Run].
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func implementation of the [Hook] interface.
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// ComposeHooks runs every hook in order, whether or not an earlier one
// failed, and joins their errors.
func ComposeHooks(hooks ...Hook) Hook {
	return HookFunc(func(ctx context.Context) error {
		var errs []error
		for _, hook := range hooks {
			err := hook.Run(ctx)
			if err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// PostRun runs hook after a.Run returns, even if it panics. The hook
// gets a context that isn't cancelled along with a.Run's.
func PostRun(a App, hook Hook) App {
	return RunFunc(func(ctx context.Context) (err error) {
		defer func() {
			hookErr := hook.Run(context.WithoutCancel(ctx))
			err = errors.Join(err, hookErr)
		}()
		defer try.Recover(&err)

		return a.Run(ctx)
	})
}

// ShutdownOTel flushes and stops the global providers which support it.
func ShutdownOTel() Hook {
	return ComposeHooks(
		tryShutdown(otel.GetTracerProvider()),
		tryShutdown(otel.GetMeterProvider()),
	)
}

type shutdowner interface {
	Shutdown(context.Context) error
}

func tryShutdown(v any) HookFunc {
	return func(ctx context.Context) error {
		s, ok := v.(shutdowner)
		if !ok {
			return nil
		}
		return s.Shutdown(ctx)
	}
}
