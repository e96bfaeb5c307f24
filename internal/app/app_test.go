// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/z5labs/httpwire/config"
	"github.com/z5labs/httpwire/internal/try"

	"github.com/stretchr/testify/assert"
)

type sourceFunc func(config.Store) error

func (f sourceFunc) Apply(store config.Store) error {
	return f(store)
}

type testConfig struct {
	Addr string `config:"addr"`
	Max  int    `config:"max"`
}

func TestRun(t *testing.T) {
	t.Run("will return a ConfigReadError", func(t *testing.T) {
		t.Run("if a config source fails", func(t *testing.T) {
			srcErr := errors.New("failed to apply")
			builder := BuilderFunc[testConfig](func(ctx context.Context, cfg testConfig) (App, error) {
				return nil, nil
			})

			err := Run[testConfig](context.Background(), builder, sourceFunc(func(config.Store) error {
				return srcErr
			}))

			var rerr ConfigReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.ErrorIs(t, err, srcErr) {
				return
			}
			if !assert.NotEmpty(t, rerr.Error()) {
				return
			}
		})
	})

	t.Run("will return a ConfigUnmarshalError", func(t *testing.T) {
		t.Run("if the config can't be decoded into the type", func(t *testing.T) {
			builder := BuilderFunc[testConfig](func(ctx context.Context, cfg testConfig) (App, error) {
				return nil, nil
			})

			err := Run[testConfig](context.Background(), builder, config.Map{"max": "not a number"})

			var uerr ConfigUnmarshalError
			if !assert.ErrorAs(t, err, &uerr) {
				return
			}
			if !assert.NotEmpty(t, uerr.Error()) {
				return
			}
		})
	})

	t.Run("will return a BuildError", func(t *testing.T) {
		t.Run("if the builder fails", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			builder := BuilderFunc[testConfig](func(ctx context.Context, cfg testConfig) (App, error) {
				return nil, buildErr
			})

			err := Run[testConfig](context.Background(), builder)

			var berr BuildError
			if !assert.ErrorAs(t, err, &berr) {
				return
			}
			if !assert.ErrorIs(t, err, buildErr) {
				return
			}
		})
	})

	t.Run("will return a RunError", func(t *testing.T) {
		t.Run("if the app fails", func(t *testing.T) {
			runErr := errors.New("failed to run")
			builder := BuilderFunc[testConfig](func(ctx context.Context, cfg testConfig) (App, error) {
				return RunFunc(func(ctx context.Context) error {
					return runErr
				}), nil
			})

			err := Run[testConfig](context.Background(), builder)

			var rerr RunError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.ErrorIs(t, err, runErr) {
				return
			}
		})
	})

	t.Run("will pass the unmarshalled config to the builder", func(t *testing.T) {
		var got testConfig
		builder := BuilderFunc[testConfig](func(ctx context.Context, cfg testConfig) (App, error) {
			got = cfg
			return RunFunc(func(ctx context.Context) error {
				return nil
			}), nil
		})

		err := Run[testConfig](
			context.Background(),
			builder,
			config.Map{"addr": ":8080", "max": 1},
			config.Map{"max": "4"},
		)
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, testConfig{Addr: ":8080", Max: 4}, got) {
			return
		}
	})
}

func TestRecover(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the underlying App returns an error", func(t *testing.T) {
			appErr := errors.New("failed to run")
			a := Recover(RunFunc(func(ctx context.Context) error {
				return appErr
			}))

			err := a.Run(context.Background())
			if !assert.Equal(t, appErr, err) {
				return
			}
		})

		t.Run("if the underlying App panics with an error value", func(t *testing.T) {
			appErr := errors.New("failed to run")
			a := Recover(RunFunc(func(ctx context.Context) error {
				panic(appErr)
			}))

			err := a.Run(context.Background())
			if !assert.ErrorIs(t, err, appErr) {
				return
			}
		})

		t.Run("if the underlying App panics with a non-error value", func(t *testing.T) {
			a := Recover(RunFunc(func(ctx context.Context) error {
				panic("hello world")
			}))

			err := a.Run(context.Background())

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "hello world", perr.Value) {
				return
			}
		})
	})
}

func TestWithSignalNotifications(t *testing.T) {
	t.Run("will cancel the context", func(t *testing.T) {
		t.Run("if the signal is received", func(t *testing.T) {
			a := WithSignalNotifications(RunFunc(func(ctx context.Context) error {
				p, err := os.FindProcess(os.Getpid())
				if err != nil {
					return err
				}
				err = p.Signal(syscall.SIGUSR1)
				if err != nil {
					return err
				}

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(5 * time.Second):
					return errors.New("context was not cancelled")
				}
			}), syscall.SIGUSR1)

			err := a.Run(context.Background())
			if !assert.Nil(t, err) {
				return
			}
		})
	})
}

func TestPostRun(t *testing.T) {
	t.Run("will run the hook", func(t *testing.T) {
		t.Run("if the app succeeds", func(t *testing.T) {
			called := false
			a := PostRun(RunFunc(func(ctx context.Context) error {
				return nil
			}), HookFunc(func(ctx context.Context) error {
				called = true
				return nil
			}))

			err := a.Run(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.True(t, called) {
				return
			}
		})

		t.Run("if the app panics", func(t *testing.T) {
			called := false
			a := PostRun(RunFunc(func(ctx context.Context) error {
				panic("boom")
			}), HookFunc(func(ctx context.Context) error {
				called = true
				return nil
			}))

			err := a.Run(context.Background())

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.True(t, called) {
				return
			}
		})

		t.Run("with an uncancelled context", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			var hookCtxErr error
			a := PostRun(RunFunc(func(ctx context.Context) error {
				cancel()
				return nil
			}), HookFunc(func(ctx context.Context) error {
				hookCtxErr = ctx.Err()
				return nil
			}))

			err := a.Run(ctx)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Nil(t, hookCtxErr) {
				return
			}
		})
	})

	t.Run("will join the app and hook errors", func(t *testing.T) {
		appErr := errors.New("app failed")
		hookErr := errors.New("hook failed")
		a := PostRun(RunFunc(func(ctx context.Context) error {
			return appErr
		}), HookFunc(func(ctx context.Context) error {
			return hookErr
		}))

		err := a.Run(context.Background())
		if !assert.ErrorIs(t, err, appErr) {
			return
		}
		if !assert.ErrorIs(t, err, hookErr) {
			return
		}
	})
}

func TestComposeHooks(t *testing.T) {
	t.Run("will run every hook", func(t *testing.T) {
		t.Run("even if an earlier one fails", func(t *testing.T) {
			oneErr := errors.New("one")
			var ran []string
			h := ComposeHooks(
				HookFunc(func(ctx context.Context) error {
					ran = append(ran, "one")
					return oneErr
				}),
				HookFunc(func(ctx context.Context) error {
					ran = append(ran, "two")
					return nil
				}),
			)

			err := h.Run(context.Background())
			if !assert.ErrorIs(t, err, oneErr) {
				return
			}
			if !assert.Equal(t, []string{"one", "two"}, ran) {
				return
			}
		})
	})
}

func TestShutdownOTel(t *testing.T) {
	t.Run("will not fail", func(t *testing.T) {
		t.Run("if the global providers can't be shutdown", func(t *testing.T) {
			err := ShutdownOTel().Run(context.Background())
			assert.Nil(t, err)
		})
	})
}
