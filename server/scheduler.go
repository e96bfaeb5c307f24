// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import "golang.org/x/sync/errgroup"

// Scheduler runs the work of each accepted connection. Go may block,
// which holds back the accept loop until there is capacity again.
type Scheduler interface {
	Go(func())

	// Wait blocks until every function passed to Go has returned.
	Wait()
}

type inline struct{}

// Inline returns a [Scheduler] which runs each connection to completion
// on the accept loop's goroutine before the next one is accepted.
func Inline() Scheduler {
	return inline{}
}

func (inline) Go(f func()) { f() }

func (inline) Wait() {}

type limited struct {
	g errgroup.Group
}

// Limited returns a [Scheduler] which handles up to n connections
// concurrently. A negative n means no limit.
func Limited(n int) Scheduler {
	l := &limited{}
	l.g.SetLimit(n)
	return l
}

func (l *limited) Go(f func()) {
	l.g.Go(func() error {
		f()
		return nil
	})
}

func (l *limited) Wait() {
	l.g.Wait()
}
