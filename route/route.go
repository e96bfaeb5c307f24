// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package route matches request paths against an ordered table of
// path patterns.
//
// A pattern is a "/" separated list of segments. A segment is either a
// literal, "*" which matches exactly one path component, or "**" which
// must be the last segment and matches every remaining component.
// Patterns are tried in registration order and the first match wins.
package route

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/z5labs/httpwire/message"
)

const (
	// Wildcard matches exactly one path component.
	Wildcard = "*"

	// MultiWildcard matches one or more trailing path components.
	MultiWildcard = "**"
)

// EmptyPatternError is returned when registering an empty pattern.
type EmptyPatternError struct{}

// Error implements the [builtin.error] interface.
func (EmptyPatternError) Error() string {
	return "path pattern must not be empty"
}

// Is allows errors.Is(err, message.ErrPrecondition).
func (EmptyPatternError) Is(target error) bool {
	return target == message.ErrPrecondition
}

// InvalidWildcardError is returned when "**" is followed by more segments.
type InvalidWildcardError struct {
	Pattern string
}

// Error implements the [builtin.error] interface.
func (e InvalidWildcardError) Error() string {
	return fmt.Sprintf("%s may only be the last segment of a path pattern: %s", MultiWildcard, strconv.Quote(e.Pattern))
}

// Is allows errors.Is(err, message.ErrPrecondition).
func (InvalidWildcardError) Is(target error) bool {
	return target == message.ErrPrecondition
}

// Normalize converts backslashes to slashes, ensures a leading slash and
// cleans the result, which removes trailing and repeated slashes.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func components(normalized string) []string {
	if normalized == "/" {
		return nil
	}
	return strings.Split(normalized[1:], "/")
}

type segmentKind int

const (
	literalSegment segmentKind = iota
	wildcardSegment
	multiWildcardSegment
)

type segment struct {
	kind    segmentKind
	literal string
}

// Pattern is a normalized path pattern.
type Pattern struct {
	raw      string
	segments []segment
}

// ParsePattern normalizes s and splits it into segments.
func ParsePattern(s string) (Pattern, error) {
	if s == "" {
		return Pattern{}, EmptyPatternError{}
	}

	normalized := Normalize(s)
	comps := components(normalized)
	segments := make([]segment, 0, len(comps))
	for i, comp := range comps {
		switch comp {
		case Wildcard:
			segments = append(segments, segment{kind: wildcardSegment})
		case MultiWildcard:
			if i != len(comps)-1 {
				return Pattern{}, InvalidWildcardError{Pattern: s}
			}
			segments = append(segments, segment{kind: multiWildcardSegment})
		default:
			segments = append(segments, segment{kind: literalSegment, literal: comp})
		}
	}

	p := Pattern{
		raw:      normalized,
		segments: segments,
	}
	return p, nil
}

// MustParsePattern is like [ParsePattern] but panics on error.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the normalized form of the pattern.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether requestPath matches the pattern and returns the
// components captured by its wildcards, in the order they appear.
func (p Pattern) Match(requestPath string) ([]string, bool) {
	comps := components(Normalize(requestPath))

	var captured []string
	for i, seg := range p.segments {
		if i >= len(comps) {
			return nil, false
		}

		switch seg.kind {
		case literalSegment:
			if comps[i] != seg.literal {
				return nil, false
			}
		case wildcardSegment:
			captured = append(captured, comps[i])
		case multiWildcardSegment:
			captured = append(captured, strings.Join(comps[i:], "/"))
			return captured, true
		}
	}
	if len(comps) != len(p.segments) {
		return nil, false
	}
	return captured, true
}

// Route is the result of a successful [Table.Match].
type Route[H any] struct {
	Pattern  Pattern
	Handler  H
	Captured []string
}

type entry[H any] struct {
	pattern Pattern
	handler H
}

// Table is an ordered route table. The zero value is ready to use and
// a Table is safe for concurrent use.
type Table[H any] struct {
	mu      sync.RWMutex
	entries []entry[H]
	index   map[string]int
}

// Register adds a pattern to the end of the table. Registering a
// pattern which normalizes to an existing one replaces that entry's
// handler without changing its position.
func (t *Table[H]) Register(pattern string, h H) error {
	p, err := ParsePattern(pattern)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.index == nil {
		t.index = make(map[string]int)
	}
	if i, exists := t.index[p.raw]; exists {
		t.entries[i].handler = h
		return nil
	}
	t.index[p.raw] = len(t.entries)
	t.entries = append(t.entries, entry[H]{pattern: p, handler: h})
	return nil
}

// Match returns the first registered route matching requestPath.
// An empty path is treated as "/".
func (t *Table[H]) Match(requestPath string) (Route[H], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, e := range t.entries {
		captured, ok := e.pattern.Match(requestPath)
		if !ok {
			continue
		}
		r := Route[H]{
			Pattern:  e.pattern,
			Handler:  e.handler,
			Captured: captured,
		}
		return r, true
	}
	return Route[H]{}, false
}

// Patterns returns the registered patterns in precedence order.
func (t *Table[H]) Patterns() []Pattern {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ps := make([]Pattern, len(t.entries))
	for i, e := range t.entries {
		ps[i] = e.pattern
	}
	return ps
}

// Len returns the number of registered patterns.
func (t *Table[H]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
