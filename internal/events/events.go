// Package events provides the in-process publish/subscribe bus that connects
// the storefront models to their consumers.
package events

import (
	"reflect"
	"regexp"
	"sync"
)

// Handler reacts to a payload published under a matching event name.
type Handler func(payload any)

// EmitterEvent wraps an event for universal-wildcard subscribers, which
// observe every publish regardless of name.
type EmitterEvent struct {
	Name    string
	Payload any
}

// WildcardHandler reacts to every published event.
type WildcardHandler func(ev EmitterEvent)

// entry pairs a handler with its identity. Identity is the function's code
// pointer: registering the same function value twice for the same key is a
// no-op, matching set semantics. Two distinct closures created from the same
// source line share a code pointer and are treated as the same handler.
type entry struct {
	id uintptr
	fn Handler
}

type wildcardEntry struct {
	id uintptr
	fn WildcardHandler
}

// patternSub holds the handlers registered under one pattern, keyed by the
// pattern's source text.
type patternSub struct {
	expr    string
	re      *regexp.Regexp
	entries []entry
}

// Bus is a synchronous pub/sub hub. Construct one per session (or per test)
// and pass it explicitly; there is no package-level instance.
//
// Exact-name, pattern and universal-wildcard registrations are independent
// delivery channels: a handler registered under both an exact name and the
// wildcard receives two calls per publish, one raw and one wrapped.
type Bus struct {
	mu       sync.RWMutex
	exact    map[string][]entry
	patterns []patternSub
	wildcard []wildcardEntry
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{exact: make(map[string][]entry)}
}

func handlerID(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// On registers a handler for an exact event name. No-op if the same handler
// is already registered for that name.
func (b *Bus) On(event string, fn Handler) {
	id := handlerID(fn)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.exact[event] {
		if e.id == id {
			return
		}
	}
	b.exact[event] = append(b.exact[event], entry{id: id, fn: fn})
}

// Off removes an exact-name registration; no-op if absent. Removing the last
// handler for a name removes the name's registry entry itself.
func (b *Bus) Off(event string, fn Handler) {
	id := handlerID(fn)
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.exact[event]
	for i, e := range entries {
		if e.id == id {
			entries = append(entries[:i], entries[i+1:]...)
			if len(entries) == 0 {
				delete(b.exact, event)
			} else {
				b.exact[event] = entries
			}
			return
		}
	}
}

// OnPattern registers a handler for every event whose name matches re.
// Matching handlers receive the raw payload, same as exact-name subscribers.
func (b *Bus) OnPattern(re *regexp.Regexp, fn Handler) {
	id := handlerID(fn)
	expr := re.String()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.patterns {
		if b.patterns[i].expr != expr {
			continue
		}
		for _, e := range b.patterns[i].entries {
			if e.id == id {
				return
			}
		}
		b.patterns[i].entries = append(b.patterns[i].entries, entry{id: id, fn: fn})
		return
	}
	b.patterns = append(b.patterns, patternSub{
		expr:    expr,
		re:      re,
		entries: []entry{{id: id, fn: fn}},
	})
}

// OffPattern removes a pattern registration; no-op if absent.
func (b *Bus) OffPattern(re *regexp.Regexp, fn Handler) {
	id := handlerID(fn)
	expr := re.String()
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.patterns {
		if b.patterns[i].expr != expr {
			continue
		}
		entries := b.patterns[i].entries
		for j, e := range entries {
			if e.id == id {
				entries = append(entries[:j], entries[j+1:]...)
				if len(entries) == 0 {
					b.patterns = append(b.patterns[:i], b.patterns[i+1:]...)
				} else {
					b.patterns[i].entries = entries
				}
				return
			}
		}
		return
	}
}

// OnAll registers a universal-wildcard handler. It receives a wrapped
// EmitterEvent for every publish.
func (b *Bus) OnAll(fn WildcardHandler) {
	id := handlerID(fn)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.wildcard {
		if e.id == id {
			return
		}
	}
	b.wildcard = append(b.wildcard, wildcardEntry{id: id, fn: fn})
}

// OffWildcard removes a universal-wildcard registration; no-op if absent.
func (b *Bus) OffWildcard(fn WildcardHandler) {
	id := handlerID(fn)
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, e := range b.wildcard {
		if e.id == id {
			b.wildcard = append(b.wildcard[:i], b.wildcard[i+1:]...)
			return
		}
	}
}

// Reset drops every registration. Used at teardown so handlers do not leak
// across session remounts.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exact = make(map[string][]entry)
	b.patterns = nil
	b.wildcard = nil
}

// Emit synchronously delivers payload to every matching registration, in
// registration order within each channel. A publish with no matches is a
// no-op. Handler panics are not recovered here; fault isolation is the
// subscriber's job.
func (b *Bus) Emit(event string, payload any) {
	b.mu.RLock()
	wild := make([]WildcardHandler, 0, len(b.wildcard))
	for _, e := range b.wildcard {
		wild = append(wild, e.fn)
	}
	var matched []Handler
	for i := range b.patterns {
		if b.patterns[i].re.MatchString(event) {
			for _, e := range b.patterns[i].entries {
				matched = append(matched, e.fn)
			}
		}
	}
	for _, e := range b.exact[event] {
		matched = append(matched, e.fn)
	}
	b.mu.RUnlock()

	for _, fn := range wild {
		fn(EmitterEvent{Name: event, Payload: payload})
	}
	for _, fn := range matched {
		fn(payload)
	}
}

// Trigger returns a callback that publishes the given event with whatever
// payload it is invoked with. Convenient for wiring UI callbacks.
func (b *Bus) Trigger(event string) func(payload any) {
	return func(payload any) {
		b.Emit(event, payload)
	}
}
