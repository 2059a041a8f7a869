package actor

import "time"

// Clause is one (pattern, handler) entry in a Behavior. Build one with On.
type Clause struct {
	match  func(Message) bool
	invoke func(Message)
}

// On builds a Clause that matches messages of concrete type T. Go has no
// structural pattern matching on tuples the way the source language does;
// a closed Message interface plus a type switch per clause is the
// idiomatic substitute (§9).
func On[T Message](handler func(T)) Clause {
	return Clause{
		match: func(m Message) bool {
			_, ok := m.(T)
			return ok
		},
		invoke: func(m Message) {
			handler(m.(T))
		},
	}
}

// Behavior is an ordered set of clauses plus an optional timeout, matching
// §3's Behavior data model entry. First-match wins.
type Behavior struct {
	clauses   []Clause
	timeout   time.Duration
	onTimeout func()
}

// NewBehavior builds a Behavior from an ordered list of clauses.
func NewBehavior(clauses ...Clause) *Behavior {
	return &Behavior{clauses: clauses}
}

// After attaches a timeout clause: if no clause matches within d since the
// dequeue began, action runs instead.
func (b *Behavior) After(d time.Duration, action func()) *Behavior {
	b.timeout = d
	b.onTimeout = action
	return b
}

// match reports whether any clause matches payload, invoking the first one
// that does.
func (b *Behavior) match(payload Message) bool {
	for _, c := range b.clauses {
		if c.match(payload) {
			c.invoke(payload)
			return true
		}
	}
	return false
}

// fires reports whether payload would match without invoking the handler,
// used by the skip-buffer scan which must be able to test-then-commit.
func (b *Behavior) fires(payload Message) (func(), bool) {
	for _, c := range b.clauses {
		if c.match(payload) {
			return func() { c.invoke(payload) }, true
		}
	}
	return nil, false
}
