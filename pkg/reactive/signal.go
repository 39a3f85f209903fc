package reactive

import (
	"reflect"
	"sync"
	"sync/atomic"
)

var listenerIDs atomic.Uint64

// Listener is a subscriber callback with a stable identity. Watching
// several signals with the same Listener makes a batch run it only once.
type Listener struct {
	id uint64
	fn func()
}

// NewListener wraps fn in a Listener.
func NewListener(fn func()) *Listener {
	return &Listener{id: listenerIDs.Add(1), fn: fn}
}

// signalBase provides type-erased subscriber management.
type signalBase struct {
	scope *Scope

	subs  []*Listener
	subMu sync.RWMutex
}

func (s *signalBase) subscribe(l *Listener) func() {
	s.subMu.Lock()
	s.subs = append(s.subs, l)
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(l.id) })
	}
}

func (s *signalBase) unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for i, existing := range s.subs {
		if existing.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// notify copies the subscriber list before calling out so no lock is held
// while subscribers run.
func (s *signalBase) notify() {
	s.subMu.RLock()
	subs := make([]*Listener, len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	if len(subs) == 0 {
		return
	}
	if s.scope != nil && s.scope.enqueue(subs) {
		return
	}
	for _, sub := range subs {
		sub.fn()
	}
}

// Signal is an observable value container.
type Signal[T any] struct {
	base signalBase

	value T
	mu    sync.RWMutex

	equal func(T, T) bool
}

// NewSignal creates a signal in the default scope. Its subscribers are
// notified immediately unless a package-level Batch is running.
func NewSignal[T any](initial T) *Signal[T] {
	return Scoped(defaultScope, initial)
}

// Scoped creates a signal whose notifications honour scope.Batch.
func Scoped[T any](scope *Scope, initial T) *Signal[T] {
	s := &Signal[T]{value: initial}
	s.base.scope = scope
	return s
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set stores value and notifies subscribers if it differs from the
// current one.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
}

// Update atomically reads and replaces the value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	old := s.value
	next := fn(old)
	changed := !s.equals(old, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.base.notify()
	}
}

// Subscribe registers fn to run after every change. The returned function
// removes the subscription and is safe to call more than once.
func (s *Signal[T]) Subscribe(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	return s.Watch(NewListener(fn))
}

// Watch registers an existing Listener.
func (s *Signal[T]) Watch(l *Listener) func() {
	if l == nil || l.fn == nil {
		return func() {}
	}
	return s.base.subscribe(l)
}

// WithEquals replaces the equality check used by Set and Update.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for common scalar types and reflect.DeepEqual for
// everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}
