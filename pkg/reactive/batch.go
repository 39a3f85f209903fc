package reactive

import "sync"

// Scope groups signals so their notifications can be batched.
type Scope struct {
	mu      sync.Mutex
	depth   int
	pending []*Listener
}

// defaultScope holds the signals created with NewSignal.
var defaultScope = NewScope()

// Batch runs fn as a batch of the default scope. Signals created with
// NewSignal notify their subscribers once, after the outermost Batch.
func Batch(fn func()) {
	defaultScope.Batch(fn)
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Batch runs fn and delays subscriber notifications for signals in this
// scope until the outermost Batch returns. Each subscriber runs once, in
// first-notified order. Batches can be nested.
func (s *Scope) Batch(fn func()) {
	s.mu.Lock()
	s.depth++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.depth--
		var run []*Listener
		if s.depth == 0 {
			run = s.pending
			s.pending = nil
		}
		s.mu.Unlock()

		seen := make(map[uint64]bool, len(run))
		for _, l := range run {
			if seen[l.id] {
				continue
			}
			seen[l.id] = true
			l.fn()
		}
	}()

	fn()
}

// enqueue queues subs when a batch is open and reports whether it did.
func (s *Scope) enqueue(subs []*Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.depth == 0 {
		return false
	}
	s.pending = append(s.pending, subs...)
	return true
}
