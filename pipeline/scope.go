package pipeline

import (
	"errors"
	"sync"
)

// Scope owns the per-operation resources acquired by handlers (response
// bodies, leased connections). Release runs the registered cleanups in
// reverse order exactly once, however many times it is called.
type Scope struct {
	mu       sync.Mutex
	cleanups []func() error
	released bool
	once     sync.Once
	err      error
}

// NewScope returns an empty scope.
func NewScope() *Scope { return &Scope{} }

// Defer registers fn to run on Release. If the scope is already released fn
// runs immediately and its error is returned.
func (s *Scope) Defer(fn func() error) error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return fn()
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
	return nil
}

// Release runs every registered cleanup, last registered first, and returns
// the joined errors. Subsequent calls return the same result.
func (s *Scope) Release() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.released = true
		cleanups := s.cleanups
		s.cleanups = nil
		s.mu.Unlock()

		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}

// Released reports whether Release has run.
func (s *Scope) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
