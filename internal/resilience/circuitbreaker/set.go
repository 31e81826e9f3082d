package circuitbreaker

import (
	"sync"
)

// Set hands out one breaker per key, all built from the same settings.
// A key that keeps failing opens only its own circuit.
type Set struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewSet returns an empty set. Breakers are named "<cfg.Name>/<key>".
func NewSet(cfg Config) *Set {
	return &Set{
		cfg:      cfg,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for key, creating it on first use.
func (s *Set) Get(key string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[key]; ok {
		return cb
	}
	cfg := s.cfg
	cfg.Name = s.cfg.Name + "/" + key
	cb := New(cfg)
	s.breakers[key] = cb
	return cb
}

// Len returns the number of breakers created so far.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.breakers)
}
