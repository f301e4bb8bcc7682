package interview

import (
	"context"
	"sync"
	"time"
)

// Signal is a binary event for cross-goroutine turn synchronization.
// One side sets it, the other clears it and waits with a timeout.
type Signal struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{}
}

// NewSignal creates a cleared signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Set fires the signal, waking all current and future waiters until
// Clear is called. Setting an already-set signal is a no-op.
func (s *Signal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		s.set = true
		close(s.ch)
	}
}

// Clear resets the signal so the next Wait blocks again.
func (s *Signal) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
}

// IsSet reports the current state without consuming it.
func (s *Signal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Wait blocks until the signal fires, the timeout elapses, or the
// context is cancelled. Returns true only if the signal fired.
func (s *Signal) Wait(ctx context.Context, timeout time.Duration) bool {
	s.mu.Lock()
	if s.set {
		s.mu.Unlock()
		return true
	}
	ch := s.ch
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
