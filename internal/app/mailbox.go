package app

import "sync"

// mailbox holds the latest value put into it. A Put overwrites any value
// not yet taken.
type mailbox[T any] struct {
	mu   sync.Mutex
	v    T
	full bool
}

func (m *mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.v, m.full = v, true
	m.mu.Unlock()
}

func (m *mailbox[T]) Take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.v, m.full
	var zero T
	m.v, m.full = zero, false
	return v, ok
}
