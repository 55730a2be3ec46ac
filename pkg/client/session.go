package client

import "sync"

// MemorySession is the default in-process token store.
type MemorySession struct {
	mu    sync.RWMutex
	token string
}

func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (s *MemorySession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemorySession) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemorySession) Clear() {
	s.SetToken("")
}
