// Package memory is an in-process storage of cached responses.
package memory

import (
	"net/http"
	"sync"
	"time"
)

// Response is a cached response.
type Response struct {
	Code   int
	Header http.Header
	Body   []byte
}

type item struct {
	r         *Response
	expiresAt time.Time
}

// Storage keeps responses until their ttl expires.
type Storage struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
}

// NewStorage creates new instance of Storage.
func NewStorage() *Storage {
	return &Storage{
		items: map[string]item{},
		now:   time.Now,
	}
}

// Get returns nil if there is no alive response by key.
func (s *Storage) Get(key string) *Response {
	s.mu.RLock()
	it, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return nil
	}

	if !s.now().Before(it.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.items[key]; ok && cur.expiresAt == it.expiresAt {
			delete(s.items, key)
		}
		s.mu.Unlock()

		return nil
	}

	return it.r
}

// Set puts response by key for duration.
func (s *Storage) Set(key string, r *Response, duration time.Duration) {
	s.mu.Lock()
	s.items[key] = item{
		r:         r,
		expiresAt: s.now().Add(duration),
	}
	s.mu.Unlock()
}
