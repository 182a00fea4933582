// Package middleware contains http middlewares of service.
package middleware

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/yatube-net/yatube/internal/middleware/memory"
)

// Storage ...
type Storage interface {
	Get(key string) *memory.Response
	Set(key string, r *memory.Response, duration time.Duration)
}

// Cached caches successful GET responses of handler by request uri for ttl.
// Responses are not invalidated on writes, so they may be stale up to ttl.
func Cached(ttl time.Duration, handler http.HandlerFunc) http.HandlerFunc {
	return CachedWith(memory.NewStorage(), ttl, handler)
}

// CachedWith is Cached over storage.
func CachedWith(storage Storage, ttl time.Duration, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			handler(w, r)
			return
		}

		if cached := storage.Get(r.RequestURI); cached != nil {
			write(w, cached)
			return
		}

		c := httptest.NewRecorder()
		handler(c, r)

		resp := &memory.Response{
			Code:   c.Code,
			Header: c.Header().Clone(),
			Body:   c.Body.Bytes(),
		}

		if resp.Code == http.StatusOK {
			storage.Set(r.RequestURI, resp, ttl)
		}

		write(w, resp)
	}
}

func write(w http.ResponseWriter, r *memory.Response) {
	for k, v := range r.Header {
		w.Header()[k] = v
	}

	w.WriteHeader(r.Code)

	_, _ = w.Write(r.Body)
}
