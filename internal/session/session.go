// Package session provides the per-session key-value storage the rest of the
// application builds on: identity storage and CSRF tokens both live here.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the key-value contract consumers see. Implementations handle
// their own locking; callers get last-write-wins semantics on concurrent
// writes to the same key.
type Store interface {
	Get(key string, def any) any
	Set(key string, value any)
	Unset(key string)
}

// DefaultCookieName identifies the session cookie.
const DefaultCookieName = "composeweb_session"

type contextKey struct{}

// memorySession is one session's value map.
type memorySession struct {
	mu      sync.RWMutex
	values  map[string]any
	expires time.Time
}

func (s *memorySession) Get(key string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

func (s *memorySession) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *memorySession) Unset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// NewMemoryStore returns a standalone in-memory Store that is not tracked by
// any Manager. Used by tests and as a fallback when no session middleware ran.
func NewMemoryStore() Store {
	return &memorySession{values: map[string]any{}}
}

// Manager owns the in-memory session table and the cookie handshake.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string]*memorySession
	cookieName string
	ttl        time.Duration
}

// NewManager creates a Manager. An empty cookieName falls back to
// DefaultCookieName; a non-positive ttl defaults to 24 hours.
func NewManager(cookieName string, ttl time.Duration) *Manager {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		sessions:   map[string]*memorySession{},
		cookieName: cookieName,
		ttl:        ttl,
	}
}

// Start resolves the request's session, creating one (and setting the
// cookie) when none exists or the existing one expired.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request) Store {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(now)

	if cookie, err := r.Cookie(m.cookieName); err == nil {
		if s, ok := m.sessions[cookie.Value]; ok && s.expires.After(now) {
			s.expires = now.Add(m.ttl)
			return s
		}
	}

	id := uuid.NewString()
	s := &memorySession{values: map[string]any{}, expires: now.Add(m.ttl)}
	m.sessions[id] = s

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(m.ttl),
	})
	return s
}

func (m *Manager) pruneLocked(now time.Time) {
	for id, s := range m.sessions {
		if !s.expires.After(now) {
			delete(m.sessions, id)
		}
	}
}

// Middleware attaches the request's session store to the context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := m.Start(w, r)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), store)))
	})
}

// NewContext returns ctx carrying the store.
func NewContext(ctx context.Context, store Store) context.Context {
	return context.WithValue(ctx, contextKey{}, store)
}

// FromContext extracts the session store attached by Middleware.
func FromContext(ctx context.Context) (Store, bool) {
	store, ok := ctx.Value(contextKey{}).(Store)
	return store, ok
}
