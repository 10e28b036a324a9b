package billing

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type session struct {
	mu      sync.Mutex
	builder *Builder
	gone    bool // set under mu once the session leaves the store
	touched atomic.Int64
}

// SessionStore keeps one Builder per interactive session in memory.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	now      func() time.Time
}

func NewSessionStore(now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{sessions: make(map[uuid.UUID]*session), now: now}
}

// Create registers b under a fresh id.
func (s *SessionStore) Create(b *Builder) uuid.UUID {
	id := uuid.New()
	sess := &session{builder: b}
	sess.touched.Store(s.now().UnixNano())
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return id
}

// With runs fn with exclusive access to the session's builder.
func (s *SessionStore) With(id uuid.UUID, fn func(b *Builder) error) error {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	return s.run(sess, fn)
}

// run fails with ErrSessionNotFound when sess was deleted or swept after it
// was looked up, so no edit lands on a builder nobody can reach.
func (s *SessionStore) run(sess *session, fn func(b *Builder) error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.gone {
		return ErrSessionNotFound
	}
	sess.touched.Store(s.now().UnixNano())
	return fn(sess.builder)
}

func (s *SessionStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	sess.gone = true
	sess.mu.Unlock()
	return nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions untouched for longer than idle and reports how many
// were removed. A session busy in With is in use and is left for the next
// sweep, so Sweep never waits on a session lock.
func (s *SessionStore) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle).UnixNano()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.touched.Load() >= cutoff || !sess.mu.TryLock() {
			continue
		}
		// touched may have moved between the load and the lock.
		if sess.touched.Load() >= cutoff {
			sess.mu.Unlock()
			continue
		}
		sess.gone = true
		sess.mu.Unlock()
		delete(s.sessions, id)
		removed++
	}
	return removed
}
