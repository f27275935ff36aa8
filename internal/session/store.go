package session

import (
	"sync"
	"time"
)

// Store is a per-visitor key-value blob store. Each visitor session holds
// its own namespace of string keys; values expire together with the
// session after the idle timeout.
type Store interface {
	GetString(sessionID, key string) (string, bool)
	SetString(sessionID, key, value string)
	Remove(sessionID, key string)
}

type sessionData struct {
	values     map[string]string
	lastAccess time.Time
}

// MemoryStore keeps sessions in process memory. Sessions idle longer than
// the configured timeout are dropped by a janitor goroutine. Two concurrent
// writers to the same session race with last-write-wins semantics.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]*sessionData
	idleTimeout time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

func NewMemoryStore(idleTimeout time.Duration) *MemoryStore {
	s := &MemoryStore{
		sessions:    make(map[string]*sessionData),
		idleTimeout: idleTimeout,
		done:        make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *MemoryStore) GetString(sessionID, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", false
	}
	if s.expired(sess) {
		delete(s.sessions, sessionID)
		return "", false
	}
	sess.lastAccess = time.Now()

	v, ok := sess.values[key]
	return v, ok
}

func (s *MemoryStore) SetString(sessionID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || s.expired(sess) {
		sess = &sessionData{values: make(map[string]string)}
		s.sessions[sessionID] = sess
	}
	sess.lastAccess = time.Now()
	sess.values[key] = value
}

func (s *MemoryStore) Remove(sessionID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	if s.expired(sess) {
		delete(s.sessions, sessionID)
		return
	}
	sess.lastAccess = time.Now()
	delete(sess.values, key)
}

func (s *MemoryStore) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

func (s *MemoryStore) expired(sess *sessionData) bool {
	return s.idleTimeout > 0 && time.Since(sess.lastAccess) > s.idleTimeout
}

func (s *MemoryStore) janitor() {
	interval := s.idleTimeout
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			for id, sess := range s.sessions {
				if s.expired(sess) {
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
