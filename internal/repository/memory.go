package repository

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xiaot623/arrifai/internal/domain"
)

// ErrSessionNotFound is returned when appending to a session that does not
// exist (never created, deleted, or evicted).
var ErrSessionNotFound = errors.New("session not found")

// EvictFunc is called when a session leaves the store because of capacity or
// TTL. It is not called for explicit deletes.
type EvictFunc func(sessionID string, messages int)

type session struct {
	mu       sync.Mutex
	messages []domain.Message
	removed  bool
}

func (s *session) snapshot() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SessionStore maps session ids to transcripts. It lives in process memory
// only; a restart forgets every session.
type SessionStore struct {
	// mu guards creation, deletion and recency refresh. Transcript contents
	// are guarded by each session's own mutex.
	mu      sync.Mutex
	cache   *expirable.LRU[string, *session]
	onEvict EvictFunc
}

// SessionStoreOptions configures eviction. Zero values mean unbounded.
type SessionStoreOptions struct {
	Capacity int
	TTL      time.Duration
	OnEvict  EvictFunc
}

// NewSessionStore creates an empty store.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	s := &SessionStore{onEvict: opts.OnEvict}
	s.cache = expirable.NewLRU[string, *session](opts.Capacity, s.evicted, opts.TTL)
	return s
}

// evicted runs under the cache lock for every removal; explicit deletes mark
// the session first so they can be told apart.
func (s *SessionStore) evicted(id string, sess *session) {
	sess.mu.Lock()
	deleted := sess.removed
	sess.removed = true
	n := len(sess.messages)
	sess.mu.Unlock()

	if !deleted && s.onEvict != nil {
		s.onEvict(id, n)
	}
}

// GetOrCreate returns a copy of the session's transcript, creating the
// session seeded with the system instruction when it does not exist.
func (s *SessionStore) GetOrCreate(sessionID string) ([]domain.Message, bool) {
	s.mu.Lock()
	sess, ok := s.cache.Get(sessionID)
	if !ok {
		// Drops an expired entry that the janitor has not collected yet, so
		// it is reported as evicted rather than silently replaced.
		s.cache.Remove(sessionID)
		sess = &session{messages: []domain.Message{domain.SystemMessage()}}
		s.cache.Add(sessionID, sess)
	}
	s.mu.Unlock()

	return sess.snapshot(), !ok
}

// Get returns a copy of the session's transcript without creating it.
func (s *SessionStore) Get(sessionID string) ([]domain.Message, bool) {
	sess, ok := s.cache.Peek(sessionID)
	if !ok {
		return nil, false
	}
	return sess.snapshot(), true
}

// Append adds messages to the end of an existing transcript as one unit.
func (s *SessionStore) Append(sessionID string, messages ...domain.Message) error {
	sess, ok := s.cache.Get(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	if sess.removed {
		sess.mu.Unlock()
		return ErrSessionNotFound
	}
	sess.messages = append(sess.messages, messages...)
	sess.mu.Unlock()

	s.touch(sessionID, sess)
	return nil
}

// touch restarts the TTL of sess, unless the id now belongs to a newer session.
func (s *SessionStore) touch(sessionID string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.cache.Peek(sessionID); ok && cur == sess {
		s.cache.Add(sessionID, sess)
	}
}

// List returns the current session ids, oldest first.
func (s *SessionStore) List() []string {
	return s.cache.Keys()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return len(s.cache.Keys())
}

// Delete removes the session. It reports false when the session did not exist.
func (s *SessionStore) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Peek(sessionID)
	if !ok {
		return false
	}
	sess.mu.Lock()
	sess.removed = true
	sess.mu.Unlock()

	return s.cache.Remove(sessionID)
}
