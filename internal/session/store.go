// Package session provides the in-memory per-user session store.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/checkbot/core/logger"
	"github.com/m3rciful/checkbot/internal/survey"
)

// Store keeps at most one survey session per user behind a mutex.
// With a non-zero idle TTL a janitor goroutine evicts abandoned sessions;
// with TTL zero sessions live until completion or cancellation.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*survey.Session
	lastSeen map[int64]time.Time

	idleTTL time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a store. idleTTL <= 0 disables eviction.
func New(idleTTL time.Duration) *Store {
	s := &Store{
		sessions: make(map[int64]*survey.Session),
		lastSeen: make(map[int64]time.Time),
		idleTTL:  idleTTL,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if idleTTL > 0 {
		go s.janitor()
	}
	return s
}

// Get returns the user's session if present and stamps activity.
func (s *Store) Get(userID int64) (*survey.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if ok {
		s.lastSeen[userID] = s.now()
	}
	return sess, ok
}

// Put overwrites the user's session slot.
func (s *Store) Put(userID int64, sess *survey.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
	s.lastSeen[userID] = s.now()
}

// Remove drops the user's session; removing an absent session is a no-op.
func (s *Store) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	delete(s.lastSeen, userID)
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the janitor goroutine.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Store) janitor() {
	interval := s.idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.evictIdle(s.now()); n > 0 {
				logger.Component("sessions").Info("idle sessions evicted",
					slog.String("event", "session.evict"),
					slog.Int("sessions", n),
				)
			}
		}
	}
}

// evictIdle removes sessions idle longer than the TTL and returns the count.
func (s *Store) evictIdle(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, seen := range s.lastSeen {
		if now.Sub(seen) > s.idleTTL {
			delete(s.sessions, userID)
			delete(s.lastSeen, userID)
			evicted++
		}
	}
	return evicted
}
