package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/checkbot/internal/survey"
)

func TestPutGetRemove(t *testing.T) {
	s := New(0)
	defer s.Close()

	_, ok := s.Get(1)
	assert.False(t, ok)

	sess := &survey.Session{UserID: 1, Category: "HTML"}
	s.Put(1, sess)

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Same(t, sess, got)
	assert.Equal(t, 1, s.Len())

	s.Remove(1)
	_, ok = s.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	// Removing again is a no-op.
	s.Remove(1)
}

func TestPutOverwrites(t *testing.T) {
	s := New(0)
	defer s.Close()

	s.Put(1, &survey.Session{UserID: 1, Category: "HTML"})
	s.Put(1, &survey.Session{UserID: 1, Category: "CSS"})

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "CSS", got.Category)
	assert.Equal(t, 1, s.Len())
}

func TestEvictIdle(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s := &Store{
		sessions: make(map[int64]*survey.Session),
		lastSeen: make(map[int64]time.Time),
		idleTTL:  10 * time.Minute,
		now:      func() time.Time { return clock },
		stop:     make(chan struct{}),
	}

	s.Put(1, &survey.Session{UserID: 1})
	clock = base.Add(8 * time.Minute)
	s.Put(2, &survey.Session{UserID: 2})

	// User 1 is idle for 11 minutes, user 2 for 3.
	evicted := s.evictIdle(base.Add(11 * time.Minute))
	assert.Equal(t, 1, evicted)

	_, ok := s.Get(1)
	assert.False(t, ok)
	_, ok = s.Get(2)
	assert.True(t, ok)
}

func TestEvictDisabledWithZeroTTL(t *testing.T) {
	s := New(0)
	defer s.Close()

	s.Put(1, &survey.Session{UserID: 1})
	assert.Equal(t, 0, s.evictIdle(time.Now().Add(24*time.Hour)))
	assert.Equal(t, 1, s.Len())
}

func TestGetRefreshesActivity(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	s := &Store{
		sessions: make(map[int64]*survey.Session),
		lastSeen: make(map[int64]time.Time),
		idleTTL:  10 * time.Minute,
		now:      func() time.Time { return clock },
		stop:     make(chan struct{}),
	}

	s.Put(1, &survey.Session{UserID: 1})

	clock = base.Add(9 * time.Minute)
	_, ok := s.Get(1)
	require.True(t, ok)

	// With activity at t+9m, the session is not idle at t+15m.
	assert.Equal(t, 0, s.evictIdle(base.Add(15*time.Minute)))
	assert.Equal(t, 1, s.evictIdle(base.Add(20*time.Minute)))
}
