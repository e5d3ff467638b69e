// Package survey implements the per-user checklist conversation engine.
package survey

import (
	"context"

	"github.com/m3rciful/checkbot/internal/catalog"
)

// Pending holds an answer that awaits its explanatory comment.
// At most one exists per session; it is consumed when a comment is accepted.
type Pending struct {
	Question catalog.Question
	Answer   Answer
}

// Session is one user's traversal through a category's questions.
// Index always satisfies 0 <= Index <= len(Items); a session that reaches
// Index == len(Items) is removed from the store, never retained.
type Session struct {
	UserID   int64
	Category string
	Items    []catalog.Question
	Index    int
	Pending  *Pending
}

// SessionStore keeps at most one session per user. Put is a total overwrite.
type SessionStore interface {
	Get(userID int64) (*Session, bool)
	Put(userID int64, s *Session)
	Remove(userID int64)
}

// Record is the wire form of a single submitted answer. It is ephemeral,
// built at submission time and never stored locally.
type Record struct {
	Timestamp string `json:"timestamp"`
	UserID    string `json:"userId"`
	Category  string `json:"category"`
	Task      string `json:"task"`
	Answer    string `json:"answer"`
	Code      string `json:"code"`
	Comment   string `json:"comment"`
}

// Submitter delivers a record to the external sink, best effort.
type Submitter interface {
	Submit(ctx context.Context, rec Record) error
}
