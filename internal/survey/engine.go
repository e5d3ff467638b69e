package survey

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/checkbot/core/logger"
	"github.com/m3rciful/checkbot/internal/catalog"
)

var (
	// ErrNoQuestions is returned when a chosen category has nothing to traverse.
	ErrNoQuestions = errors.New("survey: no questions in category")
	// ErrNoSession is returned for events that require an active session.
	ErrNoSession = errors.New("survey: no active session")
	// ErrUnknownQuestion is returned when an answer references an id the
	// catalog does not know.
	ErrUnknownQuestion = errors.New("survey: unknown question id")
	// ErrStaleAnswer is returned when an answer targets a question other than
	// the session's current one. Stale answers are rejected, never re-submitted.
	ErrStaleAnswer = errors.New("survey: stale answer")
	// ErrCommentPending is returned for an answer press while a comment is
	// still owed; the pending answer is kept and nothing is submitted.
	ErrCommentPending = errors.New("survey: comment pending")
	// ErrNoPending is returned for a comment with no answer awaiting one.
	ErrNoPending = errors.New("survey: no pending answer")
	// ErrEmptyComment is returned for a blank comment; the pending answer is kept.
	ErrEmptyComment = errors.New("survey: empty comment")
)

// Step describes what to show the user after a successful transition.
type Step struct {
	// AwaitComment is set when the user must supply a comment before the
	// traversal continues. Question then holds the question being commented.
	AwaitComment bool
	// Done is set when the traversal completed and the session was removed.
	Done bool
	// Question is the prompt to render next (or the commented question).
	Question catalog.Question
	// Position is 1-based within the traversal; Total is the item count.
	Position int
	Total    int
}

// Engine drives per-user survey conversations. All transitions for one user
// are serialized on a per-user lock; users never contend with each other.
type Engine struct {
	catalog   *catalog.Catalog
	sessions  SessionStore
	submitter Submitter

	mu    sync.Mutex
	locks map[int64]*userLock

	now func() time.Time
}

// New assembles an engine over a loaded catalog, a session store, and a
// submission sink.
func New(cat *catalog.Catalog, sessions SessionStore, submitter Submitter) *Engine {
	return &Engine{
		catalog:   cat,
		sessions:  sessions,
		submitter: submitter,
		locks:     make(map[int64]*userLock),
		now:       time.Now,
	}
}

// Categories returns the selectable category names, sorted and deduplicated.
// An existing session is left untouched.
func (e *Engine) Categories() []string {
	return e.catalog.Categories()
}

// ChooseCategory starts a traversal of the category's questions, overwriting
// any existing session for the user, and returns the first question.
func (e *Engine) ChooseCategory(ctx context.Context, userID int64, category string) (Step, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	items := e.catalog.QuestionsFor(category)
	if len(items) == 0 {
		return Step{}, ErrNoQuestions
	}

	s := &Session{
		UserID:   userID,
		Category: category,
		Items:    items,
		Index:    0,
	}
	e.sessions.Put(userID, s)

	logger.Info(ctx, "survey", "session.start",
		slog.Int64("user_id", userID),
		slog.String("category", category),
		slog.Int("total", len(items)),
	)

	return Step{Question: items[0], Position: 1, Total: len(items)}, nil
}

// Answer handles a response button press for the given question id.
// Affirmative answers are submitted immediately and the traversal advances;
// Negative and Partial answers park a pending comment instead.
func (e *Engine) Answer(ctx context.Context, userID int64, questionID int, kind Answer) (Step, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	s, ok := e.sessions.Get(userID)
	if !ok {
		return Step{}, ErrNoSession
	}

	// A parked answer owns the current question until its comment arrives;
	// accepting another press here would double-submit it.
	if s.Pending != nil {
		logger.Warn(ctx, "survey", "answer.comment_pending",
			slog.Int64("user_id", userID),
			slog.Int("question_id", questionID),
			slog.Int("pending", s.Pending.Question.ID),
		)
		return Step{}, ErrCommentPending
	}

	q, ok := e.catalog.FindByID(questionID)
	if !ok {
		return Step{}, ErrUnknownQuestion
	}
	if s.Index >= len(s.Items) || s.Items[s.Index].ID != q.ID {
		logger.Warn(ctx, "survey", "answer.stale",
			slog.Int64("user_id", userID),
			slog.Int("question_id", questionID),
			slog.Int("index", s.Index),
		)
		return Step{}, ErrStaleAnswer
	}

	if kind.NeedsComment() {
		s.Pending = &Pending{Question: q, Answer: kind}
		e.sessions.Put(userID, s)
		logger.Debug(ctx, "survey", "answer.pending",
			slog.Int64("user_id", userID),
			slog.Int("question_id", q.ID),
			slog.String("answer", kind.String()),
		)
		return Step{AwaitComment: true, Question: q, Position: s.Index + 1, Total: len(s.Items)}, nil
	}

	e.submit(ctx, s, q, kind, "")
	return e.advance(ctx, s), nil
}

// Comment completes a pending Negative or Partial answer. A blank comment is
// rejected and the pending answer is preserved.
func (e *Engine) Comment(ctx context.Context, userID int64, text string) (Step, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	s, ok := e.sessions.Get(userID)
	if !ok {
		return Step{}, ErrNoSession
	}
	if s.Pending == nil {
		return Step{}, ErrNoPending
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Step{}, ErrEmptyComment
	}

	p := s.Pending
	s.Pending = nil
	e.sessions.Put(userID, s)

	e.submit(ctx, s, p.Question, p.Answer, text)
	return e.advance(ctx, s), nil
}

// Cancel drops the user's session and any pending answer. It reports whether
// a session existed; cancelling twice is a no-op the second time.
func (e *Engine) Cancel(ctx context.Context, userID int64) bool {
	unlock := e.lockUser(userID)
	defer unlock()

	_, existed := e.sessions.Get(userID)
	e.sessions.Remove(userID)
	if existed {
		logger.Info(ctx, "survey", "session.cancel", slog.Int64("user_id", userID))
	}
	return existed
}

// InProgress reports whether the user has an active session. Used by the
// transport to decide whether free text belongs to this conversation.
func (e *Engine) InProgress(userID int64) bool {
	unlock := e.lockUser(userID)
	defer unlock()

	_, ok := e.sessions.Get(userID)
	return ok
}

// AwaitingComment reports whether the user's next expected input is a comment.
func (e *Engine) AwaitingComment(userID int64) bool {
	unlock := e.lockUser(userID)
	defer unlock()

	s, ok := e.sessions.Get(userID)
	return ok && s.Pending != nil
}

// advance moves the cursor forward and either returns the next question or
// removes the completed session. Caller holds the user lock.
func (e *Engine) advance(ctx context.Context, s *Session) Step {
	s.Index++
	if s.Index >= len(s.Items) {
		e.sessions.Remove(s.UserID)
		logger.Info(ctx, "survey", "session.complete",
			slog.Int64("user_id", s.UserID),
			slog.String("category", s.Category),
			slog.Int("total", len(s.Items)),
		)
		return Step{Done: true, Total: len(s.Items)}
	}

	e.sessions.Put(s.UserID, s)
	return Step{Question: s.Items[s.Index], Position: s.Index + 1, Total: len(s.Items)}
}

// submit delivers one record to the sink. Failures are logged and dropped;
// the traversal always continues.
func (e *Engine) submit(ctx context.Context, s *Session, q catalog.Question, kind Answer, comment string) {
	rec := Record{
		Timestamp: e.now().UTC().Format(time.RFC3339),
		UserID:    strconv.FormatInt(s.UserID, 10),
		Category:  q.Category,
		Task:      q.Task,
		Answer:    kind.String(),
		Code:      q.Code,
		Comment:   comment,
	}

	if err := e.submitter.Submit(ctx, rec); err != nil {
		logger.Error(ctx, "survey", "submit.fail",
			slog.Int64("user_id", s.UserID),
			slog.Int("question_id", q.ID),
			slog.String("answer", kind.String()),
			slog.String("err", err.Error()),
		)
		return
	}

	logger.Debug(ctx, "survey", "submit.ok",
		slog.Int64("user_id", s.UserID),
		slog.Int("question_id", q.ID),
		slog.String("answer", kind.String()),
	)
}

// userLock is reference counted so the lock map shrinks back as users finish;
// the entry is dropped when the last holder releases it.
type userLock struct {
	mu   sync.Mutex
	refs int
}

func (e *Engine) lockUser(userID int64) func() {
	e.mu.Lock()
	lk, ok := e.locks[userID]
	if !ok {
		lk = &userLock{}
		e.locks[userID] = lk
	}
	lk.refs++
	e.mu.Unlock()

	lk.mu.Lock()
	return func() {
		lk.mu.Unlock()

		e.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(e.locks, userID)
		}
		e.mu.Unlock()
	}
}
