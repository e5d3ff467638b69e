package survey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/checkbot/internal/catalog"
)

type fakeStore struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[int64]*Session)}
}

func (s *fakeStore) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

func (s *fakeStore) Put(userID int64, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = sess
}

func (s *fakeStore) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

type fakeSubmitter struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func (f *fakeSubmitter) all() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.Question{
		{ID: 1, Category: "HTML", Task: "Check doctype"},
		{ID: 2, Category: "HTML", Task: "Check tags", Code: "<p>...</p>"},
		{ID: 3, Category: "CSS", Task: "Check selectors"},
	})
	require.NoError(t, err)
	return c
}

func newTestEngine(t *testing.T) (*Engine, *fakeStore, *fakeSubmitter) {
	t.Helper()
	store := newFakeStore()
	sub := &fakeSubmitter{}
	e := New(testCatalog(t), store, sub)
	e.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	return e, store, sub
}

func TestCategoriesSortedDeduplicated(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.Equal(t, []string{"CSS", "HTML"}, e.Categories())
}

func TestChooseCategoryCreatesSession(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	step, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	assert.Equal(t, 1, step.Question.ID)
	assert.Equal(t, 1, step.Position)
	assert.Equal(t, 2, step.Total)

	s, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, 0, s.Index)
	assert.Len(t, s.Items, 2)
	assert.Nil(t, s.Pending)
}

func TestChooseCategoryUnknownCreatesNoSession(t *testing.T) {
	e, store, _ := newTestEngine(t)

	_, err := e.ChooseCategory(context.Background(), 7, "Nope")
	require.ErrorIs(t, err, ErrNoQuestions)

	_, ok := store.Get(7)
	assert.False(t, ok)
}

func TestChooseCategoryOverwritesExistingSession(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	_, err = e.Answer(ctx, 7, 1, AnswerNegative)
	require.NoError(t, err)

	step, err := e.ChooseCategory(ctx, 7, "CSS")
	require.NoError(t, err)
	assert.Equal(t, 3, step.Question.ID)

	s, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, "CSS", s.Category)
	assert.Nil(t, s.Pending, "pending answer must not survive a category switch")
}

func TestAffirmativeSubmitsAndAdvances(t *testing.T) {
	e, _, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)

	step, err := e.Answer(ctx, 7, 1, AnswerAffirmative)
	require.NoError(t, err)
	assert.Equal(t, 2, step.Question.ID)
	assert.Equal(t, 2, step.Position)

	recs := sub.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "Affirmative", recs[0].Answer)
	assert.Equal(t, "", recs[0].Comment)
	assert.Equal(t, "Check doctype", recs[0].Task)
	assert.Equal(t, "7", recs[0].UserID)
	assert.Equal(t, "2024-05-01T12:00:00Z", recs[0].Timestamp)
}

func TestNegativeRequiresComment(t *testing.T) {
	e, store, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)

	step, err := e.Answer(ctx, 7, 1, AnswerNegative)
	require.NoError(t, err)
	assert.True(t, step.AwaitComment)
	assert.Equal(t, 1, step.Question.ID)

	recs := sub.all()
	assert.Empty(t, recs, "nothing may be submitted before the comment")

	s, _ := store.Get(7)
	require.NotNil(t, s.Pending)
	assert.Equal(t, 0, s.Index, "cursor must not advance before the comment")
}

func TestEmptyCommentRejectedPendingKept(t *testing.T) {
	e, store, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	_, err = e.Answer(ctx, 7, 1, AnswerPartial)
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err = e.Comment(ctx, 7, text)
		require.ErrorIs(t, err, ErrEmptyComment)
	}

	s, _ := store.Get(7)
	require.NotNil(t, s.Pending, "pending answer survives rejected comments")
	assert.Empty(t, sub.all())
}

func TestCommentSubmitsAndAdvances(t *testing.T) {
	e, store, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	_, err = e.Answer(ctx, 7, 1, AnswerNegative)
	require.NoError(t, err)

	step, err := e.Comment(ctx, 7, "missing tag")
	require.NoError(t, err)
	assert.Equal(t, 2, step.Question.ID)

	recs := sub.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "Negative", recs[0].Answer)
	assert.Equal(t, "missing tag", recs[0].Comment)

	s, _ := store.Get(7)
	assert.Nil(t, s.Pending)
}

func TestReAnswerWhileCommentPendingRejected(t *testing.T) {
	e, store, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	_, err = e.Answer(ctx, 7, 1, AnswerNegative)
	require.NoError(t, err)

	// Pressing a button on the same prompt again must not submit or advance.
	_, err = e.Answer(ctx, 7, 1, AnswerAffirmative)
	require.ErrorIs(t, err, ErrCommentPending)

	s, _ := store.Get(7)
	require.NotNil(t, s.Pending)
	assert.Equal(t, AnswerNegative, s.Pending.Answer)
	assert.Equal(t, 0, s.Index)
	assert.Empty(t, sub.all())

	// The comment still completes the parked Negative answer and the
	// traversal continues with question 2, nothing skipped.
	step, err := e.Comment(ctx, 7, "late comment")
	require.NoError(t, err)
	assert.Equal(t, 2, step.Question.ID)

	recs := sub.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "Negative", recs[0].Answer)
	assert.Equal(t, "late comment", recs[0].Comment)

	s, _ = store.Get(7)
	assert.Nil(t, s.Pending)
}

func TestCommentTrimmedBeforeSubmit(t *testing.T) {
	e, _, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	_, err = e.Answer(ctx, 7, 1, AnswerPartial)
	require.NoError(t, err)

	_, err = e.Comment(ctx, 7, "  needs a doctype \n")
	require.NoError(t, err)

	recs := sub.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "needs a doctype", recs[0].Comment)
}

func TestUserLocksReleasedAfterTraversal(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "CSS")
	require.NoError(t, err)
	_, err = e.Answer(ctx, 7, 3, AnswerAffirmative)
	require.NoError(t, err)

	_, err = e.ChooseCategory(ctx, 8, "HTML")
	require.NoError(t, err)
	e.Cancel(ctx, 8)

	e.mu.Lock()
	held := len(e.locks)
	e.mu.Unlock()
	assert.Equal(t, 0, held, "user locks must not outlive their transitions")
}

func TestCommentWithoutPending(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Comment(ctx, 7, "stray text")
	require.ErrorIs(t, err, ErrNoSession)

	_, err = e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	_, err = e.Comment(ctx, 7, "stray text")
	require.ErrorIs(t, err, ErrNoPending)
}

func TestUnknownQuestionLeavesStateUnchanged(t *testing.T) {
	e, store, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)

	_, err = e.Answer(ctx, 7, 99, AnswerAffirmative)
	require.ErrorIs(t, err, ErrUnknownQuestion)

	s, _ := store.Get(7)
	assert.Equal(t, 0, s.Index)
	assert.Empty(t, sub.all())
}

func TestStaleAnswerRejected(t *testing.T) {
	e, store, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	_, err = e.Answer(ctx, 7, 1, AnswerAffirmative)
	require.NoError(t, err)

	// Answering question 1 again from the old prompt.
	_, err = e.Answer(ctx, 7, 1, AnswerAffirmative)
	require.ErrorIs(t, err, ErrStaleAnswer)

	s, _ := store.Get(7)
	assert.Equal(t, 1, s.Index)
	assert.Len(t, sub.all(), 1, "stale answers must not double-submit")
}

func TestAnswerWithoutSession(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.Answer(context.Background(), 7, 1, AnswerAffirmative)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestCompletionRemovesSession(t *testing.T) {
	e, store, sub := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "CSS")
	require.NoError(t, err)

	step, err := e.Answer(ctx, 7, 3, AnswerAffirmative)
	require.NoError(t, err)
	assert.True(t, step.Done)
	assert.Equal(t, 1, step.Total)

	_, ok := store.Get(7)
	assert.False(t, ok, "completed session must be removed, not retained")
	assert.Len(t, sub.all(), 1)
}

func TestCancelIdempotent(t *testing.T) {
	e, store, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	_, err = e.Answer(ctx, 7, 1, AnswerNegative)
	require.NoError(t, err)

	assert.True(t, e.Cancel(ctx, 7))
	_, ok := store.Get(7)
	assert.False(t, ok)

	assert.False(t, e.Cancel(ctx, 7), "second cancel is a no-op")
}

func TestSubmitFailureNeverBlocksAdvance(t *testing.T) {
	e, store, sub := newTestEngine(t)
	sub.err = errors.New("sink down")
	ctx := context.Background()

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)

	step, err := e.Answer(ctx, 7, 1, AnswerAffirmative)
	require.NoError(t, err, "submission failure must never surface")
	assert.Equal(t, 2, step.Question.ID)

	s, _ := store.Get(7)
	assert.Equal(t, 1, s.Index)
}

func TestInProgressAndAwaitingComment(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	assert.False(t, e.InProgress(7))
	assert.False(t, e.AwaitingComment(7))

	_, err := e.ChooseCategory(ctx, 7, "HTML")
	require.NoError(t, err)
	assert.True(t, e.InProgress(7))
	assert.False(t, e.AwaitingComment(7))

	_, err = e.Answer(ctx, 7, 1, AnswerPartial)
	require.NoError(t, err)
	assert.True(t, e.AwaitingComment(7))
}

// Mirrors the full two-question traversal: affirmative first, negative with a
// rejected blank comment second.
func TestFullTraversal(t *testing.T) {
	e, store, sub := newTestEngine(t)
	ctx := context.Background()

	step, err := e.ChooseCategory(ctx, 42, "HTML")
	require.NoError(t, err)
	assert.Equal(t, "Check doctype", step.Question.Task)

	step, err = e.Answer(ctx, 42, 1, AnswerAffirmative)
	require.NoError(t, err)
	assert.Equal(t, "Check tags", step.Question.Task)
	require.Len(t, sub.all(), 1)

	step, err = e.Answer(ctx, 42, 2, AnswerNegative)
	require.NoError(t, err)
	assert.True(t, step.AwaitComment)
	require.Len(t, sub.all(), 1, "negative answer submits nothing before the comment")

	_, err = e.Comment(ctx, 42, "")
	require.ErrorIs(t, err, ErrEmptyComment)

	step, err = e.Comment(ctx, 42, "missing <p> close")
	require.NoError(t, err)
	assert.True(t, step.Done)

	recs := sub.all()
	require.Len(t, recs, 2)
	assert.Equal(t, "Affirmative", recs[0].Answer)
	assert.Equal(t, "", recs[0].Comment)
	assert.Equal(t, "Negative", recs[1].Answer)
	assert.Equal(t, "missing <p> close", recs[1].Comment)

	_, ok := store.Get(42)
	assert.False(t, ok)
}

func TestAnswerTokens(t *testing.T) {
	for _, tc := range []struct {
		token string
		want  Answer
	}{
		{"yes", AnswerAffirmative},
		{"no", AnswerNegative},
		{"part", AnswerPartial},
	} {
		got, ok := ParseAnswer(tc.token)
		require.True(t, ok, tc.token)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, tc.token, got.Token())
	}

	_, ok := ParseAnswer("maybe")
	assert.False(t, ok)

	assert.False(t, AnswerAffirmative.NeedsComment())
	assert.True(t, AnswerNegative.NeedsComment())
	assert.True(t, AnswerPartial.NeedsComment())
}
