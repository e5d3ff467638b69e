package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/checkbot/internal/survey"
)

func sampleRecord() survey.Record {
	return survey.Record{
		Timestamp: "2024-05-01T12:00:00Z",
		UserID:    "7",
		Category:  "HTML",
		Task:      "Check doctype",
		Answer:    "Negative",
		Code:      "",
		Comment:   "missing doctype",
	}
}

func TestSubmitPostsWireSchema(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	require.NoError(t, c.Submit(context.Background(), sampleRecord()))

	assert.Equal(t, map[string]any{
		"timestamp": "2024-05-01T12:00:00Z",
		"userId":    "7",
		"category":  "HTML",
		"task":      "Check doctype",
		"answer":    "Negative",
		"code":      "",
		"comment":   "missing doctype",
	}, got)
	assert.Equal(t, uint64(0), c.ErrorCount())
}

func TestSubmitNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	err := c.Submit(context.Background(), sampleRecord())
	require.ErrorIs(t, err, ErrSinkStatus)
	assert.Equal(t, uint64(1), c.ErrorCount())
}

func TestSubmitConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Submit(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Equal(t, uint64(1), c.ErrorCount())
}

func TestSubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	c := New(srv.URL, 50*time.Millisecond)
	err := c.Submit(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Equal(t, uint64(1), c.ErrorCount())
}

func TestSubmitSendsAtMostOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	_ = c.Submit(context.Background(), sampleRecord())
	assert.Equal(t, 1, calls, "a failed record is never retried")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "timeout", classify(context.DeadlineExceeded))
	assert.Equal(t, "http_status", classify(ErrSinkStatus))
	assert.Equal(t, "unknown", classify(assert.AnError))
}
