package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleQuestions() []Question {
	return []Question{
		{ID: 10, Category: "Networking", Task: "Check firewall rules", Code: "iptables -L"},
		{ID: 20, Category: "Database", Task: "Verify backups"},
		{ID: 11, Category: "Networking", Task: "Check DNS resolution", Code: "dig +short example.org"},
		{ID: 21, Category: "Database", Task: "Check replication lag"},
	}
}

func TestNewBuildsSortedCategories(t *testing.T) {
	c, err := New(sampleQuestions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Database", "Networking"}, c.Categories())
	assert.Equal(t, 4, c.Len())
}

func TestNewRejectsEmptySet(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	qs := sampleQuestions()
	qs = append(qs, Question{ID: 10, Category: "Networking", Task: "Duplicate"})

	_, err := New(qs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRejectsBlankFields(t *testing.T) {
	cases := []struct {
		name string
		q    Question
	}{
		{"empty category", Question{ID: 1, Category: "", Task: "t"}},
		{"empty task", Question{ID: 1, Category: "A", Task: " "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New([]Question{tc.q})
			require.Error(t, err)
		})
	}
}

func TestQuestionsForPreservesLoadOrder(t *testing.T) {
	c, err := New(sampleQuestions())
	require.NoError(t, err)

	qs := c.QuestionsFor("Networking")
	require.Len(t, qs, 2)
	assert.Equal(t, 10, qs[0].ID)
	assert.Equal(t, 11, qs[1].ID)

	// Returned slice is a copy.
	qs[0].ID = 99
	again := c.QuestionsFor("Networking")
	assert.Equal(t, 10, again[0].ID)
}

func TestQuestionsForUnknownCategory(t *testing.T) {
	c, err := New(sampleQuestions())
	require.NoError(t, err)

	assert.Nil(t, c.QuestionsFor("Nope"))
}

func TestFindByID(t *testing.T) {
	c, err := New(sampleQuestions())
	require.NoError(t, err)

	q, ok := c.FindByID(21)
	require.True(t, ok)
	assert.Equal(t, "Check replication lag", q.Task)

	_, ok = c.FindByID(404)
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.json")
	data := `[
		{"id": 1, "category": "Alpha", "task": "First task", "code": "echo hi"},
		{"id": 2, "category": "Alpha", "task": "Second task"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"Alpha"}, c.Categories())
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadFile(bad)
	require.Error(t, err)
}
