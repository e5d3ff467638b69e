// Package catalog holds the immutable survey question set loaded at startup.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Question is a single checklist item. Code is optional free-form reference
// text rendered verbatim alongside the task.
type Question struct {
	ID       int    `json:"id" db:"id"`
	Category string `json:"category" db:"category"`
	Task     string `json:"task" db:"task"`
	Code     string `json:"code" db:"code"`
}

// Catalog is a validated, read-only collection of questions. It is safe for
// concurrent use after construction.
type Catalog struct {
	questions  []Question
	byID       map[int]Question
	byCategory map[string][]Question
	categories []string
}

// New validates the question set and builds the lookup indexes.
// It fails on an empty set, duplicate ids, or blank category/task fields.
func New(questions []Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("catalog: no questions provided")
	}

	c := &Catalog{
		questions:  make([]Question, 0, len(questions)),
		byID:       make(map[int]Question, len(questions)),
		byCategory: make(map[string][]Question),
	}

	for _, q := range questions {
		if strings.TrimSpace(q.Category) == "" {
			return nil, fmt.Errorf("catalog: question %d has empty category", q.ID)
		}
		if strings.TrimSpace(q.Task) == "" {
			return nil, fmt.Errorf("catalog: question %d has empty task", q.ID)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate question id %d", q.ID)
		}

		c.questions = append(c.questions, q)
		c.byID[q.ID] = q
		c.byCategory[q.Category] = append(c.byCategory[q.Category], q)
	}

	c.categories = make([]string, 0, len(c.byCategory))
	for cat := range c.byCategory {
		c.categories = append(c.categories, cat)
	}
	sort.Strings(c.categories)

	return c, nil
}

// Categories returns the distinct category names in lexicographic order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// QuestionsFor returns the category's questions in load order.
// The returned slice is a copy; an unknown category yields nil.
func (c *Catalog) QuestionsFor(category string) []Question {
	qs, ok := c.byCategory[category]
	if !ok {
		return nil
	}
	out := make([]Question, len(qs))
	copy(out, qs)
	return out
}

// FindByID looks up a question by its id.
func (c *Catalog) FindByID(id int) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Len returns the total number of questions across all categories.
func (c *Catalog) Len() int {
	return len(c.questions)
}
