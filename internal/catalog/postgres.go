package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/checkbot/core/logger"
)

const selectQuestions = `
SELECT id, category, task, COALESCE(code, '') AS code
FROM questions
ORDER BY category, position, id`

// LoadPostgres reads the full question set from the questions table once.
// The caller owns the connection and closes it after loading.
func LoadPostgres(ctx context.Context, db *sqlx.DB) (*Catalog, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var questions []Question
	if err := db.SelectContext(queryCtx, &questions, selectQuestions); err != nil {
		return nil, fmt.Errorf("catalog: query questions: %w", err)
	}

	c, err := New(questions)
	if err != nil {
		return nil, err
	}

	logger.CAT.Info("catalog loaded",
		slog.String("event", "catalog.load"),
		slog.String("source", "postgres"),
		slog.Int("questions", c.Len()),
		slog.Int("categories", len(c.categories)),
	)
	return c, nil
}
