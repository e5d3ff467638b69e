package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/m3rciful/checkbot/core/logger"
)

// LoadFile reads and validates a JSON question file.
// The file is a flat array of question objects.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var questions []Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	c, err := New(questions)
	if err != nil {
		return nil, err
	}

	logger.CAT.Info("catalog loaded",
		slog.String("event", "catalog.load"),
		slog.String("source", "file"),
		slog.String("path", path),
		slog.Int("questions", c.Len()),
		slog.Int("categories", len(c.categories)),
	)
	return c, nil
}
