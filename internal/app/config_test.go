package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `
telegram:
  token: "123:abc"
  run_mode: longpoll
sink:
  url: "https://sink.example.org/hook"
catalog:
  source: file
  path: q.json
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, "https://sink.example.org/hook", cfg.Sink.URL)
	assert.Equal(t, CatalogSourceFile, cfg.Catalog.Source)
	assert.Equal(t, "q.json", cfg.Catalog.Path)
	assert.Equal(t, 10*time.Second, cfg.Sink.Timeout())
	assert.Equal(t, time.Duration(0), cfg.Sessions.IdleTTL())
}

func TestLoadDefaultsCatalogToFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
sink:
  url: "https://sink.example.org/hook"
`))
	require.NoError(t, err)
	assert.Equal(t, CatalogSourceFile, cfg.Catalog.Source)
	assert.Equal(t, "questions.json", cfg.Catalog.Path)
}

func TestLoadRequiresSinkURL(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink.url")
}

func TestLoadRequiresToken(t *testing.T) {
	_, err := Load(writeConfig(t, `
sink:
  url: "https://sink.example.org/hook"
`))
	require.Error(t, err)
}

func TestLoadPostgresSourceNeedsDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
sink:
  url: "https://sink.example.org/hook"
catalog:
  source: postgres
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database")
}

func TestLoadRejectsUnknownCatalogSource(t *testing.T) {
	_, err := Load(writeConfig(t, `
telegram:
  token: "123:abc"
sink:
  url: "https://sink.example.org/hook"
catalog:
  source: redis
`))
	require.Error(t, err)
}

func TestSessionsIdleTTL(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig+`
sessions:
  idle_ttl_minutes: 30
`))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL())
}
