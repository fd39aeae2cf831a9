package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(openAIKeyEnv, "")

	cfg := Load("")

	assert.Equal(t, "gpt-4o", cfg.ChatGPT.Model)
	assert.Equal(t, "Asia/Tokyo", cfg.Scheduler.Location().String())
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 10*time.Second, cfg.Browser.SelectorTimeout)
	assert.True(t, cfg.Browser.IsHeadless())
	assert.False(t, cfg.Database.Enabled())
	require.Len(t, cfg.Sites, 3)
	assert.Equal(t, "journal", cfg.Sites[2].Scanner)
	assert.Len(t, cfg.Sites[2].Sources, 3)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
logging:
  level: warn
scheduler:
  timezone: Not/AZone
archive:
  dir: out/archive
chatgpt:
  model: gpt-4o-mini
  timeout: 15s
browser:
  headless: false
database:
  driver: sqlite3
  dsn: file:history.db
web:
  siteUrl: https://digest.example.com/
sites:
  - name: Example
    scanner: feed
    kind: paper
    url: https://example.org/rss
    maxItems: 2
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv(openAIKeyEnv, "sk-test")
	t.Setenv(openAIModelEnv, "")
	t.Setenv(logLevelEnv, "")

	cfg := Load(path)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "out/archive", cfg.Archive.Dir)
	assert.Equal(t, "public/index.html", cfg.Archive.LatestPath)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatGPT.Model)
	assert.Equal(t, 15*time.Second, cfg.ChatGPT.Timeout)
	assert.Equal(t, "sk-test", cfg.ChatGPT.APIKey)
	assert.False(t, cfg.Browser.IsHeadless())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "https://digest.example.com/", cfg.Web.SiteURL)
	assert.Equal(t, ":8080", cfg.Web.Addr)
	assert.Equal(t, time.UTC, cfg.Scheduler.Location())
	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "Example", cfg.Sites[0].Name)
}

func TestLoadUnreadableFileFallsBack(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load("")

	assert.Equal(t, defaultConfig().Archive, cfg.Archive)
	assert.Len(t, cfg.Sites, len(defaultSites()))
}
