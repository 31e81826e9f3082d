package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliteRepo "isdnews/internal/infra/adapter/persistence/sqlite"
	"isdnews/internal/infra/db"
)

// setupEnv points the CLI at a fresh SQLite file and the plain HTTP renderer.
func setupEnv(t *testing.T) string {
	t.Helper()
	dsn := "sqlite:" + filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("DATABASE_URL", dsn)
	t.Setenv("RENDERER", "http")
	t.Setenv("SLACK_ENABLED", "")
	return dsn
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := execute(context.Background(), args, &out, &errOut)
	return out.String() + errOut.String(), err
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date (sqlite)")

	// 2回目も成功する
	_, err = run(t, "migrate")
	require.NoError(t, err)
}

func TestMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	out, err := run(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, out, "DATABASE_URL not set")
}

func TestConfigSet(t *testing.T) {
	dsn := setupEnv(t)

	out, err := run(t, "config", "set", "openrouter_api_key", "sk-or-v1-abcdef123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Set openrouter_api_key (global) = sk-or-****")
	assert.NotContains(t, out, "abcdef123456")

	_, err = run(t, "config", "set", "teams_webhook", "https://example.webhook.office.com/webhookb2/abc", "--team", "dev")
	require.NoError(t, err)

	database, _, err := db.OpenDSN(context.Background(), dsn, db.DefaultConnectionConfig())
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	repo := sqliteRepo.NewConfigRepo(database)
	v, found, err := repo.Lookup(context.Background(), "teams_webhook", "dev")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://example.webhook.office.com/webhookb2/abc", v)

	_, found, err = repo.Lookup(context.Background(), "teams_webhook", "ba")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConfigSet_Rejected(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"key without prefix", []string{"config", "set", "openrouter_api_key", "sk-abc"}},
		{"http webhook", []string{"config", "set", "teams_webhook", "http://example.com/hook", "--team", "dev"}},
		{"unknown team", []string{"config", "set", "teams_webhook", "https://example.com/hook", "--team", "sales"}},
		{"missing value", []string{"config", "set", "teams_webhook"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestConfigSet_EnrichmentSwitch(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "config", "set", "openrouter_job_enabled", "false")
	require.NoError(t, err)
	assert.Contains(t, out, "Set openrouter_job_enabled (global) = false")

	out, err = run(t, "enrich", "--cycles", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Enriched articles: 0")

	_, err = run(t, "config", "set", "openrouter_job_enabled", "perhaps")
	assert.Error(t, err)
}

func TestImportSources(t *testing.T) {
	setupEnv(t)

	file := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
- name: Go Blog
  url: https://go.dev/blog/feed.atom
  kind: feed
  team: dev
- name: Vendor News
  url: https://vendor.example.com/news
  kind: rendered
  team: ba
  params:
    prompt: "{ articles[] { title url } }"
`), 0o644))

	out, err := run(t, "import-sources", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 sources, skipped 0 existing")

	out, err = run(t, "import-sources", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 sources, skipped 2 existing")

	out, err = run(t, "import-sources", file, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 new sources and updated 2 existing sources")
}

func TestImportSources_UnknownTeamFails(t *testing.T) {
	setupEnv(t)

	file := filepath.Join(t.TempDir(), "sources.json")
	require.NoError(t, os.WriteFile(file, []byte(
		`[{"source": "X", "url": "https://x.example.com", "type": "api", "team": "sales"}]`), 0o644))

	_, err := run(t, "import-sources", file)
	assert.Error(t, err, "teams are a foreign key")
}

func TestImportSources_MissingFile(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "import-sources", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCollect_NothingRegistered(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "collect", "--team", "dev")
	require.NoError(t, err)
	assert.Contains(t, out, "Sources: 0")

	out, err = run(t, "collect", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "New articles: 0")
}

func TestCollect_UnknownSourceID(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "collect", "--source-id", "42")
	require.Error(t, err)
	assert.Contains(t, out, "source not found")
}

func TestCollect_SourceIDExclusiveWithTeam(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "collect", "--source-id", "1", "--team", "dev")
	assert.Error(t, err)
}

func TestEnrich_Idle(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "enrich", "--team", "dev")
	require.NoError(t, err)
	assert.Contains(t, out, "Cycle: idle")

	out, err = run(t, "enrich", "--cycles", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Enriched articles: 0")
}

func TestEnrich_UnknownTeam(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "enrich", "--team", "sales")
	assert.Error(t, err)
}

func TestEnrich_InvalidCycles(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "enrich", "--cycles", "0")
	assert.Error(t, err)
}
