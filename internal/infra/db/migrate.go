package db

import (
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
    code       TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    sort_order INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS sources (
    id              BIGSERIAL PRIMARY KEY,
    name            TEXT NOT NULL UNIQUE,
    url             TEXT NOT NULL,
    kind            TEXT NOT NULL CHECK (kind IN ('feed', 'api', 'rendered')),
    team_code       TEXT NOT NULL REFERENCES teams(code),
    params          JSONB NOT NULL DEFAULT '{}',
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    fetch_interval  INTEGER NOT NULL DEFAULT 3600,
    last_fetched_at TIMESTAMPTZ,
    force_collect   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS articles (
    id              BIGSERIAL PRIMARY KEY,
    source_id       BIGINT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    title           TEXT NOT NULL,
    url             TEXT NOT NULL UNIQUE,
    summary         TEXT NOT NULL DEFAULT '',
    published_at    TIMESTAMPTZ NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    content         TEXT NOT NULL DEFAULT '',
    thumbnail       TEXT NOT NULL DEFAULT '',
    enriched        BOOLEAN NOT NULL DEFAULT FALSE,
    ai_team         TEXT NOT NULL DEFAULT '',
    ai_content      TEXT NOT NULL DEFAULT '',
    enrich_attempts INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS fetch_logs (
    id             BIGSERIAL PRIMARY KEY,
    source_id      BIGINT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    status         TEXT NOT NULL CHECK (status IN ('success', 'error', 'partial')),
    articles_count INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT NOT NULL DEFAULT '',
    execution_time DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS ai_logs (
    id            BIGSERIAL PRIMARY KEY,
    url           TEXT NOT NULL,
    team_code     TEXT NOT NULL,
    model         TEXT NOT NULL,
    prompt        TEXT NOT NULL,
    raw_response  TEXT NOT NULL DEFAULT '',
    result        TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL CHECK (status IN ('success', 'error')),
    error_message TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS enrichment_cursor (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    last_team_code TEXT NOT NULL DEFAULT '',
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS system_configs (
    id         BIGSERIAL PRIMARY KEY,
    key        TEXT NOT NULL,
    team_code  TEXT NOT NULL DEFAULT '',
    value      TEXT NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (key, team_code)
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_unenriched ON articles(published_at, id) WHERE enriched = FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_articles_source_id ON articles(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(team_code) WHERE active = TRUE`,
	`CREATE INDEX IF NOT EXISTS idx_fetch_logs_source_created ON fetch_logs(source_id, created_at DESC)`,
	`INSERT INTO teams (code, name, active, sort_order) VALUES
    ('dev', 'Developer', TRUE, 1),
    ('ba', 'Business Analyst', TRUE, 2),
    ('system', 'System', TRUE, 3)
ON CONFLICT (code) DO NOTHING`,
	`INSERT INTO enrichment_cursor (id, last_team_code) VALUES (1, '') ON CONFLICT (id) DO NOTHING`,
}

// SQLite stores timestamps as DATETIME text in UTC and booleans as 0/1.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
    code       TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS sources (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL UNIQUE,
    url             TEXT NOT NULL,
    kind            TEXT NOT NULL CHECK (kind IN ('feed', 'api', 'rendered')),
    team_code       TEXT NOT NULL REFERENCES teams(code),
    params          TEXT NOT NULL DEFAULT '{}',
    active          BOOLEAN NOT NULL DEFAULT 1,
    fetch_interval  INTEGER NOT NULL DEFAULT 3600,
    last_fetched_at DATETIME,
    force_collect   BOOLEAN NOT NULL DEFAULT 0,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS articles (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id       INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    title           TEXT NOT NULL,
    url             TEXT NOT NULL UNIQUE,
    summary         TEXT NOT NULL DEFAULT '',
    published_at    DATETIME NOT NULL,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    content         TEXT NOT NULL DEFAULT '',
    thumbnail       TEXT NOT NULL DEFAULT '',
    enriched        BOOLEAN NOT NULL DEFAULT 0,
    ai_team         TEXT NOT NULL DEFAULT '',
    ai_content      TEXT NOT NULL DEFAULT '',
    enrich_attempts INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS fetch_logs (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id      INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    status         TEXT NOT NULL CHECK (status IN ('success', 'error', 'partial')),
    articles_count INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT NOT NULL DEFAULT '',
    execution_time REAL NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS ai_logs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    url           TEXT NOT NULL,
    team_code     TEXT NOT NULL,
    model         TEXT NOT NULL,
    prompt        TEXT NOT NULL,
    raw_response  TEXT NOT NULL DEFAULT '',
    result        TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL CHECK (status IN ('success', 'error')),
    error_message TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS enrichment_cursor (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    last_team_code TEXT NOT NULL DEFAULT '',
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`CREATE TABLE IF NOT EXISTS system_configs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    key        TEXT NOT NULL,
    team_code  TEXT NOT NULL DEFAULT '',
    value      TEXT NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT 1,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (key, team_code)
)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_unenriched ON articles(published_at, id) WHERE enriched = 0`,
	`CREATE INDEX IF NOT EXISTS idx_articles_source_id ON articles(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(team_code) WHERE active = 1`,
	`CREATE INDEX IF NOT EXISTS idx_fetch_logs_source_created ON fetch_logs(source_id, created_at DESC)`,
	`INSERT INTO teams (code, name, active, sort_order) VALUES
    ('dev', 'Developer', 1, 1),
    ('ba', 'Business Analyst', 1, 2),
    ('system', 'System', 1, 3)
ON CONFLICT (code) DO NOTHING`,
	`INSERT INTO enrichment_cursor (id, last_team_code) VALUES (1, '') ON CONFLICT (id) DO NOTHING`,
}

// MigrateUp creates the schema and seeds the default teams and the cursor row.
// Every statement is idempotent, so it runs on each start.
func MigrateUp(db *sql.DB, dialect Dialect) error {
	var stmts []string
	switch dialect {
	case Postgres:
		stmts = postgresSchema
	case SQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unknown dialect %q", dialect)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
