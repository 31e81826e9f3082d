package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for _, table := range []string{"teams", "sources", "articles", "fetch_logs", "ai_logs", "enrichment_cursor", "system_configs"} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	for _, idx := range []string{"idx_articles_unenriched", "idx_articles_source_id", "idx_sources_active", "idx_fetch_logs_source_created"} {
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS " + idx).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("INSERT INTO teams").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO enrichment_cursor").WillReturnResult(sqlmock.NewResult(0, 1))

	err = MigrateUp(db, Postgres)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_StopsAtFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS teams").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sources").
		WillReturnError(sql.ErrConnDone)

	err = MigrateUp(db, Postgres)
	assert.Equal(t, sql.ErrConnDone, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_UnknownDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Error(t, MigrateUp(db, Dialect("oracle")))
}

/* ───────── SQLite 実DBでの冪等性 ───────── */

func TestMigrateUp_SQLiteIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrate.db")
	db, dialect, err := OpenDSN(context.Background(), "sqlite:"+path, DefaultConnectionConfig())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, MigrateUp(db, dialect))
	require.NoError(t, MigrateUp(db, dialect))

	var teams int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM teams WHERE active = 1`).Scan(&teams))
	assert.Equal(t, 3, teams)

	var cursor string
	require.NoError(t, db.QueryRow(`SELECT last_team_code FROM enrichment_cursor WHERE id = 1`).Scan(&cursor))
	assert.Equal(t, "", cursor)

	_, err = db.Exec(`INSERT INTO enrichment_cursor (id, last_team_code) VALUES (2, 'dev')`)
	assert.Error(t, err, "cursor table holds a single row")
}
