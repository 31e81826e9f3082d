package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"isdnews/internal/domain/entity"
	infradb "isdnews/internal/infra/db"
	"isdnews/internal/infra/adapter/persistence/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "isdnews.db")
	db, dialect, err := infradb.OpenDSN(context.Background(), "sqlite:"+path, infradb.DefaultConnectionConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, infradb.MigrateUp(db, dialect))
	return db
}

func seedSource(t *testing.T, db *sql.DB, name, team string) *entity.Source {
	t.Helper()
	src := &entity.Source{
		Name: name, URL: "https://" + name + ".test/feed", Kind: entity.KindFeed,
		TeamCode: team, Active: true,
	}
	require.NoError(t, sqlite.NewSourceRepo(db).Create(context.Background(), src))
	return src
}
