package postgres_test

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"isdnews/internal/domain/entity"
	"isdnews/internal/infra/adapter/persistence/postgres"
)

/* ──────────────────────────────── ヘルパ ──────────────────────────────── */

var sourceCols = []string{
	"id", "name", "url", "kind", "team_code", "params",
	"active", "fetch_interval", "last_fetched_at", "force_collect", "created_at",
}

func sourceRow(rows *sqlmock.Rows, src *entity.Source, params string) *sqlmock.Rows {
	var last any
	if src.LastFetchedAt != nil {
		last = *src.LastFetchedAt
	}
	return rows.AddRow(
		src.ID, src.Name, src.URL, string(src.Kind), src.TeamCode, []byte(params),
		src.Active, int64(src.FetchInterval/time.Second), last, src.ForceCollect, src.CreatedAt,
	)
}

/* ──────────────────────────────── 1. Get ──────────────────────────────── */

func TestSourceRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	fetched := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	want := &entity.Source{
		ID: 1, Name: "Go Blog", URL: "https://go.dev/blog/feed.atom", Kind: entity.KindFeed,
		TeamCode: "dev", Active: true, FetchInterval: time.Hour, LastFetchedAt: &fetched,
		CreatedAt: fetched.Add(-time.Hour),
		Params:    entity.SourceParams{Headers: map[string]string{"Accept": "application/atom+xml"}},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sources WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sourceRow(sqlmock.NewRows(sourceCols), want, `{"headers":{"Accept":"application/atom+xml"}}`))

	repo := postgres.NewSourceRepo(db)
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSourceRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM sources`).WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(sourceCols))

	got, err := postgres.NewSourceRepo(db).Get(context.Background(), 9)
	if err != nil || got != nil {
		t.Fatalf("want (nil, nil), got (%v, %v)", got, err)
	}
}

func TestSourceRepo_Get_InvalidParams(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	src := &entity.Source{ID: 2, Name: "bad", URL: "https://x.test", Kind: entity.KindAPI, TeamCode: "ba"}
	mock.ExpectQuery(`FROM sources`).
		WillReturnRows(sourceRow(sqlmock.NewRows(sourceCols), src, `{"headers":"not-a-map"}`))

	if _, err := postgres.NewSourceRepo(db).Get(context.Background(), 2); err == nil {
		t.Fatal("expected params decode error")
	}
}

/* ──────────────────────────────── 2. ListActive ──────────────────────────────── */

func TestSourceRepo_ListActive(t *testing.T) {
	tests := []struct {
		name  string
		team  string
		query string
		args  []any
	}{
		{"all teams", "", `WHERE active = $1 ORDER BY id ASC`, []any{true}},
		{"one team", "ba", `WHERE active = $1 AND team_code = $2 ORDER BY id ASC`, []any{true, "ba"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, _ := sqlmock.New()
			defer func() { _ = db.Close() }()

			rows := sqlmock.NewRows(sourceCols)
			sourceRow(rows, &entity.Source{ID: 1, Name: "a", URL: "https://a.test", Kind: entity.KindFeed, TeamCode: "ba", Active: true}, `{}`)
			sourceRow(rows, &entity.Source{ID: 2, Name: "b", URL: "https://b.test", Kind: entity.KindAPI, TeamCode: "ba", Active: true}, `{}`)

			args := make([]driver.Value, len(tt.args))
			for i, a := range tt.args {
				args[i] = a
			}
			mock.ExpectQuery(regexp.QuoteMeta(tt.query)).WithArgs(args...).WillReturnRows(rows)

			got, err := postgres.NewSourceRepo(db).ListActive(context.Background(), tt.team)
			if err != nil || len(got) != 2 {
				t.Fatalf("ListActive err=%v len=%d", err, len(got))
			}
			if got[1].Kind != entity.KindAPI {
				t.Errorf("kind = %q", got[1].Kind)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

/* ──────────────────────────────── 3. Create / Update ──────────────────────────────── */

func TestSourceRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	src := &entity.Source{
		Name: "AgentQL page", URL: "https://news.test", Kind: entity.KindRendered, TeamCode: "system",
		Active: true, Params: entity.SourceParams{Prompt: "article links"},
	}

	mock.ExpectQuery(`INSERT INTO sources`).
		WithArgs("AgentQL page", "https://news.test", "rendered", "system", `{"prompt":"article links"}`, true, int64(3600), false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	if err := postgres.NewSourceRepo(db).Create(context.Background(), src); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if src.ID != 7 || !src.CreatedAt.Equal(created) {
		t.Fatalf("id/created_at not populated: %+v", src)
	}
}

func TestSourceRepo_Update_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`UPDATE sources`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := postgres.NewSourceRepo(db).Update(context.Background(), &entity.Source{ID: 99, Name: "x"})
	if err == nil {
		t.Fatal("expected not found")
	}
}

func TestSourceRepo_TouchFetchedAt(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	at := time.Now()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE sources SET last_fetched_at = $1 WHERE id = $2`)).
		WithArgs(at, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := postgres.NewSourceRepo(db).TouchFetchedAt(context.Background(), 3, at); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
