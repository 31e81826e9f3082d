package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

// EnrichmentStore serializes cycles with a process mutex. SQLite allows a
// single writer, so the write transaction is opened at the first write of
// the cycle instead of at the start. Audit rows written on other
// connections during the AI call would otherwise wait on it until the
// busy timeout.
type EnrichmentStore struct {
	db *sql.DB
	mu sync.Mutex
}

func NewEnrichmentStore(db *sql.DB) repository.EnrichmentStore {
	return &EnrichmentStore{db: db}
}

func (s *EnrichmentStore) WithinTx(ctx context.Context, fn func(tx repository.EnrichmentTx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &enrichmentTx{db: s.db}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
	}()

	if err = fn(t); err != nil {
		t.rollback()
		return err
	}
	if t.tx == nil {
		return nil
	}
	if err = t.tx.Commit(); err != nil {
		return fmt.Errorf("WithinTx: commit: %w", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type enrichmentTx struct {
	db *sql.DB
	tx *sql.Tx
}

func (t *enrichmentTx) reader() querier {
	if t.tx != nil {
		return t.tx
	}
	return t.db
}

func (t *enrichmentTx) writer(ctx context.Context) (querier, error) {
	if t.tx == nil {
		tx, err := t.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin: %w", err)
		}
		t.tx = tx
	}
	return t.tx, nil
}

func (t *enrichmentTx) rollback() {
	if t.tx != nil {
		_ = t.tx.Rollback()
	}
}

func (t *enrichmentTx) LockCursor(ctx context.Context) (string, error) {
	var code string
	err := t.reader().QueryRowContext(ctx, `SELECT last_team_code FROM enrichment_cursor WHERE id = 1`).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("LockCursor: %w", err)
	}
	return code, nil
}

func (t *enrichmentTx) NextUnenriched(ctx context.Context, teamCode string, maxAttempts int) (*entity.Article, error) {
	cols := make([]string, len(articleColumns))
	for i, c := range articleColumns {
		cols[i] = "a." + c
	}
	qb := sqlb.Select(cols...).
		From("articles a").
		Join("sources s ON s.id = a.source_id").
		Where(sq.Eq{"a.enriched": false}).
		Where(sq.Lt{"a.enrich_attempts": maxAttempts})
	if teamCode != "" {
		qb = qb.Where(sq.Eq{"s.team_code": teamCode})
	}
	query, args, err := qb.OrderBy("a.published_at ASC", "a.id ASC").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("NextUnenriched: build: %w", err)
	}

	a, err := scanArticle(t.reader().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("NextUnenriched: %w", err)
	}
	return a, nil
}

func (t *enrichmentTx) MarkEnriched(ctx context.Context, articleID int64, e entity.Enrichment) (bool, error) {
	w, err := t.writer(ctx)
	if err != nil {
		return false, fmt.Errorf("MarkEnriched: %w", err)
	}
	res, err := w.ExecContext(ctx, `
UPDATE articles
SET content = ?, thumbnail = ?, ai_content = ?, ai_team = ?, enriched = 1
WHERE id = ? AND enriched = 0`,
		e.Content, e.Thumbnail, e.AIContent, e.TeamCode, articleID)
	if err != nil {
		return false, fmt.Errorf("MarkEnriched: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("MarkEnriched: %w", err)
	}
	return n > 0, nil
}

func (t *enrichmentTx) SetCursor(ctx context.Context, teamCode string) error {
	w, err := t.writer(ctx)
	if err != nil {
		return fmt.Errorf("SetCursor: %w", err)
	}
	if _, err := w.ExecContext(ctx,
		`UPDATE enrichment_cursor SET last_team_code = ?, updated_at = ? WHERE id = 1`,
		teamCode, now(),
	); err != nil {
		return fmt.Errorf("SetCursor: %w", err)
	}
	return nil
}

func (t *enrichmentTx) IncrementAttempts(ctx context.Context, articleID int64) error {
	w, err := t.writer(ctx)
	if err != nil {
		return fmt.Errorf("IncrementAttempts: %w", err)
	}
	if _, err := w.ExecContext(ctx, `UPDATE articles SET enrich_attempts = enrich_attempts + 1 WHERE id = ?`, articleID); err != nil {
		return fmt.Errorf("IncrementAttempts: %w", err)
	}
	return nil
}
