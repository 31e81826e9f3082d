package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

// EnrichmentStore runs an enrichment cycle in one transaction. The cursor
// row lock taken by LockCursor serializes concurrent workers until commit.
type EnrichmentStore struct{ db *sql.DB }

func NewEnrichmentStore(db *sql.DB) repository.EnrichmentStore {
	return &EnrichmentStore{db: db}
}

func (s *EnrichmentStore) WithinTx(ctx context.Context, fn func(tx repository.EnrichmentTx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("WithinTx: begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&enrichmentTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("WithinTx: commit: %w", err)
	}
	return nil
}

type enrichmentTx struct{ tx *sql.Tx }

func (t *enrichmentTx) LockCursor(ctx context.Context) (string, error) {
	const query = `SELECT last_team_code FROM enrichment_cursor WHERE id = 1 FOR UPDATE`
	var code string
	err := t.tx.QueryRowContext(ctx, query).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("LockCursor: %w", err)
	}
	return code, nil
}

func (t *enrichmentTx) NextUnenriched(ctx context.Context, teamCode string, maxAttempts int) (*entity.Article, error) {
	qb := psql.Select(prefixed("a.", articleColumnList)...).
		From("articles a").
		Join("sources s ON s.id = a.source_id").
		Where(sq.Eq{"a.enriched": false}).
		Where(sq.Lt{"a.enrich_attempts": maxAttempts})
	if teamCode != "" {
		qb = qb.Where(sq.Eq{"s.team_code": teamCode})
	}
	query, args, err := qb.
		OrderBy("a.published_at ASC", "a.id ASC").
		Limit(1).
		Suffix("FOR UPDATE OF a SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("NextUnenriched: build: %w", err)
	}

	a, err := scanArticle(t.tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("NextUnenriched: %w", err)
	}
	return a, nil
}

func (t *enrichmentTx) MarkEnriched(ctx context.Context, articleID int64, e entity.Enrichment) (bool, error) {
	const query = `
UPDATE articles
SET content = $1, thumbnail = $2, ai_content = $3, ai_team = $4, enriched = TRUE
WHERE id = $5 AND enriched = FALSE`
	res, err := t.tx.ExecContext(ctx, query, e.Content, e.Thumbnail, e.AIContent, e.TeamCode, articleID)
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
	const query = `UPDATE enrichment_cursor SET last_team_code = $1, updated_at = now() WHERE id = 1`
	if _, err := t.tx.ExecContext(ctx, query, teamCode); err != nil {
		return fmt.Errorf("SetCursor: %w", err)
	}
	return nil
}

func (t *enrichmentTx) IncrementAttempts(ctx context.Context, articleID int64) error {
	const query = `UPDATE articles SET enrich_attempts = enrich_attempts + 1 WHERE id = $1`
	if _, err := t.tx.ExecContext(ctx, query, articleID); err != nil {
		return fmt.Errorf("IncrementAttempts: %w", err)
	}
	return nil
}
