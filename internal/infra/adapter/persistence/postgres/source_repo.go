package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

const sourceColumns = `id, name, url, kind, team_code, params, active, fetch_interval, last_fetched_at, force_collect, created_at`

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func scanSource(r rowScanner) (*entity.Source, error) {
	var (
		src      entity.Source
		kind     string
		params   []byte
		interval int64
	)
	if err := r.Scan(
		&src.ID, &src.Name, &src.URL, &kind, &src.TeamCode, &params,
		&src.Active, &interval, &src.LastFetchedAt, &src.ForceCollect, &src.CreatedAt,
	); err != nil {
		return nil, err
	}
	src.Kind = entity.SourceKind(kind)
	src.FetchInterval = time.Duration(interval) * time.Second
	p, err := entity.DecodeSourceParams(params)
	if err != nil {
		return nil, fmt.Errorf("source %d: %w", src.ID, err)
	}
	src.Params = p
	return &src, nil
}

func (repo *SourceRepo) Get(ctx context.Context, id int64) (*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE id = $1`
	src, err := scanSource(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return src, nil
}

func (repo *SourceRepo) GetByName(ctx context.Context, name string) (*entity.Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources WHERE name = $1`
	src, err := scanSource(repo.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByName: %w", err)
	}
	return src, nil
}

func (repo *SourceRepo) ListActive(ctx context.Context, teamCode string) ([]*entity.Source, error) {
	qb := psql.Select(sourceColumns).From("sources").Where(sq.Eq{"active": true})
	if teamCode != "" {
		qb = qb.Where(sq.Eq{"team_code": teamCode})
	}
	query, args, err := qb.OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListActive: build: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.Source, 0, 32)
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("ListActive: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) Create(ctx context.Context, src *entity.Source) error {
	params, err := src.Params.Encode()
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	const query = `
INSERT INTO sources (name, url, kind, team_code, params, active, fetch_interval, force_collect)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at`
	err = repo.db.QueryRowContext(ctx, query,
		src.Name, src.URL, string(src.Kind), src.TeamCode, params,
		src.Active, int64(src.Interval()/time.Second), src.ForceCollect,
	).Scan(&src.ID, &src.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SourceRepo) Update(ctx context.Context, src *entity.Source) error {
	params, err := src.Params.Encode()
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	const query = `
UPDATE sources
SET name = $1, url = $2, kind = $3, team_code = $4, params = $5,
    active = $6, fetch_interval = $7, force_collect = $8
WHERE id = $9`
	res, err := repo.db.ExecContext(ctx, query,
		src.Name, src.URL, string(src.Kind), src.TeamCode, params,
		src.Active, int64(src.Interval()/time.Second), src.ForceCollect, src.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Update: source %d: %w", src.ID, entity.ErrNotFound)
	}
	return nil
}

func (repo *SourceRepo) TouchFetchedAt(ctx context.Context, id int64, t time.Time) error {
	const query = `UPDATE sources SET last_fetched_at = $1 WHERE id = $2`
	if _, err := repo.db.ExecContext(ctx, query, t, id); err != nil {
		return fmt.Errorf("TouchFetchedAt: %w", err)
	}
	return nil
}
