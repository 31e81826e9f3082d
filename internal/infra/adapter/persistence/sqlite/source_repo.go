package sqlite

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

var sourceColumns = []string{
	"id", "name", "url", "kind", "team_code", "params",
	"active", "fetch_interval", "last_fetched_at", "force_collect", "created_at",
}

type SourceRepo struct{ db *sql.DB }

func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func scanSource(r rowScanner) (*entity.Source, error) {
	var (
		src      entity.Source
		kind     string
		params   string
		interval int64
		last     sql.NullTime
	)
	if err := r.Scan(
		&src.ID, &src.Name, &src.URL, &kind, &src.TeamCode, &params,
		&src.Active, &interval, &last, &src.ForceCollect, &src.CreatedAt,
	); err != nil {
		return nil, err
	}
	src.Kind = entity.SourceKind(kind)
	src.FetchInterval = time.Duration(interval) * time.Second
	if last.Valid {
		t := last.Time.UTC()
		src.LastFetchedAt = &t
	}
	p, err := entity.DecodeSourceParams([]byte(params))
	if err != nil {
		return nil, fmt.Errorf("source %d: %w", src.ID, err)
	}
	src.Params = p
	return &src, nil
}

func (repo *SourceRepo) getBy(ctx context.Context, where sq.Eq) (*entity.Source, error) {
	query, args, err := sqlb.Select(sourceColumns...).From("sources").Where(where).ToSql()
	if err != nil {
		return nil, err
	}
	src, err := scanSource(repo.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return src, err
}

func (repo *SourceRepo) Get(ctx context.Context, id int64) (*entity.Source, error) {
	src, err := repo.getBy(ctx, sq.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return src, nil
}

func (repo *SourceRepo) GetByName(ctx context.Context, name string) (*entity.Source, error) {
	src, err := repo.getBy(ctx, sq.Eq{"name": name})
	if err != nil {
		return nil, fmt.Errorf("GetByName: %w", err)
	}
	return src, nil
}

func (repo *SourceRepo) ListActive(ctx context.Context, teamCode string) ([]*entity.Source, error) {
	qb := sqlb.Select(sourceColumns...).From("sources").Where(sq.Eq{"active": true})
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

	var sources []*entity.Source
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
	src.CreatedAt = now()
	res, err := repo.db.ExecContext(ctx, `
INSERT INTO sources (name, url, kind, team_code, params, active, fetch_interval, force_collect, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.Name, src.URL, string(src.Kind), src.TeamCode, params,
		src.Active, int64(src.Interval()/time.Second), src.ForceCollect, src.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if src.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SourceRepo) Update(ctx context.Context, src *entity.Source) error {
	params, err := src.Params.Encode()
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	res, err := repo.db.ExecContext(ctx, `
UPDATE sources
SET name = ?, url = ?, kind = ?, team_code = ?, params = ?,
    active = ?, fetch_interval = ?, force_collect = ?
WHERE id = ?`,
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
	if _, err := repo.db.ExecContext(ctx, `UPDATE sources SET last_fetched_at = ? WHERE id = ?`, t.UTC(), id); err != nil {
		return fmt.Errorf("TouchFetchedAt: %w", err)
	}
	return nil
}
