package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

type TeamRepo struct{ db *sql.DB }

func NewTeamRepo(db *sql.DB) repository.TeamRepository {
	return &TeamRepo{db: db}
}

func (repo *TeamRepo) ListActive(ctx context.Context) ([]entity.Team, error) {
	const query = `
SELECT code, name, active, sort_order
FROM teams
WHERE active = TRUE
ORDER BY sort_order ASC, code ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var teams []entity.Team
	for rows.Next() {
		var t entity.Team
		if err := rows.Scan(&t.Code, &t.Name, &t.Active, &t.SortOrder); err != nil {
			return nil, fmt.Errorf("ListActive: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (repo *TeamRepo) Get(ctx context.Context, code string) (*entity.Team, error) {
	const query = `SELECT code, name, active, sort_order FROM teams WHERE code = $1`
	var t entity.Team
	err := repo.db.QueryRowContext(ctx, query, code).Scan(&t.Code, &t.Name, &t.Active, &t.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &t, nil
}
