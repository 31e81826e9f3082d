package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

type ConfigRepo struct{ db *sql.DB }

func NewConfigRepo(db *sql.DB) repository.ConfigRepository {
	return &ConfigRepo{db: db}
}

func (repo *ConfigRepo) Lookup(ctx context.Context, key, teamCode string) (string, bool, error) {
	const query = `
SELECT value FROM system_configs
WHERE key = $1 AND team_code = $2 AND active = TRUE`
	var value string
	err := repo.db.QueryRowContext(ctx, query, key, teamCode).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Lookup: %w", err)
	}
	return strings.TrimSpace(value), true, nil
}

func (repo *ConfigRepo) Upsert(ctx context.Context, cfg *entity.SystemConfig) error {
	const query = `
INSERT INTO system_configs (key, team_code, value, active, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (key, team_code)
DO UPDATE SET value = EXCLUDED.value, active = EXCLUDED.active, updated_at = now()
RETURNING updated_at`
	err := repo.db.QueryRowContext(ctx, query, cfg.Key, cfg.TeamCode, cfg.Value, cfg.Active).Scan(&cfg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}
