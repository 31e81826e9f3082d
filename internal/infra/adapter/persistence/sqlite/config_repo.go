package sqlite

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
	var value string
	err := repo.db.QueryRowContext(ctx,
		`SELECT value FROM system_configs WHERE key = ? AND team_code = ? AND active = 1`,
		key, teamCode,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("Lookup: %w", err)
	}
	return strings.TrimSpace(value), true, nil
}

func (repo *ConfigRepo) Upsert(ctx context.Context, cfg *entity.SystemConfig) error {
	cfg.UpdatedAt = now()
	_, err := repo.db.ExecContext(ctx, `
INSERT INTO system_configs (key, team_code, value, active, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key, team_code)
DO UPDATE SET value = excluded.value, active = excluded.active, updated_at = excluded.updated_at`,
		cfg.Key, cfg.TeamCode, cfg.Value, cfg.Active, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}
