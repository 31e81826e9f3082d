package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

type FetchLogRepo struct{ db *sql.DB }

func NewFetchLogRepo(db *sql.DB) repository.FetchLogRepository {
	return &FetchLogRepo{db: db}
}

func (repo *FetchLogRepo) Create(ctx context.Context, log *entity.FetchLog) error {
	const query = `
INSERT INTO fetch_logs (source_id, status, articles_count, error_message, execution_time)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		log.SourceID, string(log.Status), log.ArticlesCount, log.ErrorMessage, log.ExecutionTime.Seconds(),
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *FetchLogRepo) ListBySource(ctx context.Context, sourceID int64, limit int) ([]*entity.FetchLog, error) {
	const query = `
SELECT id, source_id, status, articles_count, error_message, execution_time, created_at
FROM fetch_logs
WHERE source_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, sourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("ListBySource: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*entity.FetchLog
	for rows.Next() {
		var (
			l       entity.FetchLog
			status  string
			seconds float64
		)
		if err := rows.Scan(&l.ID, &l.SourceID, &status, &l.ArticlesCount, &l.ErrorMessage, &seconds, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListBySource: %w", err)
		}
		l.Status = entity.FetchStatus(status)
		l.ExecutionTime = time.Duration(seconds * float64(time.Second))
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

type AILogRepo struct{ db *sql.DB }

func NewAILogRepo(db *sql.DB) repository.AILogRepository {
	return &AILogRepo{db: db}
}

func (repo *AILogRepo) Create(ctx context.Context, log *entity.AILog) error {
	const query = `
INSERT INTO ai_logs (url, team_code, model, prompt, raw_response, result, status, error_message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		log.URL, log.TeamCode, log.Model, log.Prompt, log.RawResponse, log.Result,
		string(log.Status), log.ErrorMessage,
	).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}
