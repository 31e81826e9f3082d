package sqlite

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
	log.CreatedAt = now()
	res, err := repo.db.ExecContext(ctx, `
INSERT INTO fetch_logs (source_id, status, articles_count, error_message, execution_time, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		log.SourceID, string(log.Status), log.ArticlesCount, log.ErrorMessage, log.ExecutionTime.Seconds(), log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if log.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *FetchLogRepo) ListBySource(ctx context.Context, sourceID int64, limit int) ([]*entity.FetchLog, error) {
	rows, err := repo.db.QueryContext(ctx, `
SELECT id, source_id, status, articles_count, error_message, execution_time, created_at
FROM fetch_logs
WHERE source_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`, sourceID, limit)
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
	log.CreatedAt = now()
	res, err := repo.db.ExecContext(ctx, `
INSERT INTO ai_logs (url, team_code, model, prompt, raw_response, result, status, error_message, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.URL, log.TeamCode, log.Model, log.Prompt, log.RawResponse, log.Result,
		string(log.Status), log.ErrorMessage, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if log.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}
