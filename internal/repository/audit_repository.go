package repository

import (
	"context"

	"isdnews/internal/domain/entity"
)

// FetchLogRepository appends FetchLog rows. Rows are never updated.
type FetchLogRepository interface {
	Create(ctx context.Context, log *entity.FetchLog) error
	ListBySource(ctx context.Context, sourceID int64, limit int) ([]*entity.FetchLog, error)
}

// AILogRepository appends AILog rows. Rows are never updated.
type AILogRepository interface {
	Create(ctx context.Context, log *entity.AILog) error
}
