package repository

import (
	"context"
	"time"

	"isdnews/internal/domain/entity"
)

// SourceRepository persists registered sources.
// Get and GetByName return (nil, nil) when nothing matches.
type SourceRepository interface {
	Get(ctx context.Context, id int64) (*entity.Source, error)
	GetByName(ctx context.Context, name string) (*entity.Source, error)
	// ListActive returns active sources ordered by id. An empty teamCode means all teams.
	ListActive(ctx context.Context, teamCode string) ([]*entity.Source, error)
	Create(ctx context.Context, source *entity.Source) error
	Update(ctx context.Context, source *entity.Source) error
	TouchFetchedAt(ctx context.Context, id int64, t time.Time) error
}
