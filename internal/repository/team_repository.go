package repository

import (
	"context"

	"isdnews/internal/domain/entity"
)

type TeamRepository interface {
	// ListActive returns active teams in rotation order (sort_order, code).
	ListActive(ctx context.Context) ([]entity.Team, error)
	Get(ctx context.Context, code string) (*entity.Team, error)
}
