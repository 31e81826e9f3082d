package repository

import (
	"context"

	"isdnews/internal/domain/entity"
)

// ArticleRepository is the write boundary of the fetch stage.
type ArticleRepository interface {
	Get(ctx context.Context, id int64) (*entity.Article, error)
	// ExistsByURLBatch reports which of the given URLs are already persisted.
	ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error)
	// CreateIfAbsent inserts the article unless its URL exists.
	// A URL conflict yields (false, nil).
	CreateIfAbsent(ctx context.Context, article *entity.Article) (bool, error)
}
