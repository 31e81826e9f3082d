package repository

import (
	"context"

	"isdnews/internal/domain/entity"
)

// EnrichmentTx is the unit of work of one enrichment cycle. The round-robin
// cursor and the article enrichment flag change together or not at all.
type EnrichmentTx interface {
	// LockCursor reads the last served team code and holds its row lock
	// until the transaction ends.
	LockCursor(ctx context.Context) (string, error)
	// NextUnenriched returns the oldest unenriched article below maxAttempts,
	// restricted to sources of teamCode when it is not empty. It returns
	// (nil, nil) when there is none.
	NextUnenriched(ctx context.Context, teamCode string, maxAttempts int) (*entity.Article, error)
	// MarkEnriched stores the enrichment on an article that is still unenriched.
	// It returns false when another worker enriched it first.
	MarkEnriched(ctx context.Context, articleID int64, e entity.Enrichment) (bool, error)
	SetCursor(ctx context.Context, teamCode string) error
	IncrementAttempts(ctx context.Context, articleID int64) error
}

// EnrichmentStore runs fn inside one transaction. A nil return commits,
// an error rolls back.
type EnrichmentStore interface {
	WithinTx(ctx context.Context, fn func(tx EnrichmentTx) error) error
}
