package collect

import (
	"context"
	"time"

	"isdnews/internal/domain/entity"
)

// CandidateItem is one item a fetcher found on a source, before dedup.
// Missing fields are empty strings; PublishedAt is never zero.
type CandidateItem struct {
	Title       string
	URL         string
	PublishedAt time.Time
	Summary     string
}

// Fetcher retrieves the current candidate items of a source.
type Fetcher interface {
	Fetch(ctx context.Context, src *entity.Source) ([]CandidateItem, error)
}

// FetcherSelector maps a source kind to its fetcher.
type FetcherSelector interface {
	Select(kind entity.SourceKind) (Fetcher, error)
}
