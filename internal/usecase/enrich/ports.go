package enrich

import (
	"context"

	"isdnews/internal/domain/entity"
	"isdnews/internal/infra/extractor"
)

// DetailExtractor renders an article page and extracts its body. An empty
// Detail means extraction failed.
type DetailExtractor interface {
	Extract(ctx context.Context, pageURL string) extractor.Detail
}

// Summarizer returns the team briefing for text, or text itself on failure.
type Summarizer interface {
	Summarize(ctx context.Context, text, sourceURL, teamCode string) string
}

// ConfigLookup reads runtime switches from the configuration store.
type ConfigLookup interface {
	Lookup(ctx context.Context, key, teamCode string) (string, bool, error)
}

// Notifier announces an enriched article. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n *entity.Notification) error
}
