package scraper

import (
	"fmt"
	"strconv"

	"isdnews/internal/domain/entity"
	"isdnews/internal/usecase/collect"
)

// Registry holds one fetcher per source kind.
type Registry struct {
	Feed     collect.Fetcher
	API      collect.Fetcher
	Rendered collect.Fetcher
}

// Select returns the fetcher serving kind.
func (r *Registry) Select(kind entity.SourceKind) (collect.Fetcher, error) {
	var f collect.Fetcher
	switch kind {
	case entity.KindFeed:
		f = r.Feed
	case entity.KindAPI:
		f = r.API
	case entity.KindRendered:
		f = r.Rendered
	default:
		return nil, fmt.Errorf("%w: %q", entity.ErrUnsupportedSourceKind, kind)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: %q has no fetcher configured", entity.ErrUnsupportedSourceKind, kind)
	}
	return f, nil
}

// breakerKey names the circuit of one source. Unsaved sources fall back to
// their URL.
func breakerKey(src *entity.Source) string {
	if src.ID > 0 {
		return "source-" + strconv.FormatInt(src.ID, 10)
	}
	return src.URL
}
