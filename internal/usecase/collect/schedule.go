package collect

import (
	"time"

	"isdnews/internal/domain/entity"
)

// DueSources keeps the sources that should be fetched at now, in input order.
func DueSources(sources []*entity.Source, now time.Time) []*entity.Source {
	due := make([]*entity.Source, 0, len(sources))
	for _, src := range sources {
		if src.IsDue(now) {
			due = append(due, src)
		}
	}
	return due
}
