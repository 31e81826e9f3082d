package repository

import (
	"context"

	"isdnews/internal/domain/entity"
)

// ConfigRepository reads the system key/value configuration store.
type ConfigRepository interface {
	// Lookup returns the trimmed value of an active key. An empty teamCode
	// selects the global row. found is false when no active row exists.
	Lookup(ctx context.Context, key, teamCode string) (value string, found bool, err error)
	Upsert(ctx context.Context, cfg *entity.SystemConfig) error
}
