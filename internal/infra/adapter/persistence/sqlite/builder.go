// Package sqlite implements the repository ports on SQLite (modernc driver).
// Timestamps are written in UTC so that text ordering matches time ordering.
package sqlite

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

var sqlb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

type rowScanner interface {
	Scan(dest ...any) error
}

func now() time.Time { return time.Now().UTC() }
