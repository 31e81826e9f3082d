// Package postgres implements the repository ports on PostgreSQL.
package postgres

import (
	sq "github.com/Masterminds/squirrel"
)

// psql builds statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type rowScanner interface {
	Scan(dest ...any) error
}
