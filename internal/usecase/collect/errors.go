// Package collect runs registered sources through fetch, dedup and persist,
// and records one FetchLog per source run.
package collect

import "errors"

var (
	// ErrSourceNotFound is returned by CollectSource for an unknown id.
	ErrSourceNotFound = errors.New("source not found")
)
