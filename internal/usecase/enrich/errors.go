// Package enrich runs enrichment cycles: it picks the next team in
// round-robin order, extracts the oldest unenriched article of that team,
// asks the AI for a team briefing, stores it and announces it.
package enrich

import "errors"

var (
	// ErrNoActiveTeams is returned by NextTeam when the rotation is empty.
	ErrNoActiveTeams = errors.New("no active teams")

	// ErrUnknownTeam is returned when a cycle is requested for a team that
	// does not exist or is inactive.
	ErrUnknownTeam = errors.New("unknown or inactive team")
)
