// Package entity defines the domain entities of the collector: sources, articles,
// teams, audit logs and the enrichment cursor, together with their validation
// rules and domain errors.
package entity

import "time"

// Article is one persisted content item, identified by its URL.
// Enrichment fields stay empty until the enrichment pipeline sets them once.
type Article struct {
	ID             int64
	SourceID       int64
	Title          string
	URL            string
	Summary        string
	PublishedAt    time.Time
	CreatedAt      time.Time
	Content        string
	Thumbnail      string
	Enriched       bool
	AITeam         string
	AIContent      string
	EnrichAttempts int
}

// Enrichment is the result the pipeline writes onto an article.
type Enrichment struct {
	Content   string
	Thumbnail string
	AIContent string
	TeamCode  string
}
