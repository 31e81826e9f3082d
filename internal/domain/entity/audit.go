package entity

import "time"

// FetchStatus is the outcome of one orchestrated source run.
type FetchStatus string

const (
	FetchSuccess FetchStatus = "success"
	FetchError   FetchStatus = "error"
	FetchPartial FetchStatus = "partial"
)

// FetchLog is the append-only audit record of one source run.
type FetchLog struct {
	ID            int64
	SourceID      int64
	Status        FetchStatus
	ArticlesCount int
	ErrorMessage  string
	ExecutionTime time.Duration
	CreatedAt     time.Time
}

// AIStatus is the outcome of one AI call attempt.
type AIStatus string

const (
	AISuccess AIStatus = "success"
	AIError   AIStatus = "error"
)

// AILog is the append-only audit record of one AI call attempt.
type AILog struct {
	ID           int64
	URL          string
	TeamCode     string
	Model        string
	Prompt       string
	RawResponse  string
	Result       string
	Status       AIStatus
	ErrorMessage string
	CreatedAt    time.Time
}
