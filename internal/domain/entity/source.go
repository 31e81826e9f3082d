package entity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SourceKind is the closed set of fetch strategies a source can declare.
type SourceKind string

const (
	// KindFeed is an RSS/Atom syndication document.
	KindFeed SourceKind = "feed"
	// KindAPI is a JSON HTTP endpoint returning a list of items.
	KindAPI SourceKind = "api"
	// KindRendered is a JavaScript-rendered page queried through an external query service.
	KindRendered SourceKind = "rendered"
)

// DefaultFetchInterval is applied when a source does not declare its own cadence.
const DefaultFetchInterval = time.Hour

// ParseSourceKind normalizes a declared kind. The legacy names "rss" and
// "static" are accepted as aliases of feed and rendered.
func ParseSourceKind(raw string) (SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "feed", "rss":
		return KindFeed, nil
	case "api":
		return KindAPI, nil
	case "rendered", "static":
		return KindRendered, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSourceKind, raw)
	}
}

// SourceParams is the free-form parameter bag of a source.
// Which fields are meaningful depends on the kind.
type SourceParams struct {
	Headers     map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	QueryParams map[string]string `json:"query_params,omitempty" yaml:"query_params,omitempty"`
	Prompt      string            `json:"prompt,omitempty" yaml:"prompt,omitempty"`
}

// DecodeSourceParams parses the stored JSON parameter bag.
// A non-object headers or query_params value is rejected with ErrInvalidParams.
func DecodeSourceParams(raw []byte) (SourceParams, error) {
	var p SourceParams
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return SourceParams{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p, nil
}

// Encode serializes the parameter bag for storage.
func (p SourceParams) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode source params: %w", err)
	}
	return string(b), nil
}

// Source is a registered external content origin with a fetch kind and cadence.
type Source struct {
	ID            int64
	Name          string
	URL           string
	Kind          SourceKind
	TeamCode      string
	Params        SourceParams
	Active        bool
	FetchInterval time.Duration
	LastFetchedAt *time.Time
	ForceCollect  bool
	CreatedAt     time.Time
}

// Validate checks the per-kind invariants of a source.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if err := ValidateURL(s.URL); err != nil {
		return err
	}
	if _, err := ParseSourceKind(string(s.Kind)); err != nil {
		return err
	}
	if s.FetchInterval < 0 {
		return &ValidationError{Field: "fetch_interval", Message: "fetch interval must not be negative"}
	}
	if s.Kind == KindRendered && strings.TrimSpace(s.Params.Prompt) == "" {
		return fmt.Errorf("source %q: %w", s.Name, ErrMissingPrompt)
	}
	return nil
}

// Interval returns the effective fetch interval.
func (s *Source) Interval() time.Duration {
	if s.FetchInterval <= 0 {
		return DefaultFetchInterval
	}
	return s.FetchInterval
}

// IsDue reports whether the source should be fetched at now.
// Force bypasses the interval check entirely.
func (s *Source) IsDue(now time.Time) bool {
	if s.ForceCollect || s.LastFetchedAt == nil {
		return true
	}
	return now.Sub(*s.LastFetchedAt) >= s.Interval()
}
