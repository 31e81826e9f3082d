package source

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

// Interval is a fetch interval written either as a duration ("30m") or as
// whole seconds (1800).
type Interval time.Duration

// UnmarshalYAML accepts both spellings.
func (i *Interval) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimSpace(value.Value)
	if raw == "" || raw == "null" || raw == "~" {
		*i = 0
		return nil
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*i = Interval(time.Duration(secs) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("fetch_interval %q: %w", raw, err)
	}
	*i = Interval(d)
	return nil
}

// Definition is one entry of an import file. "source" and "type" are
// accepted as older spellings of "name" and "kind".
type Definition struct {
	Name          string              `yaml:"name"`
	LegacyName    string              `yaml:"source"`
	URL           string              `yaml:"url"`
	Kind          string              `yaml:"kind"`
	LegacyKind    string              `yaml:"type"`
	Team          string              `yaml:"team"`
	Params        entity.SourceParams `yaml:"params"`
	Active        *bool               `yaml:"active"`
	FetchInterval Interval            `yaml:"fetch_interval"`
}

// ToSource builds and validates the entity.
func (d Definition) ToSource() (*entity.Source, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		name = strings.TrimSpace(d.LegacyName)
	}
	rawKind := d.Kind
	if rawKind == "" {
		rawKind = d.LegacyKind
	}
	kind, err := entity.ParseSourceKind(rawKind)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", name, err)
	}

	active := true
	if d.Active != nil {
		active = *d.Active
	}

	src := &entity.Source{
		Name:          name,
		URL:           strings.TrimSpace(d.URL),
		Kind:          kind,
		TeamCode:      strings.TrimSpace(d.Team),
		Params:        d.Params,
		Active:        active,
		FetchInterval: time.Duration(d.FetchInterval),
	}
	if src.TeamCode == "" {
		return nil, &entity.ValidationError{Field: "team", Message: fmt.Sprintf("source %q has no team", name)}
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return src, nil
}

// ParseFile decodes a JSON or YAML list of definitions. JSON parses as YAML.
func ParseFile(data []byte) ([]Definition, error) {
	var defs []Definition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return defs, nil
}

// Result counts what Import did.
type Result struct {
	Created int
	Updated int
	Skipped int
}

// Service registers sources.
type Service struct {
	Repo repository.SourceRepository
}

// Import creates every definition whose name is not registered yet. With
// update, existing sources are overwritten instead of skipped; their id,
// last fetch time and force flag are kept.
//
// The whole file is validated before anything is written.
func (s *Service) Import(ctx context.Context, defs []Definition, update bool) (*Result, error) {
	sources := make([]*entity.Source, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for i, d := range defs {
		src, err := d.ToSource()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, src.Name)
		}
		seen[src.Name] = true
		sources = append(sources, src)
	}

	res := &Result{}
	for _, src := range sources {
		existing, err := s.Repo.GetByName(ctx, src.Name)
		if err != nil {
			return res, fmt.Errorf("get source %q: %w", src.Name, err)
		}

		switch {
		case existing == nil:
			if err := s.Repo.Create(ctx, src); err != nil {
				return res, fmt.Errorf("create source %q: %w", src.Name, err)
			}
			res.Created++
		case update:
			src.ID = existing.ID
			src.LastFetchedAt = existing.LastFetchedAt
			src.ForceCollect = existing.ForceCollect
			src.CreatedAt = existing.CreatedAt
			if err := s.Repo.Update(ctx, src); err != nil {
				return res, fmt.Errorf("update source %q: %w", src.Name, err)
			}
			res.Updated++
		default:
			slog.Warn("source already exists, skipping", slog.String("source", src.Name))
			res.Skipped++
		}
	}
	return res, nil
}
