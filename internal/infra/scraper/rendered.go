package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"isdnews/internal/domain/entity"
	"isdnews/internal/resilience/circuitbreaker"
	"isdnews/internal/resilience/retry"
	"isdnews/internal/usecase/collect"

	"github.com/tidwall/gjson"
)

// DefaultQueryEndpoint is the hosted query-data endpoint.
const DefaultQueryEndpoint = "https://api.agentql.com/v1/query-data"

// ConfigLookup resolves configuration keys such as the query service key.
type ConfigLookup interface {
	Lookup(ctx context.Context, key, teamCode string) (string, bool, error)
}

// RenderedFetcher asks an external query service to render a page and list
// the article URLs matching the source's prompt.
type RenderedFetcher struct {
	client         *http.Client
	config         ConfigLookup
	endpoint       string
	breakers       *circuitbreaker.Set
	now            func() time.Time
}

// NewRenderedFetcher returns a fetcher posting to endpoint, or to
// DefaultQueryEndpoint when endpoint is empty.
func NewRenderedFetcher(client *http.Client, config ConfigLookup, endpoint string) *RenderedFetcher {
	if endpoint == "" {
		endpoint = DefaultQueryEndpoint
	}
	return &RenderedFetcher{
		client:         client,
		config:         config,
		endpoint:       endpoint,
		breakers:       circuitbreaker.NewSet(circuitbreaker.RenderedQueryConfig()),
		now:            time.Now,
	}
}

type queryRequest struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

// Fetch fails with entity.ErrMissingPrompt or ErrMissingAPIKey before any
// network call when the source or the deployment is not set up for it.
func (f *RenderedFetcher) Fetch(ctx context.Context, src *entity.Source) ([]collect.CandidateItem, error) {
	prompt := strings.TrimSpace(src.Params.Prompt)
	if prompt == "" {
		return nil, fmt.Errorf("source %q: %w", src.Name, entity.ErrMissingPrompt)
	}

	apiKey, found, err := f.config.Lookup(ctx, entity.ConfigAgentQLAPIKey, "")
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", entity.ConfigAgentQLAPIKey, err)
	}
	if !found || apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	return circuitbreaker.Do(f.breakers.Get(breakerKey(src)), func() ([]collect.CandidateItem, error) {
		body, err := f.query(ctx, apiKey, queryRequest{URL: src.URL, Prompt: prompt})
		if err != nil {
			return nil, err
		}
		return parseQueryURLs(body, src.Name, f.now())
	})
}

func (f *RenderedFetcher) query(ctx context.Context, apiKey string, payload queryRequest) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-API-Key", apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// parseQueryURLs reads {"data": {<key>: [<url>...]}} and keeps the list
// under the first key in document order.
func parseQueryURLs(body []byte, sourceName string, now time.Time) ([]collect.CandidateItem, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}

	var urls gjson.Result
	gjson.GetBytes(body, "data").ForEach(func(_, value gjson.Result) bool {
		urls = value
		return false
	})

	var items []collect.CandidateItem
	urls.ForEach(func(_, u gjson.Result) bool {
		items = append(items, collect.CandidateItem{
			Title:       "Article from " + sourceName,
			URL:         u.String(),
			PublishedAt: now,
		})
		return true
	})
	return items, nil
}
