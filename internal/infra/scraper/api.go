package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"isdnews/internal/domain/entity"
	"isdnews/internal/resilience/circuitbreaker"
	"isdnews/internal/resilience/retry"
	"isdnews/internal/usecase/collect"

	"github.com/tidwall/gjson"
)

// itemListKeys are tried in order; the first array found holds the items.
var itemListKeys = []string{"items", "articles", "data"}

// APIFetcher reads a JSON list endpoint.
type APIFetcher struct {
	client         *http.Client
	breakers       *circuitbreaker.Set
	now            func() time.Time
}

func NewAPIFetcher(client *http.Client) *APIFetcher {
	return &APIFetcher{
		client:         client,
		breakers:       circuitbreaker.NewSet(circuitbreaker.APIFetchConfig()),
		now:            time.Now,
	}
}

// Fetch GETs src.URL with the source's headers and query parameters.
func (f *APIFetcher) Fetch(ctx context.Context, src *entity.Source) ([]collect.CandidateItem, error) {
	return circuitbreaker.Do(f.breakers.Get(breakerKey(src)), func() ([]collect.CandidateItem, error) {
		body, err := f.get(ctx, src)
		if err != nil {
			return nil, err
		}
		return parseAPIItems(body, f.now())
	})
}

func (f *APIFetcher) get(ctx context.Context, src *entity.Source) ([]byte, error) {
	u, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(src.Params.QueryParams) > 0 {
		q := u.Query()
		for k, v := range src.Params.QueryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range src.Params.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &retry.HTTPError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

func parseAPIItems(body []byte, now time.Time) ([]collect.CandidateItem, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}

	var list gjson.Result
	for _, key := range itemListKeys {
		if r := gjson.GetBytes(body, key); r.IsArray() {
			list = r
			break
		}
	}

	var items []collect.CandidateItem
	list.ForEach(func(_, item gjson.Result) bool {
		items = append(items, collect.CandidateItem{
			Title:       item.Get("title").String(),
			URL:         firstString(item, "url", "link"),
			PublishedAt: parseDate(firstString(item, "published_at", "pubDate"), now),
			Summary:     firstString(item, "summary", "description"),
		})
		return true
	})
	return items, nil
}

// firstString returns the first present field among keys, or "".
func firstString(item gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() {
			return v.String()
		}
	}
	return ""
}
