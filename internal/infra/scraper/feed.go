package scraper

import (
	"context"
	"net/http"
	"time"

	"isdnews/internal/domain/entity"
	"isdnews/internal/resilience/circuitbreaker"
	"isdnews/internal/usecase/collect"

	"github.com/mmcdole/gofeed"
)

// FeedFetcher reads RSS and Atom documents.
type FeedFetcher struct {
	client         *http.Client
	breakers       *circuitbreaker.Set
	now            func() time.Time
}

func NewFeedFetcher(client *http.Client) *FeedFetcher {
	return &FeedFetcher{
		client:         client,
		breakers:       circuitbreaker.NewSet(circuitbreaker.FeedFetchConfig()),
		now:            time.Now,
	}
}

// Fetch maps every entry of the feed at src.URL to a candidate.
func (f *FeedFetcher) Fetch(ctx context.Context, src *entity.Source) ([]collect.CandidateItem, error) {
	return circuitbreaker.Do(f.breakers.Get(breakerKey(src)), func() ([]collect.CandidateItem, error) {
		return f.doFetch(ctx, src.URL)
	})
}

func (f *FeedFetcher) doFetch(ctx context.Context, feedURL string) ([]collect.CandidateItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	now := f.now()
	items := make([]collect.CandidateItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, collect.CandidateItem{
			Title:       it.Title,
			URL:         it.Link,
			PublishedAt: entryDate(it, now),
			Summary:     it.Description,
		})
	}
	return items, nil
}

// entryDate prefers gofeed's own parse and falls back to the raw strings.
func entryDate(it *gofeed.Item, now time.Time) time.Time {
	if it.PublishedParsed != nil {
		return *it.PublishedParsed
	}
	if it.Published != "" {
		return parseDate(it.Published, now)
	}
	if it.UpdatedParsed != nil {
		return *it.UpdatedParsed
	}
	return now
}
