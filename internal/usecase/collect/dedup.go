package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

// DefaultMaxNewPerRun caps how many new articles one source run may create.
const DefaultMaxNewPerRun = 5

// DedupGate filters candidates down to unseen URLs and persists them.
type DedupGate struct {
	Articles     repository.ArticleRepository
	MaxNewPerRun int
}

// NewDedupGate returns a gate creating at most maxNew articles per call.
// A non-positive maxNew selects DefaultMaxNewPerRun.
func NewDedupGate(articles repository.ArticleRepository, maxNew int) *DedupGate {
	if maxNew <= 0 {
		maxNew = DefaultMaxNewPerRun
	}
	return &DedupGate{Articles: articles, MaxNewPerRun: maxNew}
}

// Persist inserts the unseen candidates of src and returns how many rows it
// created. On an insert error after earlier inserts, both the count so far
// and the error are returned.
func (g *DedupGate) Persist(ctx context.Context, src *entity.Source, items []CandidateItem) (int, error) {
	fresh := uniqueByURL(items)
	if len(fresh) == 0 {
		return 0, nil
	}

	urls := make([]string, len(fresh))
	for i, it := range fresh {
		urls[i] = it.URL
	}
	existing, err := g.Articles.ExistsByURLBatch(ctx, urls)
	if err != nil {
		return 0, fmt.Errorf("Persist: check existing urls: %w", err)
	}

	pending := make([]CandidateItem, 0, g.MaxNewPerRun)
	for _, it := range fresh {
		if len(pending) == g.MaxNewPerRun {
			break
		}
		if !existing[it.URL] {
			pending = append(pending, it)
		}
	}

	created := 0
	for _, it := range pending {
		article := &entity.Article{
			SourceID:    src.ID,
			Title:       it.Title,
			URL:         it.URL,
			Summary:     it.Summary,
			PublishedAt: it.PublishedAt,
		}
		if article.PublishedAt.IsZero() {
			article.PublishedAt = time.Now()
		}

		// A conflict means another run stored the URL in between.
		ok, err := g.Articles.CreateIfAbsent(ctx, article)
		if err != nil {
			return created, fmt.Errorf("Persist: create %s: %w", it.URL, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// uniqueByURL drops empty URLs and repeats, keeping fetch order.
func uniqueByURL(items []CandidateItem) []CandidateItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]CandidateItem, 0, len(items))
	for _, it := range items {
		it.URL = strings.TrimSpace(it.URL)
		if it.URL == "" {
			continue
		}
		if _, dup := seen[it.URL]; dup {
			continue
		}
		seen[it.URL] = struct{}{}
		out = append(out, it)
	}
	return out
}
