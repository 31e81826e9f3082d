package enrich

import (
	"context"
	"sort"
	"sync"

	"isdnews/internal/domain/entity"
	"isdnews/internal/infra/extractor"
	"isdnews/internal/repository"
)

// memStore keeps committed state and hands each transaction a staged copy.
type memStore struct {
	mu       sync.Mutex
	cursor   string
	articles map[int64]*entity.Article
	owners   map[int64]string // source id -> team code
	txErr    error            // returned by every transaction method when set

	// concurrentEnrich makes MarkEnriched behave as if another worker won.
	concurrentEnrich bool
}

func newMemStore() *memStore {
	return &memStore{articles: map[int64]*entity.Article{}, owners: map[int64]string{}}
}

func (m *memStore) add(a entity.Article, team string) {
	m.articles[a.ID] = &a
	m.owners[a.SourceID] = team
}

func (m *memStore) article(id int64) entity.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.articles[id]
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx repository.EnrichmentTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{store: m, cursor: m.cursor, articles: map[int64]entity.Article{}}
	for id, a := range m.articles {
		tx.articles[id] = *a
	}
	if err := fn(tx); err != nil {
		return err
	}
	m.cursor = tx.cursor
	for id, a := range tx.articles {
		a := a
		m.articles[id] = &a
	}
	return nil
}

type memTx struct {
	store    *memStore
	cursor   string
	articles map[int64]entity.Article
}

func (t *memTx) LockCursor(context.Context) (string, error) {
	return t.cursor, t.store.txErr
}

func (t *memTx) NextUnenriched(_ context.Context, team string, maxAttempts int) (*entity.Article, error) {
	if t.store.txErr != nil {
		return nil, t.store.txErr
	}
	var pool []entity.Article
	for _, a := range t.articles {
		if a.Enriched || a.EnrichAttempts >= maxAttempts {
			continue
		}
		if team != "" && t.store.owners[a.SourceID] != team {
			continue
		}
		pool = append(pool, a)
	}
	if len(pool) == 0 {
		return nil, nil
	}
	sort.Slice(pool, func(i, j int) bool {
		if !pool[i].PublishedAt.Equal(pool[j].PublishedAt) {
			return pool[i].PublishedAt.Before(pool[j].PublishedAt)
		}
		return pool[i].ID < pool[j].ID
	})
	a := pool[0]
	return &a, nil
}

func (t *memTx) MarkEnriched(_ context.Context, id int64, e entity.Enrichment) (bool, error) {
	a := t.articles[id]
	if a.Enriched || t.store.concurrentEnrich {
		return false, nil
	}
	a.Content, a.Thumbnail, a.AIContent, a.AITeam, a.Enriched = e.Content, e.Thumbnail, e.AIContent, e.TeamCode, true
	t.articles[id] = a
	return true, nil
}

func (t *memTx) SetCursor(_ context.Context, team string) error {
	t.cursor = team
	return nil
}

func (t *memTx) IncrementAttempts(_ context.Context, id int64) error {
	a := t.articles[id]
	a.EnrichAttempts++
	t.articles[id] = a
	return nil
}

type memTeams struct {
	teams []entity.Team
	err   error
}

func (m memTeams) ListActive(context.Context) ([]entity.Team, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []entity.Team
	for _, t := range m.teams {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m memTeams) Get(_ context.Context, code string) (*entity.Team, error) {
	for _, t := range m.teams {
		if t.Code == code {
			t := t
			return &t, nil
		}
	}
	return nil, nil
}

func defaultTeams() memTeams {
	return memTeams{teams: []entity.Team{
		{Code: "dev", Name: "Developer", Active: true, SortOrder: 1},
		{Code: "ba", Name: "Business Analyst", Active: true, SortOrder: 2},
		{Code: "system", Name: "System", Active: true, SortOrder: 3},
	}}
}

// stubExtractor returns the detail registered for a URL, empty otherwise.
type stubExtractor struct {
	mu     sync.Mutex
	pages  map[string]extractor.Detail
	called []string
}

func (s *stubExtractor) Extract(_ context.Context, url string) extractor.Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.called = append(s.called, url)
	return s.pages[url]
}

type stubSummarizer struct {
	calls []string // team codes
}

func (s *stubSummarizer) Summarize(_ context.Context, text, _, team string) string {
	s.calls = append(s.calls, team)
	return "[" + team + "] " + text
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*entity.Notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

// settingsMap is a global-only configuration store.
type settingsMap map[string]string

func (s settingsMap) Lookup(_ context.Context, key, _ string) (string, bool, error) {
	v, ok := s[key]
	return v, ok, nil
}

type failingSettings struct{ err error }

func (f failingSettings) Lookup(context.Context, string, string) (string, bool, error) {
	return "", false, f.err
}
