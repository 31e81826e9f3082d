package collect_test

import (
	"context"
	"sync"
	"time"

	"isdnews/internal/domain/entity"
	"isdnews/internal/usecase/collect"
)

/* ───────── スタブ実装 ───────── */

type stubSourceRepo struct {
	mu      sync.Mutex
	sources []*entity.Source
	listErr error
	touched map[int64]time.Time
}

func (s *stubSourceRepo) Get(_ context.Context, id int64) (*entity.Source, error) {
	for _, src := range s.sources {
		if src.ID == id {
			return src, nil
		}
	}
	return nil, nil
}

func (s *stubSourceRepo) GetByName(_ context.Context, _ string) (*entity.Source, error) {
	return nil, nil
}

func (s *stubSourceRepo) ListActive(_ context.Context, teamCode string) ([]*entity.Source, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*entity.Source
	for _, src := range s.sources {
		if src.Active && (teamCode == "" || src.TeamCode == teamCode) {
			out = append(out, src)
		}
	}
	return out, nil
}

func (s *stubSourceRepo) Create(_ context.Context, _ *entity.Source) error { return nil }
func (s *stubSourceRepo) Update(_ context.Context, _ *entity.Source) error { return nil }

func (s *stubSourceRepo) TouchFetchedAt(_ context.Context, id int64, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.touched == nil {
		s.touched = make(map[int64]time.Time)
	}
	s.touched[id] = t
	return nil
}

// memArticleRepo keeps articles keyed by URL, like the unique index does.
type memArticleRepo struct {
	mu        sync.Mutex
	byURL     map[string]*entity.Article
	existsErr error
	failOn    string
}

func newMemArticleRepo() *memArticleRepo {
	return &memArticleRepo{byURL: make(map[string]*entity.Article)}
}

func (m *memArticleRepo) Get(_ context.Context, _ int64) (*entity.Article, error) {
	return nil, nil
}

func (m *memArticleRepo) ExistsByURLBatch(_ context.Context, urls []string) (map[string]bool, error) {
	if m.existsErr != nil {
		return nil, m.existsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool, len(urls))
	for _, u := range urls {
		if _, ok := m.byURL[u]; ok {
			out[u] = true
		}
	}
	return out, nil
}

func (m *memArticleRepo) CreateIfAbsent(_ context.Context, a *entity.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.URL == m.failOn {
		return false, context.DeadlineExceeded
	}
	if _, ok := m.byURL[a.URL]; ok {
		return false, nil
	}
	a.ID = int64(len(m.byURL) + 1)
	m.byURL[a.URL] = a
	return true, nil
}

func (m *memArticleRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byURL)
}

type stubFetchLogRepo struct {
	mu   sync.Mutex
	logs []*entity.FetchLog
}

func (s *stubFetchLogRepo) Create(_ context.Context, log *entity.FetchLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

func (s *stubFetchLogRepo) ListBySource(_ context.Context, sourceID int64, _ int) ([]*entity.FetchLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.FetchLog
	for _, l := range s.logs {
		if l.SourceID == sourceID {
			out = append(out, l)
		}
	}
	return out, nil
}

type stubFetcher struct {
	items []collect.CandidateItem
	err   error
	calls int
	mu    sync.Mutex
}

func (f *stubFetcher) Fetch(_ context.Context, _ *entity.Source) ([]collect.CandidateItem, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.items, f.err
}

// kindSelector serves a fixed fetcher per kind and rejects the rest.
type kindSelector map[entity.SourceKind]collect.Fetcher

func (k kindSelector) Select(kind entity.SourceKind) (collect.Fetcher, error) {
	if f, ok := k[kind]; ok {
		return f, nil
	}
	return nil, entity.ErrUnsupportedSourceKind
}

func items(urls ...string) []collect.CandidateItem {
	out := make([]collect.CandidateItem, len(urls))
	for i, u := range urls {
		out[i] = collect.CandidateItem{
			Title:       "title " + u,
			URL:         u,
			PublishedAt: time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		}
	}
	return out
}
