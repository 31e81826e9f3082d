package collect_test

import (
	"context"
	"errors"
	"testing"

	"isdnews/internal/domain/entity"
	"isdnews/internal/usecase/collect"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupGate_IsIdempotent(t *testing.T) {
	repo := newMemArticleRepo()
	gate := collect.NewDedupGate(repo, 5)
	src := &entity.Source{ID: 7}
	candidates := items("https://a.example/1", "https://a.example/2", "https://a.example/3")

	created, err := gate.Persist(context.Background(), src, candidates)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = gate.Persist(context.Background(), src, candidates)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 3, repo.count())
}

func TestDedupGate_CapsNewArticlesInFetchOrder(t *testing.T) {
	repo := newMemArticleRepo()
	gate := collect.NewDedupGate(repo, 2)

	created, err := gate.Persist(context.Background(), &entity.Source{ID: 1},
		items("https://x/1", "https://x/2", "https://x/3"))
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	_, first := repo.byURL["https://x/1"]
	_, third := repo.byURL["https://x/3"]
	assert.True(t, first)
	assert.False(t, third)
}

func TestDedupGate_SkipsKnownAndBlankURLs(t *testing.T) {
	repo := newMemArticleRepo()
	repo.byURL["https://x/known"] = &entity.Article{URL: "https://x/known"}
	gate := collect.NewDedupGate(repo, 0)

	candidates := items("https://x/known", "", "  ", "https://x/new", "https://x/new")
	created, err := gate.Persist(context.Background(), &entity.Source{ID: 1}, candidates)

	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, collect.DefaultMaxNewPerRun, gate.MaxNewPerRun)
	assert.Equal(t, int64(1), repo.byURL["https://x/new"].SourceID)
}

func TestDedupGate_ReportsCountWithError(t *testing.T) {
	repo := newMemArticleRepo()
	repo.failOn = "https://x/2"
	gate := collect.NewDedupGate(repo, 5)

	created, err := gate.Persist(context.Background(), &entity.Source{ID: 1},
		items("https://x/1", "https://x/2", "https://x/3"))

	assert.Error(t, err)
	assert.Equal(t, 1, created)
}

func TestDedupGate_ExistsCheckFails(t *testing.T) {
	repo := newMemArticleRepo()
	repo.existsErr = errors.New("db down")
	gate := collect.NewDedupGate(repo, 5)

	created, err := gate.Persist(context.Background(), &entity.Source{ID: 1}, items("https://x/1"))

	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, 0, created)
}
