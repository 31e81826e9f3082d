package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

var articleColumnList = []string{
	"id", "source_id", "title", "url", "summary", "published_at", "created_at",
	"content", "thumbnail", "enriched", "ai_team", "ai_content", "enrich_attempts",
}

var articleColumns = strings.Join(articleColumnList, ", ")

func prefixed(prefix string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + c
	}
	return out
}

type ArticleRepo struct{ db *sql.DB }

func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

func scanArticle(r rowScanner) (*entity.Article, error) {
	var a entity.Article
	if err := r.Scan(
		&a.ID, &a.SourceID, &a.Title, &a.URL, &a.Summary, &a.PublishedAt, &a.CreatedAt,
		&a.Content, &a.Thumbnail, &a.Enriched, &a.AITeam, &a.AIContent, &a.EnrichAttempts,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

// ExistsByURLBatch checks all URLs in a single round trip.
func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := psql.Select("url").From("articles").Where(sq.Eq{"url": urls}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: build: %w", err)
	}
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistsByURLBatch: Scan: %w", err)
		}
		result[url] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExistsByURLBatch: rows.Err: %w", err)
	}
	return result, nil
}

func (repo *ArticleRepo) CreateIfAbsent(ctx context.Context, a *entity.Article) (bool, error) {
	const query = `
INSERT INTO articles (source_id, title, url, summary, published_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (url) DO NOTHING
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		a.SourceID, a.Title, a.URL, a.Summary, a.PublishedAt,
	).Scan(&a.ID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("CreateIfAbsent: %w", err)
	}
	return true, nil
}
