package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"isdnews/internal/domain/entity"
	"isdnews/internal/repository"
)

var articleColumns = []string{
	"id", "source_id", "title", "url", "summary", "published_at", "created_at",
	"content", "thumbnail", "enriched", "ai_team", "ai_content", "enrich_attempts",
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
	a.PublishedAt = a.PublishedAt.UTC()
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (repo *ArticleRepo) Get(ctx context.Context, id int64) (*entity.Article, error) {
	query, args, err := sqlb.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("Get: build: %w", err)
	}
	a, err := scanArticle(repo.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return a, nil
}

func (repo *ArticleRepo) ExistsByURLBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	result := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return result, nil
	}

	query, args, err := sqlb.Select("url").From("articles").Where(sq.Eq{"url": urls}).ToSql()
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
	created := now()
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO articles (source_id, title, url, summary, published_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (url) DO NOTHING
RETURNING id`,
		a.SourceID, a.Title, a.URL, a.Summary, a.PublishedAt.UTC(), created,
	).Scan(&a.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("CreateIfAbsent: %w", err)
	}
	a.CreatedAt = created
	return true, nil
}
