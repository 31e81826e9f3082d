// Package extractor pulls the readable text and a thumbnail out of an
// article page. Failures never propagate: the caller gets an empty Detail.
package extractor

import (
	"context"
	"html"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"isdnews/internal/observability/metrics"
	"isdnews/internal/pkg/secret"
	"isdnews/internal/utils/text"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer returns the HTML of a page.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// Detail is the extracted body of an article page.
type Detail struct {
	Content   string
	Thumbnail string
}

// Empty reports whether extraction produced nothing usable.
func (d Detail) Empty() bool {
	return d.Content == ""
}

// mainSelectors are tried in order; the first match is the content region.
var mainSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".post-content",
	".entry-content",
	".article-content",
	".content",
	"#content",
}

type Config struct {
	MaxChars int           // content is cut at this many runes
	MinChars int           // shorter content yields an empty Detail
	Timeout  time.Duration // bound on one Extract call
}

func DefaultConfig() Config {
	return Config{
		MaxChars: 4000,
		MinChars: 300,
		Timeout:  45 * time.Second,
	}
}

type Extractor struct {
	renderer Renderer
	cfg      Config
	policy   *bluemonday.Policy
}

// New returns an extractor rendering pages through r. Zero fields of cfg
// take their defaults.
func New(r Renderer, cfg Config) *Extractor {
	def := DefaultConfig()
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = def.MaxChars
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = def.MinChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Extractor{
		renderer: r,
		cfg:      cfg,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Extract renders pageURL and returns its content and thumbnail, or an
// empty Detail on any failure.
func (e *Extractor) Extract(ctx context.Context, pageURL string) Detail {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	logger := slog.Default().With(slog.String("url", pageURL))

	page, err := e.renderer.Render(ctx, pageURL)
	if err != nil {
		logger.Warn("render failed", slog.String("error", secret.MaskError(err)))
		metrics.RecordExtraction(false)
		return Detail{}
	}

	d, err := e.parse(pageURL, page)
	if err != nil {
		logger.Warn("html parse failed", slog.Any("error", err))
		metrics.RecordExtraction(false)
		return Detail{}
	}
	if d.Empty() {
		logger.Info("extracted content below minimum length",
			slog.Int("min_chars", e.cfg.MinChars))
	}
	metrics.RecordExtraction(!d.Empty())
	return d
}

func (e *Extractor) parse(pageURL, page string) (Detail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Detail{}, err
	}

	title := e.clean(doc.Find("title").First().Text())
	desc, _ := doc.Find(`meta[name="description"]`).Attr("content")
	if strings.TrimSpace(desc) == "" {
		desc, _ = doc.Find(`meta[property="og:description"]`).Attr("content")
	}
	desc = e.clean(desc)

	region := mainRegion(doc)
	var paragraphs []string
	region.Find("p").Each(func(_ int, p *goquery.Selection) {
		if t := e.clean(p.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})

	var parts []string
	for _, part := range []string{title, desc, strings.Join(paragraphs, "\n")} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	content := text.TruncateRunes(strings.Join(parts, "\n\n"), e.cfg.MaxChars)
	if text.CountRunes(content) < e.cfg.MinChars {
		return Detail{}, nil
	}

	return Detail{
		Content:   content,
		Thumbnail: thumbnail(doc, region, pageURL),
	}, nil
}

// clean strips any markup and collapses surrounding whitespace.
func (e *Extractor) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(e.policy.Sanitize(s)))
}

func mainRegion(doc *goquery.Document) *goquery.Selection {
	for _, sel := range mainSelectors {
		if region := doc.Find(sel).First(); region.Length() > 0 {
			return region
		}
	}
	return doc.Selection
}

// thumbnail prefers og:image, then the first image of the region, then of the page.
func thumbnail(doc *goquery.Document, region *goquery.Selection, pageURL string) string {
	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return resolve(pageURL, og)
	}
	if src, ok := region.Find("img[src]").First().Attr("src"); ok && src != "" {
		return resolve(pageURL, src)
	}
	if src, ok := doc.Find("img[src]").First().Attr("src"); ok && src != "" {
		return resolve(pageURL, src)
	}
	return ""
}

func resolve(pageURL, ref string) string {
	ref = strings.TrimSpace(ref)
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
