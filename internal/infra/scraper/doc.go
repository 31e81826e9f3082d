// Package scraper implements the fetchers behind each source kind:
// syndication feeds (gofeed), JSON APIs (gjson) and rendered pages queried
// through an external extraction service.
//
// Every fetcher keeps one circuit breaker per source, so a broken source
// never rejects its siblings. Fetchers never retry; a failed fetch surfaces
// in the FetchLog of the run.
package scraper
