package scraper

import "errors"

var (
	// ErrMissingAPIKey is returned when the query service key is not configured.
	ErrMissingAPIKey = errors.New("query service API key not configured")

	// ErrInvalidJSON indicates a response body that is not JSON.
	ErrInvalidJSON = errors.New("response is not valid JSON")
)

// maxBodySize bounds every response body read by the fetchers.
const maxBodySize = 10 * 1024 * 1024

const userAgent = "isdnewsBot/1.0"
