// Package renderer turns a page URL into its HTML. Rod drives headless
// Chrome for script-built pages; HTTP is a plain fetch for environments
// without a browser.
package renderer

import "errors"

var (
	// ErrInvalidURL indicates the URL format is invalid or uses an unsupported scheme.
	// Only http:// and https:// are rendered.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a loopback, private or
	// link-local address.
	ErrPrivateIP = errors.New("private IP access denied (SSRF prevention)")

	ErrTooManyRedirects = errors.New("too many redirects")

	ErrBodyTooLarge = errors.New("response body too large")

	ErrTimeout = errors.New("render timeout")
)
