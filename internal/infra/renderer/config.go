package renderer

import (
	"fmt"
	"time"
)

// Config holds the settings shared by both renderers.
type Config struct {
	// Timeout bounds one Render call, navigation and waits included.
	Timeout time.Duration

	MaxBodySize  int64
	MaxRedirects int

	// DenyPrivateIPs rejects URLs resolving to internal addresses.
	DenyPrivateIPs bool

	// BrowserURL points Rod at a running Chrome (ws:// or http://host:9222).
	// Empty launches a local headless Chrome.
	BrowserURL string

	// WaitSelector is awaited for up to SelectorWait after the network is idle.
	// A miss is not an error.
	WaitSelector string
	SelectorWait time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		WaitSelector:   "article, main, p",
		SelectorWait:   5 * time.Second,
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	if c.SelectorWait < 0 {
		return fmt.Errorf("selector wait must not be negative, got %v", c.SelectorWait)
	}
	return nil
}
