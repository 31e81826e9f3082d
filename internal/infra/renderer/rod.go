package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// requestIdle is how long the network must stay quiet before the page counts as settled.
const requestIdle = 500 * time.Millisecond

// Rod renders pages in headless Chrome with the stealth patches applied.
// The browser is started on first use and shared by later calls.
type Rod struct {
	cfg Config

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

func NewRod(cfg Config) *Rod {
	return &Rod{cfg: cfg}
}

// Render navigates to pageURL, waits for network quiescence and, when
// configured, for the content selector, then returns the document HTML.
func (r *Rod) Render(ctx context.Context, pageURL string) (string, error) {
	if err := validateURL(pageURL, r.cfg.DenyPrivateIPs); err != nil {
		return "", err
	}

	b, err := r.connect()
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(b)
	if err != nil {
		r.reset()
		return "", fmt.Errorf("rod: create tab: %w", err)
	}
	defer func() { _ = page.Close() }()

	renderCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	p := page.Context(renderCtx)

	waitIdle := p.WaitRequestIdle(requestIdle, nil, nil, nil)
	if err := p.Navigate(pageURL); err != nil {
		return "", r.wrapCtxErr(renderCtx, fmt.Errorf("rod: navigate %s: %w", pageURL, err))
	}
	waitIdle()

	if r.cfg.WaitSelector != "" && r.cfg.SelectorWait > 0 {
		if _, err := p.Timeout(r.cfg.SelectorWait).Element(r.cfg.WaitSelector); err != nil {
			slog.Debug("content selector not found, using current DOM",
				slog.String("url", pageURL),
				slog.String("selector", r.cfg.WaitSelector))
		}
	}

	html, err := p.HTML()
	if err != nil {
		return "", r.wrapCtxErr(renderCtx, fmt.Errorf("rod: read DOM: %w", err))
	}
	return html, nil
}

func (r *Rod) wrapCtxErr(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (r *Rod) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	var wsURL string
	switch {
	case strings.HasPrefix(r.cfg.BrowserURL, "ws://"), strings.HasPrefix(r.cfg.BrowserURL, "wss://"):
		wsURL = r.cfg.BrowserURL
	case r.cfg.BrowserURL != "":
		u, err := launcher.ResolveURL(r.cfg.BrowserURL)
		if err != nil {
			return nil, fmt.Errorf("rod: resolve %s: %w", r.cfg.BrowserURL, err)
		}
		wsURL = u
	default:
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("rod: launch: %w", err)
		}
		wsURL = u
		r.lnch = l
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		r.killLauncher()
		return nil, fmt.Errorf("rod: connect: %w", err)
	}
	r.browser = b
	slog.Info("headless browser connected", slog.Bool("remote", r.cfg.BrowserURL != ""))
	return b, nil
}

// reset drops a browser that stopped answering so the next call reconnects.
func (r *Rod) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil && r.cfg.BrowserURL == "" {
		_ = r.browser.Close()
	}
	r.browser = nil
	r.killLauncher()
}

func (r *Rod) killLauncher() {
	if r.lnch != nil {
		r.lnch.Kill()
		r.lnch = nil
	}
}

// Close stops a browser this renderer launched. A remote browser is left running.
func (r *Rod) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil && r.cfg.BrowserURL == "" {
		err = r.browser.Close()
	}
	r.browser = nil
	r.killLauncher()
	return err
}
