package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"ecomap/internal/config"
	"ecomap/internal/logging"
)

// Renderer fetches pages through headless Chrome so that client-rendered
// headers are present in the HTML. It attaches to DebuggerURL when set and
// launches a browser otherwise.
type Renderer struct {
	cfg     config.BrowserConfig
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRenderer returns a Renderer. The browser starts on first use.
func NewRenderer(cfg config.BrowserConfig, navigationTimeout time.Duration, logger *zap.Logger) *Renderer {
	if navigationTimeout <= 0 {
		navigationTimeout = 20 * time.Second
	}
	return &Renderer{cfg: cfg, timeout: navigationTimeout, logger: logging.OrNop(logger)}
}

func (r *Renderer) connect(ctx context.Context) (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if _, err := r.browser.Version(); err == nil {
			return r.browser, nil
		}
		r.logger.Warn("stale browser connection, reconnecting")
		_ = r.browser.Close()
		r.browser = nil
	}

	controlURL := r.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(r.cfg.Headless)
		if r.cfg.Bin != "" {
			l = l.Bin(r.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	// The browser outlives any single request context.
	browser := rod.New().ControlURL(controlURL).Context(context.WithoutCancel(ctx))
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	r.logger.Debug("browser connected", zap.String("control_url", controlURL))
	r.browser = browser
	return browser, nil
}

// Fetch implements PageFetcher.
func (r *Renderer) Fetch(ctx context.Context, pageURL string) (string, error) {
	browser, err := r.connect(ctx)
	if err != nil {
		return "", err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	if err := page.Timeout(r.timeout).WaitLoad(); err != nil {
		return "", fmt.Errorf("load %s: %w", pageURL, err)
	}
	doc, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", pageURL, err)
	}
	return doc, nil
}

// Close shuts the browser down if one was started.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
