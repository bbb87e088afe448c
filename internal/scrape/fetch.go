package scrape

import (
	"context"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/bmedia/gearsync/internal/transport"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/logging"
)

// Fetcher returns the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// BrowserFetcher renders the page in headless Chromium. The link page builds
// its sections client-side, so a plain GET sees none of the products.
type BrowserFetcher struct {
	// Bin is the browser executable. Empty lets the launcher find or
	// download one.
	Bin string

	// Headless controls whether a window is shown.
	Headless bool

	// Settle is how long scripts may run before the page is scrolled.
	Settle time.Duration

	// ScrollPause follows each scroll so lazy images get their src.
	ScrollPause time.Duration

	// Timeout bounds the whole render.
	Timeout time.Duration

	UserAgent string
}

// NewBrowserFetcher returns a BrowserFetcher with the default timings.
func NewBrowserFetcher() *BrowserFetcher {
	return &BrowserFetcher{
		Headless:    true,
		Settle:      constants.DefaultSettleDelay,
		ScrollPause: constants.ScrollPause,
		Timeout:     constants.DefaultRenderTimeout,
		UserAgent:   constants.UserAgent,
	}
}

// Fetch implements Fetcher.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	logger := logging.FromContext(ctx)

	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	l := launcher.New().
		Context(ctx).
		Headless(b.Headless).
		NoSandbox(true).
		Leakless(false).
		Set("window-size", "1920,1080").
		Set("disable-dev-shm-usage").
		Set("disable-gpu")
	if b.Bin != "" {
		if _, err := os.Stat(b.Bin); err != nil {
			return "", errors.NewSourceError(url, "launch", &errors.DependencyError{
				Dependency: b.Bin,
				Message:    "browser executable not found",
			})
		}
		l = l.Bin(b.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return "", errors.NewSourceError(url, "launch", err)
	}
	defer l.Kill()
	logger.Debug().Str("control_url", controlURL).Msg("Browser launched")

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", errors.NewSourceError(url, "launch", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", errors.NewSourceError(url, "navigate", err)
	}
	defer func() { _ = page.Close() }()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             constants.ViewportWidth,
		Height:            constants.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return "", errors.NewSourceError(url, "navigate", err)
	}
	if b.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.UserAgent}); err != nil {
			return "", errors.NewSourceError(url, "navigate", err)
		}
	}

	logger.Info().Str("url", url).Msg("Rendering link page")
	if err := page.Navigate(url); err != nil {
		return "", errors.NewSourceError(url, "navigate", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", errors.NewSourceError(url, "render", err)
	}

	if err := sleep(ctx, b.Settle); err != nil {
		return "", errors.NewSourceError(url, "render", err)
	}
	for _, js := range []string{
		`() => window.scrollTo(0, document.body.scrollHeight)`,
		`() => window.scrollTo(0, 0)`,
	} {
		if _, err := page.Eval(js); err != nil {
			return "", errors.NewSourceError(url, "render", err)
		}
		if err := sleep(ctx, b.ScrollPause); err != nil {
			return "", errors.NewSourceError(url, "render", err)
		}
	}
	if err := page.WaitStable(time.Second); err != nil {
		logger.Debug().Err(err).Msg("Page did not settle, using current DOM")
	}

	html, err := page.HTML()
	if err != nil {
		return "", errors.NewSourceError(url, "render", err)
	}
	return html, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// HTTPFetcher downloads the page without rendering it. It suits
// server-rendered mirrors of the link page and tests.
type HTTPFetcher struct {
	Client *transport.Client
}

// Fetch implements Fetcher.
func (h *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	client := h.Client
	if client == nil {
		client = transport.New()
	}
	resp, err := client.Get(ctx, url)
	if err != nil {
		return "", errors.NewSourceError(url, "fetch", err)
	}
	body, err := transport.ReadBody(resp, constants.MaxPageBytes)
	if err != nil {
		return "", errors.NewSourceError(url, "fetch", err)
	}
	return string(body), nil
}

// FileFetcher reads a saved copy of the page, ignoring the URL.
type FileFetcher struct {
	Path string
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(_ context.Context, url string) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", errors.NewSourceError(url, "fetch", errors.WrapIO("read", f.Path, err))
	}
	return string(data), nil
}
