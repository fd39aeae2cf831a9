package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
)

const (
	defaultNavigationTimeout = 60 * time.Second
	defaultSelectorTimeout   = 10 * time.Second
)

// Options tune both loaders.
type Options struct {
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	UserAgent         string
	Headless          bool
}

func (o Options) withDefaults() Options {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = defaultNavigationTimeout
	}
	if o.SelectorTimeout <= 0 {
		o.SelectorTimeout = defaultSelectorTimeout
	}
	return o
}

// ChromeLoader renders pages in headless Chrome. Every Load starts its own
// browser and tears it down before returning.
type ChromeLoader struct {
	opts   Options
	logger *slog.Logger
}

var _ ports.PageLoader = (*ChromeLoader)(nil)

// NewChromeLoader prepares a loader; no browser runs until Load.
func NewChromeLoader(opts Options, logger *slog.Logger) *ChromeLoader {
	return &ChromeLoader{opts: opts.withDefaults(), logger: logger}
}

func (l *ChromeLoader) allocatorOptions() []chromedp.ExecAllocatorOption {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !l.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if l.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(l.opts.UserAgent))
	}
	return allocOpts
}

// Load navigates to pageURL, optionally waits for waitSelector and returns the rendered HTML.
func (l *ChromeLoader) Load(ctx context.Context, pageURL, waitSelector string) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, l.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// The first Run starts the browser; it must not carry a deadline or the
	// browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		return "", fmt.Errorf("start browser: %w", err)
	}

	navCtx, cancelNav := context.WithTimeout(browserCtx, l.opts.NavigationTimeout)
	defer cancelNav()
	if err := chromedp.Run(navCtx, chromedp.Navigate(pageURL)); err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("navigate %s: %w", pageURL, context.DeadlineExceeded)
		}
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	if waitSelector != "" {
		waitCtx, cancelWait := context.WithTimeout(browserCtx, l.opts.SelectorTimeout)
		defer cancelWait()
		if err := chromedp.Run(waitCtx, chromedp.WaitReady(waitSelector, chromedp.ByQuery)); err != nil {
			if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("wait for %q on %s: %w", waitSelector, pageURL, domain.ErrElementNotFound)
			}
			return "", fmt.Errorf("wait for %q on %s: %w", waitSelector, pageURL, err)
		}
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document %s: %w", pageURL, err)
	}

	if l.logger != nil {
		l.logger.Debug("page rendered", "url", pageURL, "bytes", len(html))
	}
	return html, nil
}
