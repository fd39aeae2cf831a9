package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
)

// StaticLoader fetches server-rendered pages without a browser.
type StaticLoader struct {
	opts   Options
	logger *slog.Logger
}

var _ ports.PageLoader = (*StaticLoader)(nil)

// NewStaticLoader builds a colly-backed loader.
func NewStaticLoader(opts Options, logger *slog.Logger) *StaticLoader {
	return &StaticLoader{opts: opts.withDefaults(), logger: logger}
}

// Load fetches pageURL; when waitSelector is set the document must contain it.
func (l *StaticLoader) Load(ctx context.Context, pageURL, waitSelector string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts := []colly.CollectorOption{}
	if l.opts.UserAgent != "" {
		opts = append(opts, colly.UserAgent(l.opts.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.WithTransport(&contextTransport{ctx: ctx, next: http.DefaultTransport})
	timeout := l.opts.NavigationTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	c.SetRequestTimeout(timeout)

	var (
		body     []byte
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if fetchErr != nil {
		var netErr net.Error
		if errors.As(fetchErr, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("fetch %s: %v: %w", pageURL, fetchErr, context.DeadlineExceeded)
		}
		return "", fmt.Errorf("fetch %s: %w", pageURL, fetchErr)
	}

	html := string(body)
	if waitSelector != "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", pageURL, err)
		}
		if doc.Find(waitSelector).Length() == 0 {
			return "", fmt.Errorf("selector %q on %s: %w", waitSelector, pageURL, domain.ErrElementNotFound)
		}
	}

	if l.logger != nil {
		l.logger.Debug("page fetched", "url", pageURL, "bytes", len(html))
	}
	return html, nil
}

// contextTransport binds every request colly sends to the caller's context,
// since Collector.Visit takes none.
type contextTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}
