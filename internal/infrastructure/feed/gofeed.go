package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"DailyDigest/internal/ports"
)

// GofeedParser reads RSS/Atom/JSON feeds.
type GofeedParser struct {
	feedParser *gofeed.Parser
}

var _ ports.FeedParser = (*GofeedParser)(nil)

// NewGofeedParser creates a parser; a zero timeout keeps the http client default.
func NewGofeedParser(userAgent string, timeout time.Duration) *GofeedParser {
	p := gofeed.NewParser()
	if userAgent != "" {
		p.UserAgent = userAgent
	}
	if timeout > 0 {
		p.Client = &http.Client{Timeout: timeout}
	}
	return &GofeedParser{feedParser: p}
}

// Parse fetches and parses feedURL, returning entries in feed order.
func (p *GofeedParser) Parse(ctx context.Context, feedURL string) ([]ports.FeedEntry, error) {
	feed, err := p.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}
	if feed == nil {
		return nil, fmt.Errorf("feed %s is empty", feedURL)
	}

	entries := make([]ports.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, ports.FeedEntry{
			Title: item.Title,
			Link:  item.Link,
		})
	}
	return entries, nil
}
