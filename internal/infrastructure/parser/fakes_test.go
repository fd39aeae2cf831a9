package parser

import (
	"context"
	"strings"
	"sync"

	"DailyDigest/internal/ports"
)

type fakeLoader struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeLoader) Load(_ context.Context, pageURL, _ string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pageURL)
	f.mu.Unlock()

	for prefix, err := range f.errs {
		if strings.HasPrefix(pageURL, prefix) {
			return "", err
		}
	}
	for prefix, html := range f.pages {
		if strings.HasPrefix(pageURL, prefix) {
			return html, nil
		}
	}
	return "<html><body></body></html>", nil
}

type fakeFeed struct {
	entries map[string][]ports.FeedEntry
	err     error
}

func (f fakeFeed) Parse(_ context.Context, feedURL string) ([]ports.FeedEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[feedURL], nil
}
