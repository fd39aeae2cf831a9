package parser

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
	"DailyDigest/internal/scanner"
)

const defaultFeedTimeout = 30 * time.Second

// FeedConfig describes a syndication source.
type FeedConfig struct {
	Name     string
	Kind     domain.Kind
	URL      string
	MaxItems int
	Timeout  time.Duration
}

// FeedScanner maps the first MaxItems feed entries to items.
type FeedScanner struct {
	cfg    FeedConfig
	parser ports.FeedParser
	logger *slog.Logger
}

var _ scanner.Scanner = (*FeedScanner)(nil)

// NewFeedScanner wires a feed parser with source settings.
func NewFeedScanner(cfg FeedConfig, parser ports.FeedParser, logger *slog.Logger) *FeedScanner {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMaxItems
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFeedTimeout
	}
	if cfg.Kind == "" {
		cfg.Kind = domain.KindPaper
	}
	return &FeedScanner{cfg: cfg, parser: parser, logger: logger}
}

// Name identifies the source.
func (s *FeedScanner) Name() string { return s.cfg.Name }

// Kind reports the kind of items produced.
func (s *FeedScanner) Kind() domain.Kind { return s.cfg.Kind }

// Scan parses the feed; any parse or transport failure yields zero items.
func (s *FeedScanner) Scan(ctx context.Context) scanner.Outcome {
	if s.parser == nil {
		return scanner.Fail(s.cfg.Name, s.cfg.Kind, domain.FetchParse, errors.New("feed parser is not configured"))
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	entries, err := s.parser.Parse(ctx, s.cfg.URL)
	if err != nil {
		kind := domain.FetchParse
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.FetchTimeout
		}
		return scanner.Fail(s.cfg.Name, s.cfg.Kind, kind, err)
	}

	items := make([]domain.Item, 0, s.cfg.MaxItems)
	for _, entry := range entries {
		if len(items) >= s.cfg.MaxItems {
			break
		}
		item := domain.Item{
			Source: s.cfg.Name,
			Title:  collapseSpace(entry.Title),
			URL:    strings.TrimSpace(entry.Link),
			Kind:   s.cfg.Kind,
		}
		if err := item.Validate(); err != nil {
			if s.logger != nil {
				s.logger.Debug("skip feed entry", "source", s.cfg.Name, "error", err)
			}
			continue
		}
		items = append(items, item)
	}

	return scanner.Outcome{Source: s.cfg.Name, Kind: s.cfg.Kind, Items: items}
}
