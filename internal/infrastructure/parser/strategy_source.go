package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"DailyDigest/internal/config"
	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
	"DailyDigest/internal/scanner"
)

// Loaders bundles the collaborators that scanners fetch through.
type Loaders struct {
	Chrome ports.PageLoader
	Static ports.PageLoader
	Feed   ports.FeedParser
}

// StrategySource turns config-defined sites into registered scanner strategies
// and runs them as the fetch phase.
type StrategySource struct {
	registry    *scanner.Registry
	sites       []config.SiteConfig
	loaders     Loaders
	concurrency int
	feedTimeout time.Duration
	logger      *slog.Logger
}

// NewStrategySource registers one scanner per configured site, in config order.
// Site names must be unique.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, loaders Loaders, concurrency int, feedTimeout time.Duration, log *slog.Logger) (*StrategySource, error) {
	if reg == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	s := &StrategySource{
		registry:    reg,
		sites:       sites,
		loaders:     loaders,
		concurrency: concurrency,
		feedTimeout: feedTimeout,
		logger:      log,
	}
	names := make(map[string]struct{}, len(sites))
	for _, site := range sites {
		if _, dup := names[site.Name]; dup {
			return nil, fmt.Errorf("site %s: duplicate source name", site.Name)
		}
		names[site.Name] = struct{}{}
		sc, err := s.build(site, domain.ParseKind(site.Kind))
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}
		reg.Register(sc)
	}
	return s, nil
}

// FetchAll runs every registered scanner; outcomes come back news first, then papers.
func (s *StrategySource) FetchAll(ctx context.Context) []scanner.Outcome {
	s.debug("fetch all", "sites", s.registry.Len())

	outcomes := s.registry.Run(ctx, s.concurrency)
	for _, o := range outcomes {
		s.debug("site produced items", "site", o.Source, "count", len(o.Items), "failures", len(o.Failures))
	}
	return outcomes
}

func (s *StrategySource) build(site config.SiteConfig, kind domain.Kind) (scanner.Scanner, error) {
	switch strings.ToLower(site.Scanner) {
	case "newssite", "":
		loader, err := s.pageLoader(site.Loader)
		if err != nil {
			return nil, err
		}
		return NewNewsSiteScanner(NewsSiteConfig{
			Name:          site.Name,
			Kind:          kind,
			URL:           site.URL,
			BaseURL:       site.BaseURL,
			ItemSelector:  site.ItemSelector,
			TitleSelector: site.TitleSelector,
			LinkSelector:  site.LinkSelector,
			WaitSelector:  site.WaitSelector,
			Keywords:      site.Keywords,
			MaxItems:      site.MaxItems,
		}, loader, s.logger), nil
	case "feed":
		if s.loaders.Feed == nil {
			return nil, fmt.Errorf("feed parser is not configured")
		}
		return NewFeedScanner(FeedConfig{
			Name:     site.Name,
			Kind:     kind,
			URL:      site.URL,
			MaxItems: site.MaxItems,
			Timeout:  s.feedTimeout,
		}, s.loaders.Feed, s.logger), nil
	case "arxiv":
		loader := s.loaders.Static
		if site.Loader != "" {
			var err error
			if loader, err = s.pageLoader(site.Loader); err != nil {
				return nil, err
			}
		}
		if loader == nil {
			return nil, fmt.Errorf("static page loader is not configured")
		}
		return NewArxivScanner(ArxivConfig{
			Name:       site.Name,
			Categories: toCategories(site.Categories),
			MaxItems:   site.MaxItems,
		}, loader, s.logger), nil
	case "journal":
		subs := make([]scanner.Scanner, 0, len(site.Sources))
		for _, sub := range site.Sources {
			sc, err := s.build(sub, kind)
			if err != nil {
				return nil, fmt.Errorf("sub-source %s: %w", sub.Name, err)
			}
			subs = append(subs, sc)
		}
		return NewJournalScanner(site.Name, kind, subs, s.logger), nil
	default:
		return nil, fmt.Errorf("unknown scanner %q", site.Scanner)
	}
}

func (s *StrategySource) pageLoader(name string) (ports.PageLoader, error) {
	switch strings.ToLower(name) {
	case "chrome", "browser", "":
		if s.loaders.Chrome == nil {
			return nil, fmt.Errorf("browser page loader is not configured")
		}
		return s.loaders.Chrome, nil
	case "static", "http":
		if s.loaders.Static == nil {
			return nil, fmt.Errorf("static page loader is not configured")
		}
		return s.loaders.Static, nil
	default:
		return nil, fmt.Errorf("unknown loader %q", name)
	}
}

func toCategories(cfg []config.CategoryConfig) []Category {
	categories := make([]Category, 0, len(cfg))
	for _, cat := range cfg {
		categories = append(categories, Category{
			Name: cat.Name,
			URL:  cat.URL,
		})
	}
	return categories
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
