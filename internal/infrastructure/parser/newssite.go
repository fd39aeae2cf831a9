package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
	"DailyDigest/internal/scanner"
)

const defaultMaxItems = 5

// NewsSiteConfig describes how to pull items from a listing or search page.
type NewsSiteConfig struct {
	Name          string
	Kind          domain.Kind
	URL           string
	BaseURL       string
	ItemSelector  string
	TitleSelector string
	// LinkSelector picks the anchor inside a candidate; empty means the candidate itself.
	LinkSelector string
	WaitSelector string
	// Keywords keep only titles containing one of them, compared upper-cased.
	Keywords []string
	MaxItems int
}

// NewsSiteScanner loads a page through a PageLoader and extracts items by selectors.
type NewsSiteScanner struct {
	cfg    NewsSiteConfig
	loader ports.PageLoader
	logger *slog.Logger
}

var _ scanner.Scanner = (*NewsSiteScanner)(nil)

// NewNewsSiteScanner wires the page loader with extraction rules.
func NewNewsSiteScanner(cfg NewsSiteConfig, loader ports.PageLoader, logger *slog.Logger) *NewsSiteScanner {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMaxItems
	}
	if cfg.Kind == "" {
		cfg.Kind = domain.KindNews
	}
	return &NewsSiteScanner{cfg: cfg, loader: loader, logger: logger}
}

// Name identifies the source.
func (s *NewsSiteScanner) Name() string { return s.cfg.Name }

// Kind reports the kind of items produced.
func (s *NewsSiteScanner) Kind() domain.Kind { return s.cfg.Kind }

// Scan loads the page and extracts at most MaxItems items.
func (s *NewsSiteScanner) Scan(ctx context.Context) scanner.Outcome {
	if s.loader == nil {
		return scanner.Fail(s.cfg.Name, s.cfg.Kind, domain.FetchNavigation, errors.New("page loader is not configured"))
	}

	html, err := s.loader.Load(ctx, s.cfg.URL, s.cfg.WaitSelector)
	if err != nil {
		return scanner.Fail(s.cfg.Name, s.cfg.Kind, classifyLoadError(err), err)
	}

	items, err := ExtractItems(html, s.cfg)
	if err != nil {
		return scanner.Fail(s.cfg.Name, s.cfg.Kind, domain.FetchParse, err)
	}

	if s.logger != nil {
		s.logger.Debug("news site scanned", "source", s.cfg.Name, "items", len(items))
	}
	return scanner.Outcome{Source: s.cfg.Name, Kind: s.cfg.Kind, Items: items}
}

// ExtractItems applies the selector rules to an HTML document.
func ExtractItems(html string, cfg NewsSiteConfig) ([]domain.Item, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	base, err := resolveBase(cfg)
	if err != nil {
		return nil, err
	}

	limit := cfg.MaxItems
	if limit <= 0 {
		limit = defaultMaxItems
	}
	kind := cfg.Kind
	if kind == "" {
		kind = domain.KindNews
	}

	var items []domain.Item
	seen := map[string]struct{}{}
	doc.Find(cfg.ItemSelector).EachWithBreak(func(_ int, candidate *goquery.Selection) bool {
		title := extractTitle(candidate, cfg.TitleSelector)
		if title == "" || !matchesKeywords(title, cfg.Keywords) {
			return true
		}

		link, ok := extractLink(candidate, cfg.LinkSelector, base)
		if !ok {
			return true
		}
		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}

		items = append(items, domain.Item{
			Source: cfg.Name,
			Title:  title,
			URL:    link,
			Kind:   kind,
		})
		return len(items) < limit
	})

	return items, nil
}

func resolveBase(cfg NewsSiteConfig) (*url.URL, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = cfg.URL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %s: %w", raw, err)
	}
	return base, nil
}

func extractTitle(candidate *goquery.Selection, selector string) string {
	node := candidate
	if selector != "" {
		node = candidate.Find(selector).First()
	}
	if node.Length() == 0 {
		return ""
	}
	title := collapseSpace(node.Text())
	if title == "" {
		if attr, ok := node.Attr("title"); ok {
			title = collapseSpace(attr)
		}
	}
	return title
}

func extractLink(candidate *goquery.Selection, selector string, base *url.URL) (string, bool) {
	node := candidate
	if selector != "" {
		node = candidate.Find(selector).First()
	}
	href, ok := node.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	link := resolved.String()
	if !domain.IsAbsoluteURL(link) {
		return "", false
	}
	return link, true
}

func matchesKeywords(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	upper := strings.ToUpper(title)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(upper, strings.ToUpper(kw)) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func classifyLoadError(err error) domain.FetchFailureKind {
	switch {
	case errors.Is(err, domain.ErrElementNotFound):
		return domain.FetchMissingElement
	case errors.Is(err, context.DeadlineExceeded):
		return domain.FetchTimeout
	default:
		return domain.FetchNavigation
	}
}
