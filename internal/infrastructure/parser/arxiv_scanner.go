package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
	"DailyDigest/internal/scanner"
)

const arxivBaseURL = "https://arxiv.org"

// Category is a listing endpoint inside an arXiv-style source.
type Category struct {
	Name string
	URL  string
}

// ArxivConfig describes which category listings to read.
type ArxivConfig struct {
	Name       string
	Categories []Category
	MaxItems   int
}

// ArxivScanner reads arXiv "new submissions" listings and keeps the newest
// entries of every category.
type ArxivScanner struct {
	cfg    ArxivConfig
	loader ports.PageLoader
	logger *slog.Logger
}

var _ scanner.Scanner = (*ArxivScanner)(nil)

// NewArxivScanner wires a page loader; MaxItems defaults to 5 per category.
func NewArxivScanner(cfg ArxivConfig, loader ports.PageLoader, logger *slog.Logger) *ArxivScanner {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = defaultMaxItems
	}
	if cfg.Name == "" {
		cfg.Name = "arXiv"
	}
	return &ArxivScanner{cfg: cfg, loader: loader, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *ArxivScanner) Name() string { return a.cfg.Name }

// Kind is always paper.
func (a *ArxivScanner) Kind() domain.Kind { return domain.KindPaper }

// Scan walks through each category listing; one broken category does not drop the others.
func (a *ArxivScanner) Scan(ctx context.Context) scanner.Outcome {
	out := scanner.Outcome{Source: a.cfg.Name, Kind: domain.KindPaper}
	if len(a.cfg.Categories) == 0 {
		return scanner.Fail(a.cfg.Name, domain.KindPaper, domain.FetchNavigation, fmt.Errorf("no categories provided for site %s", a.cfg.Name))
	}
	if a.loader == nil {
		return scanner.Fail(a.cfg.Name, domain.KindPaper, domain.FetchNavigation, errors.New("page loader is not configured"))
	}

	seen := map[string]struct{}{}
	for _, cat := range a.cfg.Categories {
		pageURL, err := buildPageURL(cat.URL, 0, a.cfg.MaxItems)
		if err != nil {
			out.Failures = append(out.Failures, domain.FetchError{Source: a.sourceName(cat), Kind: domain.FetchNavigation, Err: err})
			continue
		}

		html, err := a.loader.Load(ctx, pageURL, "")
		if err != nil {
			out.Failures = append(out.Failures, domain.FetchError{Source: a.sourceName(cat), Kind: classifyLoadError(err), Err: err})
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			out.Failures = append(out.Failures, domain.FetchError{Source: a.sourceName(cat), Kind: domain.FetchParse, Err: err})
			continue
		}

		taken := 0
		doc.Find("dl > dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
			item, ok := parseEntry(dt, dt.Next(), a.sourceName(cat))
			if !ok {
				return true
			}
			if _, dup := seen[item.URL]; dup {
				return true
			}
			seen[item.URL] = struct{}{}
			out.Items = append(out.Items, item)
			taken++
			return taken < a.cfg.MaxItems
		})

		if a.logger != nil {
			a.logger.Debug("arxiv category scanned", "category", cat.Name, "items", taken)
		}
	}

	return out
}

func (a *ArxivScanner) sourceName(cat Category) string {
	if cat.Name == "" {
		return a.cfg.Name
	}
	return fmt.Sprintf("%s %s", a.cfg.Name, cat.Name)
}

func parseEntry(dt, dd *goquery.Selection, source string) (domain.Item, bool) {
	link := dt.Find(`a[href*="/abs/"]`).First()
	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return domain.Item{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := collapseSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	item := domain.Item{
		Source: source,
		Title:  title,
		URL:    href,
		Kind:   domain.KindPaper,
	}
	if item.Validate() != nil {
		return domain.Item{}, false
	}
	return item, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
