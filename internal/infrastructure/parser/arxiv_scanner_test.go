package parser

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"DailyDigest/internal/domain"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://export.arxiv.org/list/cs.AI/new"
	u, err := buildPageURL(base, 0, 25)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Scheme != "https" || parsed.Host != "export.arxiv.org" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}

	q := parsed.Query()
	if q.Get("skip") != "0" {
		t.Fatalf("expected skip=0, got %s", q.Get("skip"))
	}
	if q.Get("show") != "25" {
		t.Fatalf("expected show=25, got %s", q.Get("show"))
	}
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<dl>
	  <dt>
	    <span class="list-identifier"><a href="/abs/1234.56789">arXiv:1234.56789</a></span>
	  </dt>
	  <dd>
	    <div class="list-title mathjax">Title: Sample
	      Title</div>
	    <p class="mathjax">Abstract: Sample abstract text.</p>
	  </dd>
	</dl>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	dt := doc.Find("dt").First()
	dd := doc.Find("dd").First()

	item, ok := parseEntry(dt, dd, "arXiv cs.AI")
	if !ok {
		t.Fatalf("parseEntry rejected a valid entry")
	}
	if item.Title != "Sample Title" {
		t.Fatalf("unexpected title: %q", item.Title)
	}
	if item.URL != "https://arxiv.org/abs/1234.56789" {
		t.Fatalf("unexpected url: %s", item.URL)
	}
	if item.Source != "arXiv cs.AI" {
		t.Fatalf("unexpected source: %s", item.Source)
	}
	if item.Kind != domain.KindPaper {
		t.Fatalf("unexpected kind: %s", item.Kind)
	}
}

func TestArxivScannerScan(t *testing.T) {
	t.Parallel()

	listing := `
	<dl>
	  <dt><span class="list-identifier"><a href="/abs/2501.00001">arXiv:2501.00001</a></span></dt>
	  <dd><div class="list-title mathjax">Title: Fresh Article</div></dd>
	  <dt><span class="list-identifier"><a href="/abs/2501.00002">arXiv:2501.00002</a></span></dt>
	  <dd><div class="list-title mathjax">Title: Second Article</div></dd>
	  <dt><span class="list-identifier"><a href="/abs/2501.00003">arXiv:2501.00003</a></span></dt>
	  <dd><div class="list-title mathjax">Title: Third Article</div></dd>
	</dl>`

	loader := &fakeLoader{pages: map[string]string{"https://export.arxiv.org/list/cs.AI/new": listing}}
	sc := NewArxivScanner(ArxivConfig{
		Name:     "arXiv",
		MaxItems: 2,
		Categories: []Category{
			{Name: "cs.AI", URL: "https://export.arxiv.org/list/cs.AI/new"},
			{Name: "cs.CY", URL: "https://export.arxiv.org/list/cs.CY/new"},
		},
	}, loader, nil)

	out := sc.Scan(context.Background())
	if len(out.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", out.Failures)
	}
	if len(out.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(out.Items))
	}
	if out.Items[0].Title != "Fresh Article" || out.Items[1].Title != "Second Article" {
		t.Fatalf("unexpected items: %+v", out.Items)
	}
	if len(loader.calls) != 2 || !strings.Contains(loader.calls[0], "show=2") {
		t.Fatalf("unexpected loader calls: %v", loader.calls)
	}
}

func TestArxivScannerWithoutCategories(t *testing.T) {
	t.Parallel()

	out := NewArxivScanner(ArxivConfig{}, &fakeLoader{}, nil).Scan(context.Background())
	if !out.Failed() {
		t.Fatalf("expected failed outcome, got %+v", out)
	}
}
