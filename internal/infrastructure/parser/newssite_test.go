package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyDigest/internal/domain"
)

func nikkeiConfig() NewsSiteConfig {
	return NewsSiteConfig{
		Name:          "日本経済新聞",
		URL:           "https://www.nikkei.com/search?keyword=x",
		BaseURL:       "https://www.nikkei.com",
		ItemSelector:  "article",
		TitleSelector: "h3, a[title]",
		LinkSelector:  "a",
		WaitSelector:  "article",
		MaxItems:      5,
	}
}

func TestExtractItemsCapsAtMaxItems(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&b, `<article><a href="/article/%d"><h3>医療DX ニュース %d</h3></a></article>`, i, i)
	}
	b.WriteString("</body></html>")

	items, err := ExtractItems(b.String(), nikkeiConfig())
	require.NoError(t, err)
	require.Len(t, items, 5)
	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("医療DX ニュース %d", i+1), item.Title)
		assert.Equal(t, fmt.Sprintf("https://www.nikkei.com/article/%d", i+1), item.URL)
		assert.Equal(t, domain.KindNews, item.Kind)
		assert.Equal(t, "日本経済新聞", item.Source)
	}
}

func TestExtractItemsSkipsIncompleteCandidates(t *testing.T) {
	t.Parallel()

	html := `
	<article><h3>No link here</h3></article>
	<article><a href="/a/1"><h3>  </h3></a></article>
	<article><a href="https://other.example.com/x" title="Titled anchor"></a></article>
	<article><a href="javascript:void(0)"><h3>Script link</h3></a></article>
	<article><a href="/a/2"><h3>Relative link</h3></a></article>`

	items, err := ExtractItems(html, nikkeiConfig())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Titled anchor", items[0].Title)
	assert.Equal(t, "https://other.example.com/x", items[0].URL)
	assert.Equal(t, "Relative link", items[1].Title)
	assert.Equal(t, "https://www.nikkei.com/a/2", items[1].URL)
}

func TestExtractItemsKeywordFilter(t *testing.T) {
	t.Parallel()

	cfg := NewsSiteConfig{
		Name:          "PR TIMES",
		BaseURL:       "https://prtimes.jp",
		ItemSelector:  ".item",
		TitleSelector: ".title",
		LinkSelector:  "a.link",
		Keywords:      []string{"AI", "人工知能"},
		MaxItems:      5,
	}
	html := `
	<div class="item"><a class="link" href="/r/1"></a><h3 class="title">生成ai で診療支援</h3></div>
	<div class="item"><a class="link" href="/r/2"></a><h3 class="title">新しい病院食</h3></div>
	<div class="item"><a class="link" href="/r/3"></a><h3 class="title">人工知能による画像診断</h3></div>
	<div class="item"><a class="link" href="/r/4"></a><h3 class="title">MAIN street clinic opens</h3></div>`

	items, err := ExtractItems(html, cfg)
	require.NoError(t, err)

	var titles []string
	for _, item := range items {
		titles = append(titles, item.Title)
	}
	assert.Equal(t, []string{"生成ai で診療支援", "人工知能による画像診断", "MAIN street clinic opens"}, titles)
	assert.Equal(t, "https://prtimes.jp/r/1", items[0].URL)
}

func TestExtractItemsNoCandidates(t *testing.T) {
	t.Parallel()

	items, err := ExtractItems("<html><body><p>empty</p></body></html>", nikkeiConfig())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNewsSiteScannerClassifiesLoaderErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want domain.FetchFailureKind
	}{
		{fmt.Errorf("wait: %w", domain.ErrElementNotFound), domain.FetchMissingElement},
		{fmt.Errorf("navigate: %w", context.DeadlineExceeded), domain.FetchTimeout},
		{errors.New("net::ERR_NAME_NOT_RESOLVED"), domain.FetchNavigation},
	}
	for _, tc := range cases {
		cfg := nikkeiConfig()
		loader := &fakeLoader{errs: map[string]error{cfg.URL: tc.err}}
		out := NewNewsSiteScanner(cfg, loader, nil).Scan(context.Background())

		assert.Empty(t, out.Items)
		require.Len(t, out.Failures, 1)
		assert.Equal(t, tc.want, out.Failures[0].Kind)
		assert.True(t, out.Failed())
	}
}

func TestNewsSiteScannerScan(t *testing.T) {
	t.Parallel()

	cfg := nikkeiConfig()
	loader := &fakeLoader{pages: map[string]string{
		cfg.URL: `<article><a href="/n/1"><h3>医療DXの最前線</h3></a></article>`,
	}}

	sc := NewNewsSiteScanner(cfg, loader, nil)
	out := sc.Scan(context.Background())

	assert.Equal(t, "日本経済新聞", sc.Name())
	assert.Equal(t, domain.KindNews, sc.Kind())
	assert.Empty(t, out.Failures)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "https://www.nikkei.com/n/1", out.Items[0].URL)
}
