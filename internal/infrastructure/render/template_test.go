package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyDigest/internal/domain"
)

const testTemplate = `<h1>{{.Topic}} {{displayDate .Date}}</h1>
<a class="prev" href="{{archiveURL .PrevDate}}">prev</a>{{with .NextDate}}<a class="next" href="{{archiveURL .}}">next</a>{{end}}
<ul class="news">{{range .News}}<li><a href="{{.URL}}">{{.Title}}</a> {{with .Summary}}{{.Point}}/{{.Background}}/{{.Impact}}{{end}}</li>{{else}}<li>no news</li>{{end}}</ul>
<ul class="papers">{{range .Papers}}<li>{{.Title}}</li>{{else}}<li>no papers</li>{{end}}</ul>`

func writeTemplate(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestTemplateRendererRender(t *testing.T) {
	t.Parallel()

	r := NewTemplateRenderer(writeTemplate(t, testTemplate), "/archive/", "医療DX")
	require.NoError(t, r.Load())

	summary := domain.Summary{Point: "p", Background: "b", Impact: "i"}
	snap := domain.NewSnapshot(time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC), []domain.Item{
		{Source: "s", Title: "News <1>", URL: "https://n/1", Kind: domain.KindNews, Summary: &summary},
		{Source: "s", Title: "Paper 1", URL: "https://p/1", Kind: domain.KindPaper, Summary: &summary},
	})

	out, err := r.Render(snap)
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "医療DX 2025.01.02")
	assert.Contains(t, html, `href="/archive/2025-01-01.html"`)
	assert.NotContains(t, html, `class="next"`)
	assert.Contains(t, html, "News &lt;1&gt;")
	assert.Contains(t, html, "p/b/i")
	assert.Contains(t, html, "<li>Paper 1</li>")
}

func TestTemplateRendererEmptyLists(t *testing.T) {
	t.Parallel()

	r := NewTemplateRenderer(writeTemplate(t, testTemplate), "", "")
	require.NoError(t, r.Load())

	out, err := r.Render(domain.NewSnapshot(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), nil))
	require.NoError(t, err)
	assert.Contains(t, string(out), "no news")
	assert.Contains(t, string(out), "no papers")
	assert.Contains(t, string(out), `href="/2025-01-01.html"`)
}

func TestTemplateRendererSetupErrors(t *testing.T) {
	t.Parallel()

	missing := NewTemplateRenderer(filepath.Join(t.TempDir(), "nope.tmpl"), "", "")
	err := missing.Load()
	require.Error(t, err)
	assert.True(t, domain.IsSetupError(err))

	broken := NewTemplateRenderer(writeTemplate(t, "{{range .News}"), "", "")
	err = broken.Load()
	require.Error(t, err)
	assert.True(t, domain.IsSetupError(err))

	_, err = NewTemplateRenderer("x", "", "").Render(domain.Snapshot{})
	assert.Error(t, err)
}

func TestShippedTemplateParses(t *testing.T) {
	t.Parallel()

	r := NewTemplateRenderer(filepath.Join("..", "..", "..", "templates", "index.html.tmpl"), "/archive", "医療DX")
	require.NoError(t, r.Load())

	next := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	snap := domain.NewSnapshot(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), nil)
	snap.NextDate = &next

	out, err := r.Render(snap)
	require.NoError(t, err)
	assert.Contains(t, string(out), `href="/archive/2025-01-03.html"`)
	assert.Contains(t, string(out), "本日のニュースはありません")
}
