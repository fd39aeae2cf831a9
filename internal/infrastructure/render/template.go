package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
)

// View is the data handed to the document template.
type View struct {
	Topic    string
	Date     time.Time
	PrevDate time.Time
	NextDate *time.Time
	News     []domain.Item
	Papers   []domain.Item
}

// TemplateRenderer renders snapshots with an html/template file.
type TemplateRenderer struct {
	path    string
	baseURL string
	topic   string

	mu   sync.RWMutex
	tmpl *template.Template
}

var _ ports.Renderer = (*TemplateRenderer)(nil)

// NewTemplateRenderer points at a template file; call Load before Render.
// baseURL prefixes dated document links ("/archive" gives "/archive/2025-01-02.html").
func NewTemplateRenderer(path, baseURL, topic string) *TemplateRenderer {
	return &TemplateRenderer{path: path, baseURL: strings.TrimSuffix(baseURL, "/"), topic: topic}
}

// Load parses the template file. Missing or broken templates are setup errors.
func (r *TemplateRenderer) Load() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return &domain.SetupError{Op: "read template", Path: r.path, Err: err}
	}

	tmpl, err := template.New(filepath.Base(r.path)).Funcs(r.funcs()).Parse(string(raw))
	if err != nil {
		return &domain.SetupError{Op: "parse template", Path: r.path, Err: err}
	}

	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()
	return nil
}

// Render produces the complete document for a snapshot.
func (r *TemplateRenderer) Render(snapshot domain.Snapshot) ([]byte, error) {
	r.mu.RLock()
	tmpl := r.tmpl
	r.mu.RUnlock()
	if tmpl == nil {
		return nil, errors.New("template is not loaded")
	}

	view := View{
		Topic:    r.topic,
		Date:     snapshot.Date,
		PrevDate: snapshot.PrevDate,
		NextDate: snapshot.NextDate,
		News:     snapshot.News(),
		Papers:   snapshot.Papers(),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// ArchiveURL is the link to the dated document for t.
func (r *TemplateRenderer) ArchiveURL(t time.Time) string {
	return r.baseURL + "/" + domain.DateKey(t) + ".html"
}

func (r *TemplateRenderer) funcs() template.FuncMap {
	return template.FuncMap{
		"archiveURL": r.ArchiveURL,
		"displayDate": func(t time.Time) string {
			return t.Format(domain.DisplayDateLayout)
		},
		"dateKey": domain.DateKey,
	}
}
