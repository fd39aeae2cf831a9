package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
)

// TemplateRenderer is a Renderer whose template must be loaded up front.
type TemplateRenderer interface {
	ports.Renderer
	Load() error
}

// FileStore writes the latest document and one immutable document per date.
type FileStore struct {
	latestPath string
	dir        string
	renderer   TemplateRenderer
}

var _ ports.ArchiveStore = (*FileStore)(nil)

// NewFileStore wires output locations with a renderer.
func NewFileStore(latestPath, dir string, renderer TemplateRenderer) *FileStore {
	return &FileStore{latestPath: latestPath, dir: dir, renderer: renderer}
}

// Prepare loads the template and makes sure both output directories exist and
// are writable. Every failure is a setup error.
func (s *FileStore) Prepare() error {
	if s.renderer == nil {
		return &domain.SetupError{Op: "load template", Err: fmt.Errorf("renderer is not configured")}
	}
	if err := s.renderer.Load(); err != nil {
		return err
	}

	for _, dir := range []string{s.dir, filepath.Dir(s.latestPath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &domain.SetupError{Op: "create directory", Path: dir, Err: err}
		}
		probe, err := os.CreateTemp(dir, ".write-probe-*")
		if err != nil {
			return &domain.SetupError{Op: "check writable", Path: dir, Err: err}
		}
		name := probe.Name()
		_ = probe.Close()
		_ = os.Remove(name)
	}
	return nil
}

// DatedPath is the archive location for a date.
func (s *FileStore) DatedPath(date time.Time) string {
	return filepath.Join(s.dir, domain.DateKey(date)+".html")
}

// Persist renders once and writes identical bytes to the dated and the latest
// location. Only the snapshot's own dated file is touched.
func (s *FileStore) Persist(ctx context.Context, snapshot domain.Snapshot) (ports.PersistedPaths, error) {
	if err := ctx.Err(); err != nil {
		return ports.PersistedPaths{}, err
	}

	doc, err := s.renderer.Render(snapshot)
	if err != nil {
		return ports.PersistedPaths{}, fmt.Errorf("render snapshot: %w", err)
	}

	paths := ports.PersistedPaths{Latest: s.latestPath, Dated: s.DatedPath(snapshot.Date)}
	if err := writeFileAtomic(paths.Dated, doc); err != nil {
		return ports.PersistedPaths{}, err
	}
	if err := writeFileAtomic(paths.Latest, doc); err != nil {
		return ports.PersistedPaths{}, err
	}
	return paths, nil
}

// Dates lists archived dates, newest first.
func (s *FileStore) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, ok := strings.CutSuffix(e.Name(), ".html")
		if !ok {
			continue
		}
		if _, err := time.Parse(domain.DateKeyLayout, key); err != nil {
			continue
		}
		dates = append(dates, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// Dir is the archive directory.
func (s *FileStore) Dir() string { return s.dir }

// LatestPath is the location of the latest document.
func (s *FileStore) LatestPath() string { return s.latestPath }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}
