package ports

import (
	"context"
	"time"

	"DailyDigest/internal/domain"
)

// PageLoader fetches the rendered HTML of a page. When waitSelector is set the
// loader returns domain.ErrElementNotFound if it never appears.
type PageLoader interface {
	Load(ctx context.Context, pageURL, waitSelector string) (string, error)
}

// FeedEntry is a single syndication entry.
type FeedEntry struct {
	Title string
	Link  string
}

// FeedParser reads a syndication feed and returns its entries in order.
type FeedParser interface {
	Parse(ctx context.Context, feedURL string) ([]FeedEntry, error)
}

// TextGenerator turns a system instruction and a prompt into free text.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Renderer turns a snapshot into a complete document.
type Renderer interface {
	Render(snapshot domain.Snapshot) ([]byte, error)
}

// ArchiveStore publishes the latest document and the immutable dated one.
type ArchiveStore interface {
	Prepare() error
	Persist(ctx context.Context, snapshot domain.Snapshot) (PersistedPaths, error)
}

// PersistedPaths lists where a snapshot was written.
type PersistedPaths struct {
	Latest string
	Dated  string
}

// RunRepository keeps a history of batch runs.
type RunRepository interface {
	SaveRun(ctx context.Context, snapshot domain.Snapshot, report domain.RunReport) (string, error)
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// Notifier announces a published digest to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
