package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
	"DailyDigest/internal/scanner"
	"DailyDigest/internal/summarizer"
)

const defaultSummaryConcurrency = 4

// Source is the fetch phase: every configured source, outcomes ordered news first.
type Source interface {
	FetchAll(ctx context.Context) []scanner.Outcome
}

// ItemSummarizer enriches a single item and never fails.
type ItemSummarizer interface {
	Summarize(ctx context.Context, item domain.Item) summarizer.Outcome
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source             Source
	Summarizer         ItemSummarizer
	Archive            ports.ArchiveStore
	Runs               ports.RunRepository
	Notifier           ports.Notifier
	Logger             *slog.Logger
	Location           *time.Location
	SummaryConcurrency int
	// SiteURL is linked from notifications.
	SiteURL string
}

// Pipeline implements the daily digest workflow.
type Pipeline struct {
	source      Source
	summarizer  ItemSummarizer
	archive     ports.ArchiveStore
	runs        ports.RunRepository
	notifier    ports.Notifier
	logger      *slog.Logger
	location    *time.Location
	concurrency int
	siteURL     string
}

// Result describes a finished run.
type Result struct {
	Snapshot domain.Snapshot
	Report   domain.RunReport
	Paths    ports.PersistedPaths
	RunID    string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	concurrency := deps.SummaryConcurrency
	if concurrency <= 0 {
		concurrency = defaultSummaryConcurrency
	}
	location := deps.Location
	if location == nil {
		location = time.UTC
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		source:      deps.Source,
		summarizer:  deps.Summarizer,
		archive:     deps.Archive,
		runs:        deps.Runs,
		notifier:    deps.Notifier,
		logger:      logger,
		location:    location,
		concurrency: concurrency,
		siteURL:     deps.SiteURL,
	}
}

// ProcessDay checks setup, collects the snapshot for day and publishes it.
// Only setup problems and archive write failures are returned; source and
// summary failures degrade the output instead.
func (p *Pipeline) ProcessDay(ctx context.Context, day time.Time) (Result, error) {
	if p.archive != nil {
		if err := p.archive.Prepare(); err != nil {
			return Result{}, err
		}
	}

	snapshot, report := p.Collect(ctx, day)
	result := Result{Snapshot: snapshot, Report: report}

	if p.archive == nil {
		return result, nil
	}

	paths, err := p.archive.Persist(ctx, snapshot)
	if err != nil {
		return result, fmt.Errorf("persist snapshot %s: %w", snapshot.Key(), err)
	}
	result.Paths = paths
	p.logger.Info("snapshot published", "date", snapshot.Key(), "latest", paths.Latest, "dated", paths.Dated)

	if p.runs != nil {
		id, err := p.runs.SaveRun(ctx, snapshot, report)
		if err != nil {
			p.logger.Warn("record run history", "date", snapshot.Key(), "error", err)
		} else {
			result.RunID = id
		}
	}

	if p.notifier != nil {
		if err := p.notifier.PublishDigest(ctx, BuildDigestMessage(snapshot, p.siteURL)); err != nil {
			p.logger.Warn("publish notification", "date", snapshot.Key(), "error", err)
		}
	}

	return result, nil
}

// Collect runs the fetch, enrich and assemble phases.
func (p *Pipeline) Collect(ctx context.Context, day time.Time) (domain.Snapshot, domain.RunReport) {
	var report domain.RunReport

	items := p.fetch(ctx, &report)
	p.enrich(ctx, items, &report)
	snapshot := domain.NewSnapshot(day.In(p.location), items)

	p.logger.Info("snapshot assembled",
		"date", snapshot.Key(),
		"news", len(snapshot.News()),
		"papers", len(snapshot.Papers()),
		"failed_sources", len(report.FailedSources),
		"failed_summaries", report.FailedSummaries,
		"short_summaries", report.ShortSummaries,
	)
	return snapshot, report
}

func (p *Pipeline) fetch(ctx context.Context, report *domain.RunReport) []domain.Item {
	if p.source == nil {
		return nil
	}

	outcomes := p.source.FetchAll(ctx)
	report.Sources = len(outcomes)

	var items []domain.Item
	for _, o := range outcomes {
		for _, f := range o.Failures {
			p.logger.Warn("source fetch failed", "source", f.Source, "kind", f.Kind, "error", f.Err)
			report.FetchFailures = append(report.FetchFailures, f)
		}
		if o.Failed() {
			report.FailedSources = append(report.FailedSources, o.Source)
		}
		for _, item := range o.Items {
			if err := item.Validate(); err != nil {
				p.logger.Warn("drop invalid item", "source", o.Source, "error", err)
				continue
			}
			items = append(items, item)
		}
	}
	return items
}

func (p *Pipeline) enrich(ctx context.Context, items []domain.Item, report *domain.RunReport) {
	outcomes := make([]summarizer.Outcome, len(items))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := range items {
		g.Go(func() error {
			if p.summarizer == nil {
				outcomes[i] = summarizer.Outcome{Summary: domain.FailedSummary(), Failure: domain.ErrMissingAPIKey}
				return nil
			}
			outcomes[i] = p.summarizer.Summarize(ctx, items[i])
			return nil
		})
	}
	_ = g.Wait()

	for i := range items {
		summary := outcomes[i].Summary
		if !summary.Complete() {
			summary = domain.FailedSummary()
		}
		items[i].Summary = &summary

		report.Summaries++
		switch {
		case outcomes[i].Failure != nil:
			report.FailedSummaries++
		case outcomes[i].Short():
			report.ShortSummaries++
		}
	}
}

// BuildDigestMessage renders a short plain-text announcement of a snapshot.
func BuildDigestMessage(snapshot domain.Snapshot, siteURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily digest %s: %d news, %d papers\n",
		snapshot.Date.Format(domain.DisplayDateLayout), len(snapshot.News()), len(snapshot.Papers()))

	for _, item := range snapshot.Items {
		fmt.Fprintf(&b, "\n- %s (%s)\n%s\n", item.Title, item.Source, item.URL)
		if item.Summary != nil && !item.Summary.IsFailed() {
			fmt.Fprintf(&b, "%s\n", item.Summary.Point)
		}
	}

	if siteURL != "" {
		fmt.Fprintf(&b, "\n%s\n", siteURL)
	}
	return b.String()
}
