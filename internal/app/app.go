package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"DailyDigest/internal/config"
	"DailyDigest/internal/domain"
	"DailyDigest/internal/infrastructure/archive"
	"DailyDigest/internal/infrastructure/browser"
	"DailyDigest/internal/infrastructure/feed"
	"DailyDigest/internal/infrastructure/llm"
	"DailyDigest/internal/infrastructure/ml"
	"DailyDigest/internal/infrastructure/parser"
	"DailyDigest/internal/infrastructure/render"
	"DailyDigest/internal/infrastructure/scheduler"
	"DailyDigest/internal/infrastructure/storage"
	"DailyDigest/internal/infrastructure/telegram"
	"DailyDigest/internal/infrastructure/web"
	"DailyDigest/internal/logging"
	"DailyDigest/internal/ports"
	"DailyDigest/internal/scanner"
	"DailyDigest/internal/summarizer"
	"DailyDigest/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	store    *archive.FileStore
	runs     *storage.RunRepository
	db       *sql.DB
}

// New builds every component from cfg. Optional collaborators (run history,
// notifications) are skipped with a warning when they cannot be set up.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	component := func(name string) *slog.Logger { return baseLogger.With("component", name) }

	browserOpts := browser.Options{
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		SelectorTimeout:   cfg.Browser.SelectorTimeout,
		UserAgent:         cfg.Browser.UserAgent,
		Headless:          cfg.Browser.IsHeadless(),
	}
	loaders := parser.Loaders{
		Chrome: browser.NewChromeLoader(browserOpts, component("loader.chrome")),
		Static: browser.NewStaticLoader(browserOpts, component("loader.static")),
		Feed:   feed.NewGofeedParser(cfg.Browser.UserAgent, cfg.Browser.FeedTimeout),
	}

	registry := scanner.NewRegistry()
	source, err := parser.NewStrategySource(registry, cfg.Sites, loaders, cfg.Pipeline.FetchConcurrency, cfg.Browser.FeedTimeout, component("source"))
	if err != nil {
		return nil, &domain.SetupError{Op: "configure sources", Err: err}
	}

	sum := summarizer.New(newGenerator(cfg, baseLogger), summarizer.Options{
		NewsPersona:    cfg.Summary.NewsPersona,
		PaperPersona:   cfg.Summary.PaperPersona,
		ImpactAudience: cfg.Summary.ImpactAudience,
		Timeout:        cfg.Summary.Timeout,
	}, component("summarizer"))

	renderer := render.NewTemplateRenderer(cfg.Archive.TemplatePath, cfg.Archive.BaseURL, cfg.Topic)
	store := archive.NewFileStore(cfg.Archive.LatestPath, cfg.Archive.Dir, renderer)

	a := &Application{cfg: cfg, logger: baseLogger, store: store}

	deps := usecase.PipelineDeps{
		Source:             source,
		Summarizer:         sum,
		Archive:            store,
		Logger:             component("pipeline"),
		Location:           cfg.Scheduler.Location(),
		SummaryConcurrency: cfg.Pipeline.SummaryConcurrency,
		SiteURL:            cfg.Web.SiteURL,
	}

	if cfg.Database.Enabled() {
		if err := a.openHistory(ctx); err != nil {
			baseLogger.Warn("run history disabled", "driver", cfg.Database.Driver, "error", err)
		} else {
			deps.Runs = a.runs
		}
	}

	if cfg.Notifications.Telegram.Enabled() {
		deps.Notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	a.pipeline = usecase.NewPipeline(deps)
	return a, nil
}

func newGenerator(cfg config.Config, logger *slog.Logger) ports.TextGenerator {
	switch strings.ToLower(strings.TrimSpace(cfg.Summary.Provider)) {
	case "inference", "ml":
		if cfg.ML.InferenceURL != "" {
			return ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey, cfg.ML.Timeout)
		}
		logger.Warn("inference provider selected without endpoint, using chatgpt")
	}
	if cfg.ChatGPT.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; summaries will carry the failure notice")
	}
	return llm.NewChatGPTClient(cfg.ChatGPT)
}

func (a *Application) openHistory(ctx context.Context) error {
	db, err := storage.Open(a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		return err
	}
	repo := storage.NewRunRepository(db, a.cfg.Database.Driver)

	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(schemaCtx); err != nil {
		_ = db.Close()
		return err
	}
	a.db = db
	a.runs = repo
	return nil
}

// RunOnce executes the batch for the current civil date in the configured timezone.
func (a *Application) RunOnce(ctx context.Context) (usecase.Result, error) {
	now := time.Now().In(a.cfg.Scheduler.Location())
	result, err := a.pipeline.ProcessDay(ctx, now)
	if err != nil {
		return result, err
	}

	r := result.Report
	a.logger.Info("run finished",
		"date", result.Snapshot.Key(),
		"news", len(result.Snapshot.News()),
		"papers", len(result.Snapshot.Papers()),
		"failed_sources", len(r.FailedSources),
		"failed_summaries", r.FailedSummaries,
		"short_summaries", r.ShortSummaries,
	)
	return result, nil
}

// Schedule runs the batch on the configured cron expression until ctx is done.
func (a *Application) Schedule(ctx context.Context) error {
	driver, err := scheduler.NewCronScheduler(a.cfg.Scheduler.CronExpression, a.cfg.Scheduler.Location())
	if err != nil {
		return &domain.SetupError{Op: "configure scheduler", Err: err}
	}
	if err := a.store.Prepare(); err != nil {
		return err
	}

	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
		"next", driver.Next(time.Now()),
	)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return sched.Stop(stopCtx)
}

// Serve exposes the published documents and run history over HTTP until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	var runs web.RunHistory
	if a.runs != nil {
		runs = a.runs
	}
	srv := web.NewServer(a.store, runs, a.logger.With("component", "web"))
	return srv.ListenAndServe(ctx, a.cfg.Web.Addr)
}

// Close releases the run history database, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
