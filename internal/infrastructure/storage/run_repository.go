package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
)

const (
	runsTable  = "digest_runs"
	itemsTable = "digest_items"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS digest_runs (
		id TEXT PRIMARY KEY,
		run_date TEXT NOT NULL,
		news_count INTEGER NOT NULL,
		paper_count INTEGER NOT NULL,
		failed_sources INTEGER NOT NULL,
		failed_summaries INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS digest_items (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		point TEXT NOT NULL,
		background TEXT NOT NULL,
		impact TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS digest_runs_run_date_idx ON digest_runs (run_date)`,
}

// RunRepository keeps a history of published snapshots in Postgres or SQLite.
type RunRepository struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var _ ports.RunRepository = (*RunRepository)(nil)

// Open connects with a database/sql driver name ("postgres" or "sqlite3").
func Open(driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewRunRepository wires a sql.DB implementation; driver selects the placeholder style.
func NewRunRepository(db *sql.DB, driver string) *RunRepository {
	var format sq.PlaceholderFormat = sq.Dollar
	if driver == "sqlite3" {
		format = sq.Question
	}
	return &RunRepository{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(format),
		now: time.Now,
	}
}

// EnsureSchema creates the tables if they are missing.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun stores the snapshot, replacing any earlier run for the same date.
func (r *RunRepository) SaveRun(ctx context.Context, snapshot domain.Snapshot, report domain.RunReport) (string, error) {
	if r.db == nil {
		return "", nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	key := snapshot.Key()

	delItems := r.sb.Delete(itemsTable).
		Where(sq.Expr("run_id IN (SELECT id FROM "+runsTable+" WHERE run_date = ?)", key))
	if _, err := delItems.RunWith(tx).ExecContext(ctx); err != nil {
		return "", fmt.Errorf("delete previous items: %w", err)
	}
	if _, err := r.sb.Delete(runsTable).Where(sq.Eq{"run_date": key}).RunWith(tx).ExecContext(ctx); err != nil {
		return "", fmt.Errorf("delete previous run: %w", err)
	}

	id := uuid.NewString()
	insertRun := r.sb.Insert(runsTable).
		Columns("id", "run_date", "news_count", "paper_count", "failed_sources", "failed_summaries", "created_at").
		Values(id, key, len(snapshot.News()), len(snapshot.Papers()), len(report.FailedSources), report.FailedSummaries, r.now().UTC())
	if _, err := insertRun.RunWith(tx).ExecContext(ctx); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if len(snapshot.Items) > 0 {
		insertItems := r.sb.Insert(itemsTable).
			Columns("run_id", "position", "source", "kind", "title", "url", "point", "background", "impact")
		for i, item := range snapshot.Items {
			summary := domain.FailedSummary()
			if item.Summary != nil {
				summary = *item.Summary
			}
			insertItems = insertItems.Values(id, i, item.Source, string(item.Kind), item.Title, item.URL,
				summary.Point, summary.Background, summary.Impact)
		}
		if _, err := insertItems.RunWith(tx).ExecContext(ctx); err != nil {
			return "", fmt.Errorf("insert items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// RecentRuns returns the latest runs, newest date first.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.sb.Select("id", "run_date", "news_count", "paper_count", "failed_sources", "failed_summaries", "created_at").
		From(runsTable).
		OrderBy("run_date DESC").
		Limit(uint64(limit)).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var result []domain.RunRecord
	for rows.Next() {
		var (
			rec     domain.RunRecord
			runDate string
		)
		if err := rows.Scan(&rec.ID, &runDate, &rec.NewsCount, &rec.PaperCount, &rec.FailedSources, &rec.FailedSummaries, &rec.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if rec.RunDate, err = time.Parse(domain.DateKeyLayout, runDate); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("parse run date %q: %w", runDate, err)
		}
		result = append(result, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// ItemsByDate returns the stored items of the run for a date, in published order.
func (r *RunRepository) ItemsByDate(ctx context.Context, date string) ([]domain.Item, error) {
	rows, err := r.sb.Select("i.source", "i.kind", "i.title", "i.url", "i.point", "i.background", "i.impact").
		From(itemsTable + " i").
		Join(runsTable + " r ON r.id = i.run_id").
		Where(sq.Eq{"r.run_date": date}).
		OrderBy("i.position").
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var (
			item    domain.Item
			kind    string
			summary domain.Summary
		)
		if err := rows.Scan(&item.Source, &kind, &item.Title, &item.URL, &summary.Point, &summary.Background, &summary.Impact); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Kind = domain.ParseKind(kind)
		item.Summary = &summary
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}
