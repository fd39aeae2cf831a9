package domain

import "time"

// RunReport counts what degraded during one batch run.
type RunReport struct {
	Sources         int
	FailedSources   []string
	FetchFailures   []FetchError
	Summaries       int
	FailedSummaries int
	ShortSummaries  int
}

// RunRecord is a stored batch run.
type RunRecord struct {
	ID              string
	RunDate         time.Time
	NewsCount       int
	PaperCount      int
	FailedSources   int
	FailedSummaries int
	CreatedAt       time.Time
}
