package parser

import (
	"context"
	"fmt"
	"log/slog"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/scanner"
)

// JournalScanner aggregates several sub-sources (feeds, table-of-contents pages)
// into one source. Each sub-source keeps its own cap; a failing one does not
// affect the others.
type JournalScanner struct {
	name    string
	kind    domain.Kind
	sources []scanner.Scanner
	logger  *slog.Logger
}

var _ scanner.Scanner = (*JournalScanner)(nil)

// NewJournalScanner builds a composite over sub-sources, scanned in the given order.
func NewJournalScanner(name string, kind domain.Kind, sources []scanner.Scanner, logger *slog.Logger) *JournalScanner {
	if kind == "" {
		kind = domain.KindPaper
	}
	return &JournalScanner{name: name, kind: kind, sources: sources, logger: logger}
}

// Name identifies the composite.
func (j *JournalScanner) Name() string { return j.name }

// Kind reports the kind stamped on every sub-source item.
func (j *JournalScanner) Kind() domain.Kind { return j.kind }

// Scan concatenates sub-source items in order and carries their failures along.
func (j *JournalScanner) Scan(ctx context.Context) scanner.Outcome {
	out := scanner.Outcome{Source: j.name, Kind: j.kind}
	for _, src := range j.sources {
		sub := j.scanSub(ctx, src)
		for _, item := range sub.Items {
			item.Kind = j.kind
			out.Items = append(out.Items, item)
		}
		out.Failures = append(out.Failures, sub.Failures...)
		if j.logger != nil {
			j.logger.Debug("journal sub-source scanned", "journal", j.name, "source", src.Name(), "items", len(sub.Items), "failures", len(sub.Failures))
		}
	}
	return out
}

func (j *JournalScanner) scanSub(ctx context.Context, src scanner.Scanner) (out scanner.Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = scanner.Fail(src.Name(), j.kind, domain.FetchParse, fmt.Errorf("sub-source panic: %v", rec))
		}
	}()
	return src.Scan(ctx)
}
