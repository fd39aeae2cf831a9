package scanner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"DailyDigest/internal/domain"
)

// Outcome is what a single source produced: its items and any recovered failures.
type Outcome struct {
	Source   string
	Kind     domain.Kind
	Items    []domain.Item
	Failures []domain.FetchError
}

// Failed reports whether the source produced nothing because of an error.
func (o Outcome) Failed() bool {
	return len(o.Items) == 0 && len(o.Failures) > 0
}

// Fail builds an empty outcome carrying one failure.
func Fail(source string, kind domain.Kind, failure domain.FetchFailureKind, err error) Outcome {
	return Outcome{
		Source:   source,
		Kind:     kind,
		Failures: []domain.FetchError{{Source: source, Kind: failure, Err: err}},
	}
}

// Scanner captures a single source strategy (news site, feed, journal...).
// Scan never fails outright: problems are reported inside the Outcome.
type Scanner interface {
	Name() string
	Kind() domain.Kind
	Scan(ctx context.Context) Outcome
}

// Registry keeps scanners in registration order.
type Registry struct {
	scanners []Scanner
	index    map[string]int
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register appends a scanner; a scanner with an already registered name replaces it in place.
func (r *Registry) Register(scanner Scanner) {
	if r.index == nil {
		r.index = map[string]int{}
	}
	if pos, ok := r.index[scanner.Name()]; ok {
		r.scanners[pos] = scanner
		return
	}
	r.index[scanner.Name()] = len(r.scanners)
	r.scanners = append(r.scanners, scanner)
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if pos, ok := r.index[name]; ok {
		return r.scanners[pos], nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Len returns the number of registered scanners.
func (r *Registry) Len() int {
	return len(r.scanners)
}

// Ordered returns scanners with news sources first, then papers, each in registration order.
func (r *Registry) Ordered() []Scanner {
	ordered := make([]Scanner, 0, len(r.scanners))
	for _, kind := range []domain.Kind{domain.KindNews, domain.KindPaper} {
		for _, s := range r.scanners {
			if s.Kind() == kind {
				ordered = append(ordered, s)
			}
		}
	}
	return ordered
}

// Run executes every scanner concurrently (at most limit at a time, unbounded when limit <= 0)
// and returns their outcomes in Ordered order. A panicking scanner becomes a failed outcome.
func (r *Registry) Run(ctx context.Context, limit int) []Outcome {
	ordered := r.Ordered()
	outcomes := make([]Outcome, len(ordered))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, s := range ordered {
		g.Go(func() error {
			outcomes[i] = scanSafely(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func scanSafely(ctx context.Context, s Scanner) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Fail(s.Name(), s.Kind(), domain.FetchParse, fmt.Errorf("scanner panic: %v", rec))
		}
	}()
	out = s.Scan(ctx)
	if out.Source == "" {
		out.Source = s.Name()
	}
	if out.Kind == "" {
		out.Kind = s.Kind()
	}
	return out
}

// Merge concatenates outcome items in outcome order.
func Merge(outcomes []Outcome) []domain.Item {
	var items []domain.Item
	for _, o := range outcomes {
		items = append(items, o.Items...)
	}
	return items
}
