package domain

import "time"

const (
	// DateKeyLayout names dated archive documents.
	DateKeyLayout = "2006-01-02"
	// DisplayDateLayout is shown to readers.
	DisplayDateLayout = "2006.01.02"
)

// Snapshot is the complete published state for one civil date.
type Snapshot struct {
	Date     time.Time
	PrevDate time.Time
	NextDate *time.Time
	Items    []Item
}

// NewSnapshot assembles the snapshot for the civil date of day, using day's location.
// NextDate stays nil: forward links are never known at publish time.
func NewSnapshot(day time.Time, items []Item) Snapshot {
	date := CivilDate(day)
	return Snapshot{
		Date:     date,
		PrevDate: date.AddDate(0, 0, -1),
		Items:    items,
	}
}

// CivilDate truncates t to midnight in its own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateKey formats a date as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// News returns news items in their original order.
func (s Snapshot) News() []Item {
	return s.byKind(KindNews)
}

// Papers returns paper items in their original order.
func (s Snapshot) Papers() []Item {
	return s.byKind(KindPaper)
}

func (s Snapshot) byKind(kind Kind) []Item {
	out := make([]Item, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

// Key is the dated document name for the snapshot.
func (s Snapshot) Key() string {
	return DateKey(s.Date)
}
