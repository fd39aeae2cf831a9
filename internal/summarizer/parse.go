package summarizer

import (
	"strings"

	"DailyDigest/internal/domain"
)

// Field positions in a generated summary.
const (
	FieldPoint = iota
	FieldBackground
	FieldImpact
	fieldCount
)

var bulletMarkers = []string{"・", "•", "●", "◦", "-", "*", "－"}

// Longer labels first so "マーケターへの影響" wins over "影響".
var knownLabels = []string{
	"マーケターへの影響",
	"読者への影響",
	"要点",
	"背景",
	"影響",
	"Background",
	"Impact",
	"Point",
}

// Parsed is the partial result of reading a generated response.
type Parsed struct {
	Fields    [fieldCount]string
	Recovered [fieldCount]bool
}

// Count returns how many positions were recovered.
func (p Parsed) Count() int {
	n := 0
	for _, ok := range p.Recovered {
		if ok {
			n++
		}
	}
	return n
}

// Fill returns a complete summary, using the pending placeholders for missing positions.
func (p Parsed) Fill() domain.Summary {
	pending := domain.PendingSummary()
	s := domain.Summary{Point: pending.Point, Background: pending.Background, Impact: pending.Impact}
	if p.Recovered[FieldPoint] {
		s.Point = p.Fields[FieldPoint]
	}
	if p.Recovered[FieldBackground] {
		s.Background = p.Fields[FieldBackground]
	}
	if p.Recovered[FieldImpact] {
		s.Impact = p.Fields[FieldImpact]
	}
	return s
}

// Parse reads up to three non-blank lines, stripping bullets and labels.
// Extra lines are ignored.
func Parse(text string, extraLabels ...string) Parsed {
	var p Parsed
	labels := append(append([]string{}, extraLabels...), knownLabels...)

	pos := 0
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if pos >= fieldCount {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		value := cleanLine(line, labels)
		if value != "" {
			p.Fields[pos] = value
			p.Recovered[pos] = true
		}
		pos++
	}
	return p
}

func cleanLine(line string, labels []string) string {
	value := strings.TrimSpace(line)
	// A leading "**" opens bold text; it is not a "*" bullet.
	if !strings.HasPrefix(value, "**") {
		for _, marker := range bulletMarkers {
			if strings.HasPrefix(value, marker) {
				value = strings.TrimSpace(strings.TrimPrefix(value, marker))
				break
			}
		}
	}
	value = strings.TrimPrefix(value, "**")

	for _, label := range labels {
		if label == "" || !strings.HasPrefix(value, label) {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(value, label))
		rest = strings.TrimPrefix(rest, "**")
		switch {
		case strings.HasPrefix(rest, "："):
			return strings.TrimSpace(strings.TrimPrefix(rest, "："))
		case strings.HasPrefix(rest, ":"):
			return strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		}
	}
	return value
}
