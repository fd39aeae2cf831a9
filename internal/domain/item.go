package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind tells whether an item is a news story or a research paper.
type Kind string

const (
	KindNews  Kind = "news"
	KindPaper Kind = "paper"
)

// ParseKind maps a config string to a Kind; anything unknown is news.
func ParseKind(value string) Kind {
	if strings.EqualFold(strings.TrimSpace(value), string(KindPaper)) {
		return KindPaper
	}
	return KindNews
}

// Item is a single news story or paper collected from a source.
type Item struct {
	Source  string
	Title   string
	URL     string
	Kind    Kind
	Summary *Summary
}

// Validate reports whether the item carries a title and an absolute link.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("item from %s has empty title", i.Source)
	}
	if !IsAbsoluteURL(i.URL) {
		return fmt.Errorf("item %q has non-absolute url %q", i.Title, i.URL)
	}
	return nil
}

// IsAbsoluteURL accepts http(s) URLs with a host.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Summary is the three-part digest text attached to an item.
type Summary struct {
	Point      string
	Background string
	Impact     string
}

// Placeholders used when a summary field could not be produced.
const (
	PendingPoint      = "要約中..."
	PendingBackground = "調査中..."
	PendingImpact     = "検討中..."

	FailedPoint      = "取得エラー"
	FailedBackground = "APIキーを確認してください"
	FailedImpact     = "N/A"
)

// PendingSummary holds the placeholders for a response that was too short.
func PendingSummary() Summary {
	return Summary{Point: PendingPoint, Background: PendingBackground, Impact: PendingImpact}
}

// FailedSummary holds the placeholders for a generation failure.
func FailedSummary() Summary {
	return Summary{Point: FailedPoint, Background: FailedBackground, Impact: FailedImpact}
}

// Complete reports whether all three fields are non-empty.
func (s Summary) Complete() bool {
	return s.Point != "" && s.Background != "" && s.Impact != ""
}

// IsFailed reports whether the summary is the generation-failure placeholder.
func (s Summary) IsFailed() bool {
	return s == FailedSummary()
}
