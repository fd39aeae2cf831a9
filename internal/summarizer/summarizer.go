package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultAudience = "マーケター"

	defaultNewsPersona  = "あなたは優秀な医療IT専門の編集者です。"
	defaultPaperPersona = "あなたは医学論文をわかりやすく伝えるサイエンスライターです。"
)

// Options configure prompts and call limits.
type Options struct {
	NewsPersona  string
	PaperPersona string
	// ImpactAudience names who the third line addresses (e.g. "マーケター").
	ImpactAudience string
	Timeout        time.Duration
}

// Outcome is a summary plus what happened while producing it.
type Outcome struct {
	Summary   domain.Summary
	Recovered int
	Failure   error
}

// Short reports whether the response had fewer than three usable lines.
func (o Outcome) Short() bool {
	return o.Failure == nil && o.Recovered < fieldCount
}

// Summarizer asks a text generator for three-line summaries.
type Summarizer struct {
	generator ports.TextGenerator
	opts      Options
	logger    *slog.Logger
}

// New wires a text generator.
func New(generator ports.TextGenerator, opts Options, logger *slog.Logger) *Summarizer {
	if opts.NewsPersona == "" {
		opts.NewsPersona = defaultNewsPersona
	}
	if opts.PaperPersona == "" {
		opts.PaperPersona = defaultPaperPersona
	}
	if opts.ImpactAudience == "" {
		opts.ImpactAudience = defaultAudience
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Summarizer{generator: generator, opts: opts, logger: logger}
}

// Persona returns the system role used for an item kind.
func (s *Summarizer) Persona(kind domain.Kind) string {
	if kind == domain.KindPaper {
		return s.opts.PaperPersona
	}
	return s.opts.NewsPersona
}

// BuildPrompt asks for exactly three bullet lines: point, background, impact.
func (s *Summarizer) BuildPrompt(item domain.Item) string {
	subject, viewpoint := "ニュース記事", "編集者目線"
	if item.Kind == domain.KindPaper {
		subject, viewpoint = "論文", "サイエンスライター目線"
	}
	return fmt.Sprintf(`以下の%sのタイトルに基づき、%sで3行（要点、背景、%sへの影響）に要約してください。
ちょうど3行で出力し、各行を「・」で始めてください。

タイトル: %s`, subject, viewpoint, s.opts.ImpactAudience, item.Title)
}

// Summarize never fails: generation errors become the failure placeholders
// and are reported in Outcome.Failure.
func (s *Summarizer) Summarize(ctx context.Context, item domain.Item) Outcome {
	if s.generator == nil {
		return Outcome{
			Summary: domain.FailedSummary(),
			Failure: &domain.GenerationError{Kind: domain.GenerationAuth, Err: domain.ErrMissingAPIKey},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	text, err := s.generator.Generate(ctx, s.Persona(item.Kind), s.BuildPrompt(item))
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("summary generation failed", "title", item.Title, "kind", domain.GenerationKindOf(err), "error", err)
		}
		return Outcome{Summary: domain.FailedSummary(), Failure: err}
	}

	parsed := Parse(text, s.opts.ImpactAudience+"への影響")
	if s.logger != nil && parsed.Count() < fieldCount {
		s.logger.Debug("short summary", "title", item.Title, "lines", parsed.Count())
	}
	return Outcome{Summary: parsed.Fill(), Recovered: parsed.Count()}
}
