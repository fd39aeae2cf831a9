package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrElementNotFound is returned by page loaders when the awaited selector never appears.
	ErrElementNotFound = errors.New("element not found")
	// ErrMissingAPIKey is returned by text generators started without credentials.
	ErrMissingAPIKey = errors.New("api key is not configured")
)

// FetchFailureKind classifies why a source produced nothing.
type FetchFailureKind string

const (
	FetchNavigation     FetchFailureKind = "navigation"
	FetchTimeout        FetchFailureKind = "timeout"
	FetchMissingElement FetchFailureKind = "missing_element"
	FetchParse          FetchFailureKind = "parse"
)

// FetchError is a recovered per-source failure.
type FetchError struct {
	Source string
	Kind   FetchFailureKind
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// GenerationFailureKind classifies text generation failures.
type GenerationFailureKind string

const (
	GenerationAuth      GenerationFailureKind = "auth"
	GenerationRateLimit GenerationFailureKind = "rate_limit"
	GenerationNetwork   GenerationFailureKind = "network"
	GenerationMalformed GenerationFailureKind = "malformed"
	GenerationUnknown   GenerationFailureKind = "unknown"
)

// GenerationError wraps a failed text generation call.
type GenerationError struct {
	Kind GenerationFailureKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// GenerationKindOf extracts the failure kind, defaulting to unknown.
func GenerationKindOf(err error) GenerationFailureKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	if errors.Is(err, ErrMissingAPIKey) {
		return GenerationAuth
	}
	return GenerationUnknown
}

// SetupError aborts a run before any output is written.
type SetupError struct {
	Op   string
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("setup %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("setup %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// IsSetupError reports whether err is, or wraps, a SetupError.
func IsSetupError(err error) bool {
	var setupErr *SetupError
	return errors.As(err, &setupErr)
}
