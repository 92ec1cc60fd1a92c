package rag

import (
	"github.com/iit-archive/cli/internal/documents"
)

const (
	// DefaultMaxChars is the Truncate budget when none is given.
	DefaultMaxChars = 30000
	// DefaultContextChars is the budget for chat context.
	DefaultContextChars = 25000
	// MinTextLength is the shortest extraction body treated as real text.
	MinTextLength = 50
)

// TruncationMarker separates the head and tail of truncated text.
const TruncationMarker = "\n\n[... content truncated for length ...]\n\n"

// Truncate fits text into maxChars characters by keeping the first and
// last maxChars/2 characters around TruncationMarker. Text that already
// fits is returned unchanged. A non-positive maxChars selects
// DefaultMaxChars.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	half := maxChars / 2
	return string(runes[:half]) + TruncationMarker + string(runes[len(runes)-half:])
}

// ContextKind says how a context string was derived.
type ContextKind int

const (
	ContextFull ContextKind = iota
	ContextScanned
	ContextFailed
)

func (k ContextKind) String() string {
	switch k {
	case ContextFull:
		return "full"
	case ContextScanned:
		return "scanned"
	case ContextFailed:
		return "failed"
	}
	return "unknown"
}

// ContextBuilder turns extraction results into chat context
type ContextBuilder struct {
	maxChars      int
	minTextLength int
}

// NewContextBuilder creates a new context builder
func NewContextBuilder(maxChars, minTextLength int) *ContextBuilder {
	if maxChars <= 0 {
		maxChars = DefaultContextChars
	}
	if minTextLength < 0 {
		minTextLength = MinTextLength
	}
	return &ContextBuilder{
		maxChars:      maxChars,
		minTextLength: minTextLength,
	}
}

// MaxChars returns the context budget.
func (cb *ContextBuilder) MaxChars() int {
	return cb.maxChars
}

// Build derives the context string for result. Failed and scanned
// documents produce no context.
func (cb *ContextBuilder) Build(result documents.ExtractionResult) (string, ContextKind) {
	if !result.Success {
		return "", ContextFailed
	}
	if documents.IsScanned(result, cb.minTextLength) {
		return "", ContextScanned
	}
	return Truncate(result.Text, cb.maxChars), ContextFull
}
