package rag

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/iit-archive/cli/internal/documents"
)

func TestTruncateShortTextUnchanged(t *testing.T) {
	for _, text := range []string{"", "short", strings.Repeat("x", 100)} {
		assert.Equal(t, text, Truncate(text, 100))
	}
}

func TestTruncateKeepsHeadAndTail(t *testing.T) {
	head := strings.Repeat("a", 12500)
	middle := strings.Repeat("m", 35000)
	tail := strings.Repeat("z", 12500)
	source := head + middle + tail

	got := Truncate(source, 25000)

	assert.Equal(t, 25000+utf8.RuneCountInString(TruncationMarker), utf8.RuneCountInString(got))
	assert.Equal(t, head+TruncationMarker+tail, got)
}

func TestTruncateBound(t *testing.T) {
	source := strings.Repeat("0123456789", 1000)
	for _, max := range []int{100, 101, 999, 5000, 9999} {
		got := Truncate(source, max)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), max+utf8.RuneCountInString(TruncationMarker), "max=%d", max)
		assert.True(t, strings.HasPrefix(got, source[:max/2]))
		assert.True(t, strings.HasSuffix(got, source[len(source)-max/2:]))
	}
}

func TestTruncateIdempotentOnShortInput(t *testing.T) {
	text := strings.Repeat("q", 50)
	once := Truncate(text, 60)
	assert.Equal(t, once, Truncate(once, 60))
}

func TestTruncateCountsRunes(t *testing.T) {
	text := strings.Repeat("λ", 10)
	assert.Equal(t, text, Truncate(text, 10))
	assert.Equal(t, "λλ"+TruncationMarker+"λλ", Truncate(text, 4))
}

func TestTruncateDefaultBudget(t *testing.T) {
	text := strings.Repeat("k", DefaultMaxChars+1)
	got := Truncate(text, 0)
	assert.Equal(t, DefaultMaxChars+utf8.RuneCountInString(TruncationMarker), utf8.RuneCountInString(got))
}

func TestContextBuilderBuild(t *testing.T) {
	cb := NewContextBuilder(0, MinTextLength)
	assert.Equal(t, DefaultContextChars, cb.MaxChars())

	t.Run("full", func(t *testing.T) {
		text := "--- Page 1 ---\n" + strings.Repeat("force ", 20)
		ctx, kind := cb.Build(documents.ExtractionResult{Success: true, PageCount: 1, Text: text})
		assert.Equal(t, ContextFull, kind)
		assert.Equal(t, text, ctx)
	})

	t.Run("scanned", func(t *testing.T) {
		ctx, kind := cb.Build(documents.ExtractionResult{Success: true, PageCount: 4, Text: ""})
		assert.Equal(t, ContextScanned, kind)
		assert.Empty(t, ctx)
	})

	t.Run("failed", func(t *testing.T) {
		ctx, kind := cb.Build(documents.ExtractionResult{Error: "corrupt"})
		assert.Equal(t, ContextFailed, kind)
		assert.Empty(t, ctx)
	})

	t.Run("long documents are truncated", func(t *testing.T) {
		text := strings.Repeat("e", 60000)
		ctx, kind := cb.Build(documents.ExtractionResult{Success: true, PageCount: 30, Text: text})
		assert.Equal(t, ContextFull, kind)
		assert.Equal(t, 25000+utf8.RuneCountInString(TruncationMarker), utf8.RuneCountInString(ctx))
	})
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Run("with context", func(t *testing.T) {
		p := BuildSystemPrompt("2019 Paper I", "Q.1 projectile motion")
		assert.Contains(t, p, `"2019 Paper I"`)
		assert.Contains(t, p, "=== PAPER CONTENT ===")
		assert.Contains(t, p, "Q.1 projectile motion")
		assert.Contains(t, p, "=== END OF PAPER CONTENT ===")
	})

	t.Run("without context", func(t *testing.T) {
		p := BuildSystemPrompt("2019 Paper I", "   ")
		assert.Contains(t, p, "IIT JEE tutor")
		assert.NotContains(t, p, "PAPER CONTENT")
	})
}
