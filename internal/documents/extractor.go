package documents

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iit-archive/cli/internal/logger"
)

// ExtractionResult is the outcome of reading one document's text.
// A failed result always carries an empty Text and a zero PageCount.
type ExtractionResult struct {
	Success   bool   `json:"success"`
	PageCount int    `json:"page_count"`
	Text      string `json:"text"`
	Error     string `json:"error,omitempty"`
}

func failed(err error) ExtractionResult {
	return ExtractionResult{Success: false, Error: err.Error()}
}

// Extractor fetches documents by locator and extracts their text.
type Extractor struct {
	httpClient *http.Client
	open       Opener
	logger     *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient sets the client used for http(s) locators.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) {
		e.httpClient = c
	}
}

// WithOpener replaces the PDF parser.
func WithOpener(open Opener) Option {
	return func(e *Extractor) {
		e.open = open
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger.OrNop(l)
	}
}

// NewExtractor creates an extractor backed by MuPDF.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		httpClient: &http.Client{},
		open:       OpenPDF,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract loads the document at locator and returns its text, one
// marked section per page in ascending order. It never returns an
// error: failures are reported through the result.
func (e *Extractor) Extract(ctx context.Context, locator string) (result ExtractionResult) {
	start := time.Now()
	log := e.logger.With(zap.String("locator", locator))

	defer func() {
		if r := recover(); r != nil {
			result = failed(fmt.Errorf("parser panic: %v", r))
		}
		if result.Success {
			log.Info("extraction finished",
				zap.Int("pages", result.PageCount),
				zap.Int("chars", len(result.Text)),
				zap.Duration("took", time.Since(start)))
		} else {
			log.Warn("extraction failed", zap.String("error", result.Error))
		}
	}()

	data, err := e.fetch(ctx, locator)
	if err != nil {
		return failed(err)
	}

	doc, err := e.open(data)
	if err != nil {
		return failed(err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount < 0 {
		return failed(fmt.Errorf("invalid page count %d", pageCount))
	}

	parts := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return failed(err)
		}
		text, err := doc.Text(i)
		if err != nil {
			return failed(fmt.Errorf("failed to read page %d: %w", i+1, err))
		}
		parts = append(parts, PageMarker(i+1)+"\n"+joinFragments(text))
	}

	return ExtractionResult{
		Success:   true,
		PageCount: pageCount,
		Text:      strings.Join(parts, "\n\n"),
	}
}

// fetch returns the raw bytes behind locator. http(s) URLs are
// downloaded; file URLs and plain paths are read from disk.
func (e *Extractor) fetch(ctx context.Context, locator string) ([]byte, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, fmt.Errorf("empty document locator")
	}

	u, err := url.Parse(locator)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return e.download(ctx, locator)
		case "file":
			return readFile(u.Path)
		}
	}
	return readFile(locator)
}

func (e *Extractor) download(ctx context.Context, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch document: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return data, nil
}

// BodyText strips page markers and surrounding whitespace from an
// extraction's text.
func BodyText(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isPageMarker(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, " ")
}

// IsScanned reports whether a successful extraction produced too little
// text to be useful, which is what image-only documents look like.
func IsScanned(result ExtractionResult, minTextLength int) bool {
	if !result.Success {
		return false
	}
	return len([]rune(BodyText(result.Text))) < minTextLength
}

func isPageMarker(line string) bool {
	if !strings.HasPrefix(line, "--- Page ") || !strings.HasSuffix(line, " ---") {
		return false
	}
	n := strings.TrimSuffix(strings.TrimPrefix(line, "--- Page "), " ---")
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return n != ""
}
