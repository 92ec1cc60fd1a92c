package documents

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// PageSource is an opened document that yields text page by page.
// Page numbers are zero based.
type PageSource interface {
	NumPage() int
	Text(pageNumber int) (string, error)
	Close() error
}

// Opener parses raw document bytes into a PageSource.
type Opener func(data []byte) (PageSource, error)

// OpenPDF opens PDF bytes with MuPDF.
func OpenPDF(data []byte) (PageSource, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return doc, nil
}

// PageMarker returns the boundary line placed before page n (one based).
func PageMarker(n int) string {
	return fmt.Sprintf("--- Page %d ---", n)
}

// joinFragments collapses a page's text fragments onto one line,
// separated by single spaces.
func joinFragments(pageText string) string {
	lines := strings.Split(pageText, "\n")
	fragments := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			fragments = append(fragments, line)
		}
	}
	return strings.Join(fragments, " ")
}
