package catalog

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

// Subject is an exam subject.
type Subject string

const (
	Physics     Subject = "Physics"
	Chemistry   Subject = "Chemistry"
	Mathematics Subject = "Mathematics"
)

const (
	FirstYear = 1985
	LastYear  = 2025

	// PreviewLimit is how many years are open without signing in.
	PreviewLimit = 12
)

// Paper is one exam paper.
type Paper struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// YearData groups the papers of one exam year.
type YearData struct {
	Year   int     `json:"year"`
	Papers []Paper `json:"papers"`
}

// Book is a reference book.
type Book struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subject     Subject `json:"subject"`
	CoverURL    string  `json:"cover_url"`
	DownloadURL string  `json:"download_url"`
}

// PaperPath returns the archive path of paper n of year.
func PaperPath(year, n int) string {
	return fmt.Sprintf("/papers/%d/paper-%d.pdf", year, n)
}

// Years lists every exam year, newest first.
func Years() []YearData {
	years := make([]YearData, 0, LastYear-FirstYear+1)
	for year := LastYear; year >= FirstYear; year-- {
		years = append(years, YearData{
			Year: year,
			Papers: []Paper{
				{ID: fmt.Sprintf("%d-1", year), Title: fmt.Sprintf("%d Paper I", year), URL: PaperPath(year, 1)},
				{ID: fmt.Sprintf("%d-2", year), Title: fmt.Sprintf("%d Paper II", year), URL: PaperPath(year, 2)},
			},
		})
	}
	return years
}

func cover(id int) string {
	return fmt.Sprintf("https://picsum.photos/id/%d/300/400", id)
}

// Books lists the reference books.
func Books() []Book {
	return []Book{
		{ID: "b1", Title: "Concepts of Physics", Author: "H.C. Verma", Subject: Physics, CoverURL: cover(24), DownloadURL: "#"},
		{ID: "b2", Title: "Problems in General Physics", Author: "I.E. Irodov", Subject: Physics, CoverURL: cover(25), DownloadURL: "#"},
		{ID: "b3", Title: "Organic Chemistry", Author: "Morrison & Boyd", Subject: Chemistry, CoverURL: cover(30), DownloadURL: "#"},
		{ID: "b4", Title: "Physical Chemistry", Author: "P. Bahadur", Subject: Chemistry, CoverURL: cover(42), DownloadURL: "#"},
		{ID: "b5", Title: "Calculus for IIT-JEE", Author: "Amit M. Agarwal", Subject: Mathematics, CoverURL: cover(20), DownloadURL: "#"},
		{ID: "b6", Title: "Higher Algebra", Author: "Hall & Knight", Subject: Mathematics, CoverURL: cover(21), DownloadURL: "#"},
		{ID: "b7", Title: "Fundamentals of Physics", Author: "Resnick & Halliday", Subject: Physics, CoverURL: cover(35), DownloadURL: "#"},
		{ID: "b8", Title: "Coordinate Geometry", Author: "S.L. Loney", Subject: Mathematics, CoverURL: cover(36), DownloadURL: "#"},
		{ID: "b9", Title: "Inorganic Chemistry", Author: "J.D. Lee", Subject: Chemistry, CoverURL: cover(48), DownloadURL: "#"},
	}
}

// FilterYears keeps the years whose number contains query.
func FilterYears(years []YearData, query string) []YearData {
	query = strings.TrimSpace(query)
	if query == "" {
		return years
	}
	var out []YearData
	for _, y := range years {
		if strings.Contains(strconv.Itoa(y.Year), query) {
			out = append(out, y)
		}
	}
	return out
}

// FilterBooks keeps the books whose title, author or subject contains
// query, ignoring case.
func FilterBooks(books []Book, query string) []Book {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return books
	}
	var out []Book
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(string(b.Subject)), q) {
			out = append(out, b)
		}
	}
	return out
}

// Locked reports whether the year at index of a listing is behind the
// sign-in gate.
func Locked(index int, authenticated bool) bool {
	return !authenticated && index >= PreviewLimit
}

// HiddenCount is how many entries of a listing of n are locked.
func HiddenCount(n int, authenticated bool) int {
	if authenticated || n <= PreviewLimit {
		return 0
	}
	return n - PreviewLimit
}

// ResolveURL turns a paper path into a locator under base, which is an
// http(s) URL or a local directory. Absolute URLs are returned as is.
func ResolveURL(base, paperURL string) string {
	if u, err := url.Parse(paperURL); err == nil && u.Scheme != "" {
		return paperURL
	}
	if base == "" {
		return paperURL
	}

	if u, err := url.Parse(base); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(paperURL, "/")
	}

	base = strings.TrimPrefix(base, "file://")
	return filepath.Join(base, filepath.FromSlash(strings.TrimLeft(paperURL, "/")))
}

// FileName is the download file name for a paper title.
func FileName(title string) string {
	return strings.Join(strings.Fields(title), "-") + ".pdf"
}
