package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iit-archive/cli/internal/catalog"
)

// BooksView lists reference books with a search box.
type BooksView struct {
	all      []catalog.Book
	filtered []catalog.Book
	search   textinput.Model
	selected int
	notice   string

	width  int
	height int
}

// NewBooksView creates the books list.
func NewBooksView(books []catalog.Book) *BooksView {
	search := textinput.New()
	search.Placeholder = "Search by title, author or subject"
	search.Prompt = "/ "
	search.Width = 40

	return &BooksView{
		all:      books,
		filtered: books,
		search:   search,
		width:    80,
		height:   22,
	}
}

func (bv *BooksView) SetSize(width, height int) {
	bv.width = width
	bv.height = height
}

func (bv *BooksView) Typing() bool {
	return bv.search.Focused()
}

func (bv *BooksView) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if bv.search.Focused() {
		switch km.Type {
		case tea.KeyEnter, tea.KeyEsc:
			bv.search.Blur()
			return nil
		}
		var cmd tea.Cmd
		bv.search, cmd = bv.search.Update(km)
		bv.filtered = catalog.FilterBooks(bv.all, bv.search.Value())
		if bv.selected >= len(bv.filtered) {
			bv.selected = max(len(bv.filtered)-1, 0)
		}
		return cmd
	}

	bv.notice = ""
	switch {
	case key.Matches(km, keys.Search):
		return bv.search.Focus()
	case key.Matches(km, keys.Up):
		if bv.selected > 0 {
			bv.selected--
		}
	case key.Matches(km, keys.Down):
		if bv.selected < len(bv.filtered)-1 {
			bv.selected++
		}
	case key.Matches(km, keys.Back):
		return navigate(pageYears)
	case key.Matches(km, keys.Enter):
		if len(bv.filtered) > 0 {
			b := bv.filtered[bv.selected]
			if b.DownloadURL == "" || b.DownloadURL == "#" {
				bv.notice = fmt.Sprintf("%s is not available for download yet.", b.Title)
			} else {
				bv.notice = "Download: " + b.DownloadURL
			}
		}
	}
	return nil
}

func (bv *BooksView) View() string {
	var lines []string
	lines = append(lines, titleStyle.Render("Reference Books"), "", bv.search.View(), "")

	if len(bv.filtered) == 0 {
		lines = append(lines, helpStyle.Render(fmt.Sprintf("No books match %q.", bv.search.Value())))
	}
	for i, b := range bv.filtered {
		subject := helpStyle.Render("[" + string(b.Subject) + "]")
		if i == bv.selected {
			lines = append(lines, selectedStyle.Render("> "+b.Title)+" by "+b.Author+" "+subject)
			lines = append(lines, helpStyle.Render("    cover: "+b.CoverURL))
			continue
		}
		lines = append(lines, "  "+b.Title+" by "+b.Author+" "+subject)
	}

	if bv.notice != "" {
		lines = append(lines, "", accentStyle.Render(bv.notice))
	}
	lines = append(lines, "", helpLine(keys.Up, keys.Down, keys.Search, keys.Enter, keys.Back))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
