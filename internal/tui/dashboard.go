package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iit-archive/cli/internal/catalog"
)

// YearsView is the landing grid of exam years.
type YearsView struct {
	all      []catalog.YearData
	filtered []catalog.YearData
	search   textinput.Model

	cursor        int
	authenticated bool
	notice        string

	width  int
	height int
}

// NewYearsView creates the years grid.
func NewYearsView(years []catalog.YearData) *YearsView {
	search := textinput.New()
	search.Placeholder = "Search by year (e.g. 2019)"
	search.Prompt = "/ "
	search.CharLimit = 4
	search.Width = 30

	return &YearsView{
		all:      years,
		filtered: years,
		search:   search,
		width:    80,
		height:   22,
	}
}

func (yv *YearsView) SetSize(width, height int) {
	yv.width = width
	yv.height = height
}

func (yv *YearsView) Typing() bool {
	return yv.search.Focused()
}

func (yv *YearsView) columns() int {
	cols := yv.width / cellStyle.GetWidth()
	if cols < 1 {
		cols = 1
	}
	return cols
}

func (yv *YearsView) applyFilter() {
	yv.filtered = catalog.FilterYears(yv.all, yv.search.Value())
	if yv.cursor >= len(yv.filtered) {
		yv.cursor = max(len(yv.filtered)-1, 0)
	}
}

func (yv *YearsView) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if yv.search.Focused() {
		switch km.Type {
		case tea.KeyEnter, tea.KeyEsc:
			yv.search.Blur()
			return nil
		}
		var cmd tea.Cmd
		yv.search, cmd = yv.search.Update(km)
		yv.applyFilter()
		return cmd
	}

	yv.notice = ""
	cols := yv.columns()
	switch {
	case key.Matches(km, keys.Search):
		return yv.search.Focus()
	case key.Matches(km, keys.SignIn):
		yv.authenticated = !yv.authenticated
		if yv.authenticated {
			yv.notice = "Signed in. The full archive is unlocked."
		} else {
			yv.notice = "Signed out."
		}
	case key.Matches(km, keys.Left):
		if yv.cursor > 0 {
			yv.cursor--
		}
	case key.Matches(km, keys.Right):
		if yv.cursor < len(yv.filtered)-1 {
			yv.cursor++
		}
	case key.Matches(km, keys.Up):
		if yv.cursor-cols >= 0 {
			yv.cursor -= cols
		}
	case key.Matches(km, keys.Down):
		if yv.cursor+cols < len(yv.filtered) {
			yv.cursor += cols
		}
	case key.Matches(km, keys.Back):
		if yv.search.Value() != "" {
			yv.search.SetValue("")
			yv.applyFilter()
		}
	case key.Matches(km, keys.Enter):
		return yv.open()
	}
	return nil
}

func (yv *YearsView) open() tea.Cmd {
	if len(yv.filtered) == 0 {
		return nil
	}
	if catalog.Locked(yv.cursor, yv.authenticated) {
		yv.notice = "This year is locked. Press l to sign in and unlock the full archive."
		return nil
	}
	year := yv.filtered[yv.cursor]
	return func() tea.Msg { return openYearMsg{year: year} }
}

func (yv *YearsView) View() string {
	var lines []string
	lines = append(lines, titleStyle.Render("Previous Year Papers"), "")
	lines = append(lines, yv.search.View(), "")

	if len(yv.filtered) == 0 {
		lines = append(lines, helpStyle.Render(fmt.Sprintf("No years match %q.", yv.search.Value())))
	} else {
		cols := yv.columns()
		var row []string
		for i, y := range yv.filtered {
			label := strconv.Itoa(y.Year)
			style := cellStyle
			switch {
			case catalog.Locked(i, yv.authenticated):
				label += " 🔒"
				style = style.Inherit(lockedStyle)
			case i == yv.cursor:
				style = style.Inherit(selectedStyle)
			}
			if i == yv.cursor {
				label = "> " + label
			}
			row = append(row, style.Render(label))
			if len(row) == cols || i == len(yv.filtered)-1 {
				lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, row...))
				row = nil
			}
		}
	}

	if hidden := catalog.HiddenCount(len(yv.filtered), yv.authenticated); hidden > 0 {
		lines = append(lines, "", warnStyle.Render(fmt.Sprintf(
			"Unlock the full archive: %d more years are available after signing in (press l).", hidden)))
	}

	if yv.notice != "" {
		lines = append(lines, "", accentStyle.Render(yv.notice))
	}

	signIn := "signed out"
	if yv.authenticated {
		signIn = "signed in"
	}
	lines = append(lines, "", helpLine(keys.Enter, keys.Search, keys.SignIn)+helpStyle.Render(
		strings.Join([]string{"", "1-4: switch", "q: quit", signIn}, " | ")))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
