package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iit-archive/cli/config"
	"github.com/iit-archive/cli/internal/availability"
	"github.com/iit-archive/cli/internal/catalog"
)

type probeMsg struct {
	paper   catalog.Paper
	locator string
	result  availability.Result
}

// PapersView lists the papers of one year and checks availability
// before opening the viewer.
type PapersView struct {
	prober *availability.Prober
	cfg    *config.Config

	year     catalog.YearData
	selected int
	probing  bool
	banner   string

	width  int
	height int
}

// NewPapersView creates the papers list.
func NewPapersView(prober *availability.Prober, cfg *config.Config) *PapersView {
	return &PapersView{
		prober: prober,
		cfg:    cfg,
		width:  80,
		height: 22,
	}
}

// SetYear shows the papers of year.
func (pv *PapersView) SetYear(year catalog.YearData) {
	pv.year = year
	pv.selected = 0
	pv.banner = ""
	pv.probing = false
}

func (pv *PapersView) SetSize(width, height int) {
	pv.width = width
	pv.height = height
}

func (pv *PapersView) Typing() bool { return false }

func (pv *PapersView) locator(p catalog.Paper) string {
	return catalog.ResolveURL(pv.cfg.Archive.BaseURL, p.URL)
}

func (pv *PapersView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case probeMsg:
		pv.probing = false
		if !msg.result.Available {
			pv.banner = fmt.Sprintf("%s is not available right now: %s", msg.paper.Title, msg.result.Reason)
			return nil
		}
		pv.banner = ""
		return func() tea.Msg { return openPaperMsg{paper: msg.paper, locator: msg.locator} }

	case tea.KeyMsg:
		if pv.probing {
			return nil
		}
		switch {
		case key.Matches(msg, keys.Up):
			if pv.selected > 0 {
				pv.selected--
			}
		case key.Matches(msg, keys.Down):
			if pv.selected < len(pv.year.Papers)-1 {
				pv.selected++
			}
		case key.Matches(msg, keys.Back):
			return navigate(pageYears)
		case key.Matches(msg, keys.Retry):
			if len(pv.year.Papers) > 0 {
				pv.prober.Forget(pv.locator(pv.year.Papers[pv.selected]))
				return pv.probe()
			}
		case key.Matches(msg, keys.Enter):
			return pv.probe()
		}
	}
	return nil
}

func (pv *PapersView) probe() tea.Cmd {
	if len(pv.year.Papers) == 0 {
		return nil
	}
	paper := pv.year.Papers[pv.selected]
	locator := pv.locator(paper)
	timeout := pv.cfg.Archive.ProbeTimeout
	pv.probing = true
	pv.banner = ""

	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return probeMsg{paper: paper, locator: locator, result: pv.prober.Check(ctx, locator)}
	}
}

func (pv *PapersView) View() string {
	var lines []string
	lines = append(lines, titleStyle.Render(fmt.Sprintf("%d Papers", pv.year.Year)), "")

	for i, p := range pv.year.Papers {
		line := fmt.Sprintf("  %s  %s", p.Title, helpStyle.Render(p.URL))
		if i == pv.selected {
			line = selectedStyle.Render("> "+p.Title) + "  " + helpStyle.Render(p.URL)
		}
		lines = append(lines, line)
	}

	if pv.probing {
		lines = append(lines, "", warnStyle.Render("Checking availability..."))
	}
	if pv.banner != "" {
		lines = append(lines, "", bannerStyle.Render(pv.banner))
	}

	lines = append(lines, "", helpLine(keys.Up, keys.Down, keys.Enter, keys.Retry, keys.Back))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
