package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/iit-archive/cli/config"
	"github.com/iit-archive/cli/internal/availability"
	"github.com/iit-archive/cli/internal/catalog"
	"github.com/iit-archive/cli/internal/chat"
	"github.com/iit-archive/cli/internal/logger"
	"github.com/iit-archive/cli/internal/openrouter"
)

type page int

const (
	pageYears page = iota
	pagePapers
	pageBooks
	pageViewer
	pageModels
	pageSettings
)

var pageNames = map[page]string{
	pageYears:    "Papers",
	pagePapers:   "Papers",
	pageBooks:    "Books",
	pageViewer:   "Viewer",
	pageModels:   "Models",
	pageSettings: "Settings",
}

type navigateMsg struct{ page page }

type openYearMsg struct{ year catalog.YearData }

type openPaperMsg struct {
	paper   catalog.Paper
	locator string
}

type closeViewerMsg struct{}

func navigate(p page) tea.Cmd {
	return func() tea.Msg { return navigateMsg{page: p} }
}

// view is one screen of the app.
type view interface {
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
	// Typing reports whether keys should go to a text input.
	Typing() bool
}

// Deps are the services the app drives.
type Deps struct {
	Config     *config.Config
	ConfigPath string
	Client     *openrouter.Client
	Manager    *chat.Manager
	Prober     *availability.Prober
	Downloader *Downloader
	Logger     *zap.Logger
}

// App is the root bubbletea model.
type App struct {
	deps   Deps
	logger *zap.Logger

	page   page
	width  int
	height int

	years    *YearsView
	papers   *PapersView
	books    *BooksView
	viewer   *ViewerView
	models   *ModelsView
	settings *SettingsView
}

// NewApp creates the app.
func NewApp(deps Deps) *App {
	deps.Logger = logger.OrNop(deps.Logger)
	if deps.Downloader == nil {
		deps.Downloader = NewDownloader(nil, deps.Logger)
	}

	a := &App{
		deps:   deps,
		logger: deps.Logger.Named("tui"),
		page:   pageYears,
		width:  80,
		height: 24,
	}
	a.years = NewYearsView(catalog.Years())
	a.papers = NewPapersView(deps.Prober, deps.Config)
	a.books = NewBooksView(catalog.Books())
	a.viewer = NewViewerView(deps.Manager, deps.Downloader, deps.Config, deps.Client)
	a.models = NewModelsView(openrouter.NewModelSelector(deps.Client), deps.Client.Model())
	a.settings = NewSettingsView(deps.Config, deps.ConfigPath)
	return a
}

// Run starts the program and blocks until it exits.
func Run(deps Deps) error {
	app := NewApp(deps)
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	deps.Manager.Close()
	return err
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) current() view {
	switch a.page {
	case pagePapers:
		return a.papers
	case pageBooks:
		return a.books
	case pageViewer:
		return a.viewer
	case pageModels:
		return a.models
	case pageSettings:
		return a.settings
	}
	return a.years
}

func (a *App) show(p page) tea.Cmd {
	a.page = p
	a.logger.Debug("page", zap.String("name", pageNames[p]))
	if p == pageModels {
		return a.models.Init()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		h := a.height - 2
		for _, v := range []view{a.years, a.papers, a.books, a.viewer, a.models, a.settings} {
			v.SetSize(a.width, h)
		}
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			a.deps.Manager.Close()
			return a, tea.Quit
		}
		if a.page != pageViewer && !a.current().Typing() {
			switch msg.String() {
			case "1":
				return a, a.show(pageYears)
			case "2":
				return a, a.show(pageBooks)
			case "3":
				return a, a.show(pageModels)
			case "4":
				return a, a.show(pageSettings)
			case "q":
				a.deps.Manager.Close()
				return a, tea.Quit
			}
		}

	case navigateMsg:
		return a, a.show(msg.page)

	case openYearMsg:
		a.papers.SetYear(msg.year)
		return a, a.show(pagePapers)

	case openPaperMsg:
		cmd := a.viewer.Open(msg.paper, msg.locator)
		a.show(pageViewer)
		return a, cmd

	case closeViewerMsg:
		a.viewer.Close()
		return a, a.show(pagePapers)

	case modelSelectedMsg:
		a.deps.Client.SetModel(msg.model)
		a.deps.Config.Assistant.Model = msg.model
		a.settings.Reset()
		return a, a.models.Update(msg)

	case settingsSavedMsg:
		a.deps.Client.SetModel(a.deps.Config.Assistant.Model)
		return a, a.settings.Update(msg)

	case sessionReadyMsg, replyMsg, downloadedMsg, spinner.TickMsg:
		return a, a.viewer.Update(msg)

	case probeMsg:
		return a, a.papers.Update(msg)

	case modelsLoadedMsg, modelsErrorMsg:
		return a, a.models.Update(msg)
	}

	return a, a.current().Update(msg)
}

func (a *App) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, a.tabs(), "", a.current().View())
}

func (a *App) tabs() string {
	items := []struct {
		key  string
		name string
		on   bool
	}{
		{"1", "Papers", a.page == pageYears || a.page == pagePapers || a.page == pageViewer},
		{"2", "Books", a.page == pageBooks},
		{"3", "Models", a.page == pageModels},
		{"4", "Settings", a.page == pageSettings},
	}

	out := titleStyle.Render("IIT Archive") + "  "
	for _, it := range items {
		label := it.key + " " + it.name
		if it.on {
			out += accentStyle.Render("["+label+"]") + " "
		} else {
			out += helpStyle.Render(" "+label+" ") + " "
		}
	}
	return out
}
