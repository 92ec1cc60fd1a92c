package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iit-archive/cli/config"
)

type settingsSavedMsg struct{}

type settingsField int

const (
	fieldArchiveURL settingsField = iota
	fieldModel
	fieldDownloadDir
	fieldMaxChars
	fieldLogLevel
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Archive base URL",
	"Assistant model",
	"Download directory",
	"Context max chars",
	"Log level",
}

// SettingsView edits and saves the config file.
type SettingsView struct {
	cfg    *config.Config
	path   string
	inputs [fieldCount]textinput.Model
	focus  settingsField
	status string
	isErr  bool

	width  int
	height int
}

// NewSettingsView creates the settings form.
func NewSettingsView(cfg *config.Config, path string) *SettingsView {
	sv := &SettingsView{cfg: cfg, path: path, width: 80, height: 22}
	for i := range sv.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Width = 50
		sv.inputs[i] = in
	}
	sv.Reset()
	return sv
}

// Reset loads the form from the current config.
func (sv *SettingsView) Reset() {
	sv.fill(sv.cfg)
}

func (sv *SettingsView) fill(cfg *config.Config) {
	sv.inputs[fieldArchiveURL].SetValue(cfg.Archive.BaseURL)
	sv.inputs[fieldModel].SetValue(cfg.Assistant.Model)
	sv.inputs[fieldDownloadDir].SetValue(cfg.Paths.DownloadDir)
	sv.inputs[fieldMaxChars].SetValue(strconv.Itoa(cfg.Context.MaxChars))
	sv.inputs[fieldLogLevel].SetValue(cfg.Logging.Level)
}

func (sv *SettingsView) SetSize(width, height int) {
	sv.width = width
	sv.height = height
}

func (sv *SettingsView) Typing() bool {
	return sv.inputs[sv.focus].Focused()
}

func (sv *SettingsView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		sv.setStatus("Settings saved to "+sv.path, false)
		return nil

	case tea.KeyMsg:
		editing := sv.inputs[sv.focus].Focused()
		switch {
		case key.Matches(msg, keys.Save):
			return sv.save()
		case key.Matches(msg, keys.Reset):
			sv.fill(config.Default())
			sv.setStatus("Reset to defaults. Press ctrl+s to apply.", false)
			return nil
		case key.Matches(msg, keys.Back):
			if editing {
				sv.inputs[sv.focus].Blur()
				return nil
			}
			return navigate(pageYears)
		case key.Matches(msg, keys.NextField):
			return sv.move(1)
		case key.Matches(msg, keys.PrevField):
			return sv.move(-1)
		case msg.Type == tea.KeyEnter && !editing:
			return sv.inputs[sv.focus].Focus()
		case msg.Type == tea.KeyEnter:
			return sv.move(1)
		}
		if editing {
			var cmd tea.Cmd
			sv.inputs[sv.focus], cmd = sv.inputs[sv.focus].Update(msg)
			return cmd
		}
	}
	return nil
}

func (sv *SettingsView) move(delta int) tea.Cmd {
	editing := sv.inputs[sv.focus].Focused()
	sv.inputs[sv.focus].Blur()
	sv.focus = settingsField((int(sv.focus) + delta + int(fieldCount)) % int(fieldCount))
	if editing {
		return sv.inputs[sv.focus].Focus()
	}
	return nil
}

func (sv *SettingsView) setStatus(s string, isErr bool) {
	sv.status = s
	sv.isErr = isErr
}

// save validates the form and writes the config file.
func (sv *SettingsView) save() tea.Cmd {
	next := *sv.cfg
	next.Archive.BaseURL = strings.TrimSpace(sv.inputs[fieldArchiveURL].Value())
	next.Assistant.Model = strings.TrimSpace(sv.inputs[fieldModel].Value())
	next.Paths.DownloadDir = expandHome(strings.TrimSpace(sv.inputs[fieldDownloadDir].Value()))
	next.Logging.Level = strings.TrimSpace(sv.inputs[fieldLogLevel].Value())

	maxChars, err := strconv.Atoi(strings.TrimSpace(sv.inputs[fieldMaxChars].Value()))
	if err != nil {
		sv.setStatus("Context max chars must be a number", true)
		return nil
	}
	next.Context.MaxChars = maxChars

	if err := next.Validate(); err != nil {
		sv.setStatus(err.Error(), true)
		return nil
	}
	if err := next.Save(sv.path); err != nil {
		sv.setStatus(fmt.Sprintf("Error saving settings: %v", err), true)
		return nil
	}

	*sv.cfg = next
	sv.inputs[fieldDownloadDir].SetValue(next.Paths.DownloadDir)
	return func() tea.Msg { return settingsSavedMsg{} }
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		return filepath.Join(os.Getenv("HOME"), strings.TrimPrefix(path, "~"))
	}
	return path
}

func (sv *SettingsView) View() string {
	var lines []string
	lines = append(lines, titleStyle.Render("Settings"), "")

	for i := range sv.inputs {
		label := fmt.Sprintf("%-20s", fieldLabels[i])
		if settingsField(i) == sv.focus {
			label = selectedStyle.Render("> " + label)
		} else {
			label = "  " + label
		}
		lines = append(lines, label+" "+sv.inputs[i].View())
	}

	apiKey := errorStyle.Render("missing (set " + config.EnvAPIKey + ")")
	if sv.cfg.Assistant.APIKey != "" {
		apiKey = successStyle.Render("set")
	}
	lines = append(lines,
		"",
		"  API key             "+apiKey,
		"  Assistant endpoint  "+helpStyle.Render(sv.cfg.Assistant.BaseURL),
		"  Log file            "+helpStyle.Render(sv.cfg.Logging.FilePath),
		helpStyle.Render("  Context and log changes apply after restart."),
	)

	if sv.status != "" {
		style := successStyle
		if sv.isErr {
			style = errorStyle
		}
		lines = append(lines, "", style.Render(sv.status))
	}

	lines = append(lines, "", helpLine(keys.NextField, keys.Enter, keys.Save, keys.Reset, keys.Back))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
