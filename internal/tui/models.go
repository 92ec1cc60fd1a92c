package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iit-archive/cli/internal/openrouter"
)

// ModelsView handles model selection
type ModelsView struct {
	selector     *openrouter.ModelSelector
	models       []openrouter.ModelInfo
	selected     int
	offset       int
	currentModel string
	recommended  string
	width        int
	height       int
	loading      bool
	loaded       bool
	errorMsg     string
}

// NewModelsView creates a new models view
func NewModelsView(selector *openrouter.ModelSelector, currentModel string) *ModelsView {
	return &ModelsView{
		selector:     selector,
		currentModel: currentModel,
		width:        80,
		height:       22,
	}
}

// Init loads the model list the first time the view is shown.
func (mv *ModelsView) Init() tea.Cmd {
	if mv.loaded || mv.loading {
		return nil
	}
	mv.loading = true
	return mv.loadModels
}

func (mv *ModelsView) SetSize(width, height int) {
	mv.width = width
	mv.height = height
}

func (mv *ModelsView) Typing() bool { return false }

func (mv *ModelsView) visibleRows() int {
	return max(mv.height-8, 3)
}

func (mv *ModelsView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Down):
			if mv.selected < len(mv.models)-1 {
				mv.selected++
			}
		case key.Matches(msg, keys.Up):
			if mv.selected > 0 {
				mv.selected--
			}
		case key.Matches(msg, keys.Enter):
			if mv.selected >= 0 && mv.selected < len(mv.models) {
				return mv.selectModel
			}
		case key.Matches(msg, keys.Reload):
			mv.loading = true
			mv.errorMsg = ""
			return mv.loadModels
		case key.Matches(msg, keys.Back):
			return navigate(pageYears)
		}
		mv.scroll()
	case modelsLoadedMsg:
		mv.models = msg.models
		mv.loading = false
		mv.loaded = true
		mv.errorMsg = ""
		mv.recommended, _ = openrouter.Recommend(mv.models, "")
		target, _ := openrouter.Recommend(mv.models, mv.currentModel)
		for i, model := range mv.models {
			if model.ID == target {
				mv.selected = i
				break
			}
		}
		mv.scroll()
	case modelSelectedMsg:
		mv.currentModel = msg.model
	case modelsErrorMsg:
		mv.errorMsg = msg.err.Error()
		mv.loading = false
	}
	return nil
}

func (mv *ModelsView) scroll() {
	rows := mv.visibleRows()
	if mv.selected < mv.offset {
		mv.offset = mv.selected
	}
	if mv.selected >= mv.offset+rows {
		mv.offset = mv.selected - rows + 1
	}
}

// View renders the models view
func (mv *ModelsView) View() string {
	var lines []string
	lines = append(lines, titleStyle.Render("Assistant Models"), "")

	if mv.loading {
		lines = append(lines, "Loading models...")
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	if mv.errorMsg != "" {
		lines = append(lines, errorStyle.Render("Error: "+mv.errorMsg), "")
	}

	lines = append(lines, accentStyle.Render(fmt.Sprintf("Current: %s", mv.currentModel)), "")

	if len(mv.models) == 0 {
		lines = append(lines, "No models found. Check the assistant base URL and API key.")
	} else {
		end := min(mv.offset+mv.visibleRows(), len(mv.models))
		for i := mv.offset; i < end; i++ {
			model := mv.models[i]
			style := lipgloss.NewStyle()
			if model.ID == mv.currentModel {
				style = style.Foreground(lipgloss.Color("39"))
			}
			if i == mv.selected {
				style = style.Bold(true).Foreground(lipgloss.Color("205"))
			}
			ctxLen := ""
			if model.ContextLength > 0 {
				ctxLen = fmt.Sprintf("  %dk ctx", model.ContextLength/1000)
			}
			if model.ID == mv.recommended {
				ctxLen += "  recommended"
			}
			lines = append(lines, style.Render(model.ID)+helpStyle.Render(ctxLen))
		}
	}

	lines = append(lines, "", helpLine(keys.Up, keys.Down, keys.Enter, keys.Reload, keys.Back))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// loadModels loads available models
func (mv *ModelsView) loadModels() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	models, err := mv.selector.ListModels(ctx)
	if err != nil {
		return modelsErrorMsg{err: err}
	}
	return modelsLoadedMsg{models: models}
}

// selectModel selects the current model
func (mv *ModelsView) selectModel() tea.Msg {
	if mv.selected < 0 || mv.selected >= len(mv.models) {
		return nil
	}
	return modelSelectedMsg{model: mv.models[mv.selected].ID}
}

// modelsLoadedMsg signals models have been loaded
type modelsLoadedMsg struct {
	models []openrouter.ModelInfo
}

type modelsErrorMsg struct {
	err error
}

// modelSelectedMsg signals a model has been selected
type modelSelectedMsg struct {
	model string
}
