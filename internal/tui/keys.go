package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Enter    key.Binding
	Back     key.Binding
	Quit     key.Binding
	Search   key.Binding
	SignIn   key.Binding
	Retry    key.Binding

	QuickPrompt key.Binding
	Download    key.Binding
	NewLine     key.Binding

	NextField key.Binding
	PrevField key.Binding
	Save      key.Binding
	Reset     key.Binding
	Reload    key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Left:     key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "left")),
	Right:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "right")),
	PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	SignIn:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "sign in/out")),
	Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),

	QuickPrompt: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("C-p", "quick prompt")),
	Download:    key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("C-d", "download")),
	NewLine:     key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("M-enter", "new line")),

	NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
	PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("S-tab", "previous field")),
	Save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("C-s", "save")),
	Reset:     key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("C-r", "reset to defaults")),
	Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
}

func helpLine(bindings ...key.Binding) string {
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += " | "
		}
		h := b.Help()
		out += h.Key + ": " + h.Desc
	}
	return helpStyle.Render(out)
}
