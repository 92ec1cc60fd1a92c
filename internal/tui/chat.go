package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/iit-archive/cli/config"
	"github.com/iit-archive/cli/internal/catalog"
	"github.com/iit-archive/cli/internal/chat"
	"github.com/iit-archive/cli/internal/openrouter"
)

var quickPrompts = []string{
	"Summarize the questions on this page.",
	"Highlight the key formulas used in the paper.",
	"Explain the concept behind question 2.",
	"List the chapters this paper covers.",
}

type sessionReadyMsg struct{ session *chat.Session }

type replyMsg struct {
	session *chat.Session
	turn    chat.Turn
	ok      bool
}

type downloadedMsg struct {
	path string
	err  error
}

// ViewerView is the paper viewer with the study assistant.
type ViewerView struct {
	manager    *chat.Manager
	downloader *Downloader
	cfg        *config.Config
	client     *openrouter.Client

	session *chat.Session
	paper   catalog.Paper
	locator string

	viewport viewport.Model
	composer textarea.Model
	spinner  spinner.Model
	ticking  bool

	prompt    int
	notice    string
	noticeErr bool

	width  int
	height int
}

// NewViewerView creates the viewer.
func NewViewerView(manager *chat.Manager, downloader *Downloader, cfg *config.Config, client *openrouter.Client) *ViewerView {
	composer := textarea.New()
	composer.Placeholder = "Ask about this paper... (enter to send)"
	composer.CharLimit = 2000
	composer.ShowLineNumbers = false
	composer.Prompt = "> "
	composer.SetHeight(2)
	composer.SetWidth(80)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 15)
	vp.MouseWheelEnabled = true

	return &ViewerView{
		manager:    manager,
		downloader: downloader,
		cfg:        cfg,
		client:     client,
		viewport:   vp,
		composer:   composer,
		spinner:    spin,
		prompt:     -1,
		width:      80,
		height:     22,
	}
}

func (vv *ViewerView) SetSize(width, height int) {
	vv.width = width
	vv.height = height
	vv.composer.SetWidth(width)
	vv.viewport.Width = width
	vv.viewport.Height = max(height-9, 3)
	vv.refresh()
}

func (vv *ViewerView) Typing() bool { return true }

// Open starts a session for paper. Extraction runs in the background.
func (vv *ViewerView) Open(paper catalog.Paper, locator string) tea.Cmd {
	vv.paper = paper
	vv.locator = locator
	vv.session = vv.manager.Open(locator, paper.Title)
	vv.prompt = -1
	vv.notice = ""
	vv.composer.Reset()
	vv.refresh()

	s := vv.session
	return tea.Batch(
		vv.composer.Focus(),
		vv.startSpinner(),
		func() tea.Msg {
			s.Open(context.Background())
			return sessionReadyMsg{session: s}
		},
	)
}

// Close ends the current session.
func (vv *ViewerView) Close() {
	vv.manager.Close()
	vv.session = nil
	vv.composer.Blur()
}

func (vv *ViewerView) busy() bool {
	if vv.session == nil {
		return false
	}
	return vv.session.Status() == chat.StatusLoading || vv.session.InFlight()
}

func (vv *ViewerView) startSpinner() tea.Cmd {
	if vv.ticking {
		return nil
	}
	vv.ticking = true
	return vv.spinner.Tick
}

func (vv *ViewerView) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case sessionReadyMsg:
		if msg.session == vv.session {
			vv.refresh()
		}
		return nil

	case replyMsg:
		if msg.session == vv.session && msg.ok {
			vv.refresh()
		}
		return nil

	case downloadedMsg:
		if msg.err != nil {
			vv.setNotice("Download failed: "+msg.err.Error(), true)
		} else {
			vv.setNotice("Saved to "+msg.path, false)
		}
		return nil

	case spinner.TickMsg:
		if !vv.busy() {
			vv.ticking = false
			return nil
		}
		var cmd tea.Cmd
		vv.spinner, cmd = vv.spinner.Update(msg)
		vv.refresh()
		return cmd

	case tea.KeyMsg:
		return vv.handleKey(msg)
	}
	return nil
}

func (vv *ViewerView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Back):
		return func() tea.Msg { return closeViewerMsg{} }
	case key.Matches(msg, keys.QuickPrompt):
		vv.prompt = (vv.prompt + 1) % len(quickPrompts)
		vv.composer.SetValue(quickPrompts[vv.prompt])
		vv.composer.CursorEnd()
		return nil
	case key.Matches(msg, keys.Download):
		return vv.download()
	case key.Matches(msg, keys.PageUp):
		vv.viewport.HalfViewUp()
		return nil
	case key.Matches(msg, keys.PageDown):
		vv.viewport.HalfViewDown()
		return nil
	case key.Matches(msg, keys.NewLine):
		vv.composer.InsertString("\n")
		return nil
	case msg.Type == tea.KeyEnter:
		return vv.send()
	}

	var cmd tea.Cmd
	vv.composer, cmd = vv.composer.Update(msg)
	return cmd
}

func (vv *ViewerView) send() tea.Cmd {
	if vv.session == nil {
		return nil
	}

	ex, err := vv.session.SendMessage(vv.composer.Value())
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return nil
	case errors.Is(err, chat.ErrRequestInFlight):
		vv.setNotice("Wait for the current answer before asking again.", false)
		return nil
	case err != nil:
		vv.setNotice(err.Error(), true)
		return nil
	}

	vv.composer.Reset()
	vv.prompt = -1
	vv.notice = ""
	vv.refresh()

	s := vv.session
	return tea.Batch(vv.startSpinner(), func() tea.Msg {
		turn, ok := s.Await(context.Background(), ex)
		return replyMsg{session: s, turn: turn, ok: ok}
	})
}

func (vv *ViewerView) download() tea.Cmd {
	if vv.locator == "" {
		return nil
	}
	locator, dir, name := vv.locator, vv.cfg.Paths.DownloadDir, catalog.FileName(vv.paper.Title)
	d := vv.downloader
	vv.setNotice("Downloading "+name+"...", false)
	return func() tea.Msg {
		path, err := d.Download(context.Background(), locator, dir, name)
		return downloadedMsg{path: path, err: err}
	}
}

func (vv *ViewerView) setNotice(s string, isErr bool) {
	vv.notice = s
	vv.noticeErr = isErr
}

func (vv *ViewerView) refresh() {
	if vv.session == nil {
		vv.viewport.SetContent("")
		return
	}
	vv.viewport.SetContent(renderTranscript(vv.session.Turns(), vv.session.Status(), vv.spinner.View(), vv.viewport.Width))
	vv.viewport.GotoBottom()
}

// renderTranscript lays out the conversation for a viewport of width.
func renderTranscript(turns []chat.Turn, status chat.Status, spin string, width int) string {
	if width < 20 {
		width = 20
	}
	var blocks []string

	if status == chat.StatusLoading {
		blocks = append(blocks, warnStyle.Render(spin+" Reading the paper..."))
	}

	for _, t := range turns {
		stamp := timestampStyle.Render(t.CreatedAt.Format("15:04"))
		switch {
		case t.Role == chat.RoleUser:
			blocks = append(blocks,
				userLabelStyle.Render("You")+" "+stamp+"\n"+ansi.Wrap(t.Content, width, " "))
		case t.Pending:
			blocks = append(blocks,
				assistantLabelStyle.Render("Assistant")+" "+stamp+"\n"+warnStyle.Render(spin+" Thinking..."))
		case t.IsError:
			blocks = append(blocks,
				assistantLabelStyle.Render("Assistant")+" "+stamp+"\n"+
					errorTurnStyle.Width(width-2).Render("Error: "+t.Content))
		default:
			blocks = append(blocks,
				assistantLabelStyle.Render("Assistant")+" "+stamp+"\n"+renderMarkdown(t.Content, width))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (vv *ViewerView) View() string {
	if vv.session == nil {
		return helpStyle.Render("No paper open.")
	}

	status := string(vv.session.Status())
	header := titleStyle.Render(vv.paper.Title) + "  " +
		statusStyles[status].Render(status) + "  " +
		helpStyle.Render("model: "+vv.client.Model())

	var lines []string
	lines = append(lines, header, helpStyle.Render(vv.locator), "")
	lines = append(lines, vv.viewport.View(), "")

	switch {
	case vv.notice != "" && vv.noticeErr:
		lines = append(lines, errorStyle.Render(vv.notice))
	case vv.notice != "":
		lines = append(lines, accentStyle.Render(vv.notice))
	case vv.prompt >= 0:
		lines = append(lines, helpStyle.Render(fmt.Sprintf("Quick prompt %d/%d", vv.prompt+1, len(quickPrompts))))
	default:
		lines = append(lines, "")
	}

	lines = append(lines, vv.composer.View())
	lines = append(lines, helpLine(keys.QuickPrompt, keys.Download, keys.NewLine, keys.PageUp, keys.Back))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
