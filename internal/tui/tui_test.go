package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iit-archive/cli/config"
	"github.com/iit-archive/cli/internal/availability"
	"github.com/iit-archive/cli/internal/catalog"
	"github.com/iit-archive/cli/internal/chat"
	"github.com/iit-archive/cli/internal/documents"
	"github.com/iit-archive/cli/internal/openrouter"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestRenderMarkdown(t *testing.T) {
	out := ansi.Strip(renderMarkdown("## Approach\n\nUse **energy conservation** here.\n\n- first step\n- second step\n\n1. one\n2. two\n\n`v = u + at`", 60))

	assert.Contains(t, out, "Approach")
	assert.NotContains(t, out, "##")
	assert.Contains(t, out, "Use energy conservation here.")
	assert.NotContains(t, out, "**")
	assert.Contains(t, out, "• first step")
	assert.Contains(t, out, "• second step")
	assert.Contains(t, out, "1. one")
	assert.Contains(t, out, "2. two")
	assert.Contains(t, out, "v = u + at")
	assert.Empty(t, renderMarkdown("   ", 60))
}

func TestRenderMarkdownWraps(t *testing.T) {
	out := ansi.Strip(renderMarkdown(strings.Repeat("word ", 40), 30))
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 30)
	}
}

func TestRenderTranscript(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC)
	turns := []chat.Turn{
		{ID: "w", Role: chat.RoleAssistant, Content: "Hi! I am your IIT Study Assistant.", Welcome: true, CreatedAt: now},
		{ID: "u", Role: chat.RoleUser, Content: "Explain question 2.", CreatedAt: now},
		{ID: "e", Role: chat.RoleAssistant, Content: "No auth credentials found", IsError: true, CreatedAt: now},
		{ID: "u2", Role: chat.RoleUser, Content: "Try again", CreatedAt: now},
		{ID: "p", Role: chat.RoleAssistant, Pending: true, CreatedAt: now},
	}

	out := ansi.Strip(renderTranscript(turns, chat.StatusReady, "*", 60))

	assert.Contains(t, out, "Hi! I am your IIT Study Assistant.")
	assert.Contains(t, out, "You 10:30")
	assert.Contains(t, out, "Error: No auth credentials found")
	assert.Contains(t, out, "* Thinking...")
	assert.NotContains(t, out, "Reading the paper")

	loading := ansi.Strip(renderTranscript(nil, chat.StatusLoading, "*", 60))
	assert.Contains(t, loading, "Reading the paper...")
}

func TestYearsViewLockAndSignIn(t *testing.T) {
	yv := NewYearsView(catalog.Years())
	yv.SetSize(12, 20)

	for i := 0; i < catalog.PreviewLimit; i++ {
		yv.Update(tea.KeyMsg{Type: tea.KeyRight})
	}
	require.Equal(t, catalog.PreviewLimit, yv.cursor)

	assert.Nil(t, yv.Update(enter))
	assert.Contains(t, yv.notice, "locked")
	assert.Contains(t, ansi.Strip(yv.View()), "29 more years")

	yv.Update(runes("l"))
	cmd := yv.Update(enter)
	require.NotNil(t, cmd)
	msg, ok := cmd().(openYearMsg)
	require.True(t, ok)
	assert.Equal(t, 2025-catalog.PreviewLimit, msg.year.Year)
}

func TestYearsViewSearch(t *testing.T) {
	yv := NewYearsView(catalog.Years())

	yv.Update(runes("/"))
	require.True(t, yv.Typing())
	for _, r := range "198" {
		yv.Update(runes(string(r)))
	}
	yv.Update(enter)

	assert.False(t, yv.Typing())
	require.Len(t, yv.filtered, 5)
	assert.Equal(t, 1989, yv.filtered[0].Year)

	yv.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, yv.filtered, 41)
}

func TestPapersViewBannerWhenUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	cfg := config.Default()
	cfg.Archive.BaseURL = server.URL
	pv := NewPapersView(availability.NewProber(), cfg)
	pv.SetYear(catalog.Years()[5])

	cmd := pv.Update(enter)
	require.NotNil(t, cmd)
	assert.True(t, pv.probing)

	msg := cmd()
	probe, ok := msg.(probeMsg)
	require.True(t, ok)
	assert.Equal(t, server.URL+"/papers/2020/paper-1.pdf", probe.locator)

	assert.Nil(t, pv.Update(msg))
	assert.False(t, pv.probing)
	assert.Contains(t, pv.banner, "2020 Paper I is not available")
	assert.Contains(t, pv.banner, "HTTP 404")
}

func TestPapersViewOpensAvailablePaper(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Archive.BaseURL = server.URL
	pv := NewPapersView(availability.NewProber(), cfg)
	pv.SetYear(catalog.Years()[0])
	pv.Update(runes("j"))

	next := pv.Update(pv.Update(enter)())
	require.NotNil(t, next)
	open, ok := next().(openPaperMsg)
	require.True(t, ok)
	assert.Equal(t, "2025 Paper II", open.paper.Title)
	assert.Empty(t, pv.banner)
}

func TestDownloaderHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("%PDF-1.4 body"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "downloads")
	d := NewDownloader(nil, nil)

	path, err := d.Download(context.Background(), server.URL+"/papers/2020/paper-1.pdf", dir, "2020-Paper-I.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2020-Paper-I.pdf"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	_, err = d.Download(context.Background(), server.URL+"/missing.pdf", dir, "x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
	_, statErr := os.Stat(filepath.Join(dir, "x.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDownloaderLocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "paper-2.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF local"), 0o644))
	dir := t.TempDir()

	path, err := NewDownloader(nil, nil).Download(context.Background(), "file://"+src, dir, "1999-Paper-II.pdf")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF local", string(data))

	_, err = NewDownloader(nil, nil).Download(context.Background(), filepath.Join(dir, "nope.pdf"), dir, "n.pdf")
	assert.Error(t, err)
}

type stubExtractor struct{}

func (stubExtractor) Extract(ctx context.Context, locator string) documents.ExtractionResult {
	return documents.ExtractionResult{Success: true, PageCount: 1, Text: "--- Page 1 ---\n" + strings.Repeat("Q.1 Find the tension in the string. ", 3)}
}

type stubAssistant struct{}

func (stubAssistant) Send(ctx context.Context, history []openrouter.Message, title, pdfContext string) openrouter.ChatResponse {
	return openrouter.ChatResponse{Success: true, Message: "Draw a **free body diagram**."}
}

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DownloadDir = t.TempDir()
	return NewApp(Deps{
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.yaml"),
		Client:     openrouter.NewClient(openrouter.Config{Model: cfg.Assistant.Model}),
		Manager:    chat.NewManager(stubExtractor{}, stubAssistant{}),
		Prober:     availability.NewProber(),
	})
}

func TestAppNavigation(t *testing.T) {
	a := testApp(t)
	assert.Equal(t, pageYears, a.page)

	a.Update(runes("2"))
	assert.Equal(t, pageBooks, a.page)

	a.Update(runes("4"))
	assert.Equal(t, pageSettings, a.page)

	a.Update(runes("1"))
	assert.Equal(t, pageYears, a.page)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewerConversation(t *testing.T) {
	a := testApp(t)
	paper := catalog.Years()[0].Papers[0]

	a.Update(openPaperMsg{paper: paper, locator: "/tmp/paper.pdf"})
	require.Equal(t, pageViewer, a.page)
	s := a.deps.Manager.Current()
	require.NotNil(t, s)

	s.Open(context.Background())
	a.Update(sessionReadyMsg{session: s})
	assert.Equal(t, chat.StatusReady, s.Status())

	a.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, quickPrompts[0], a.viewer.composer.Value())

	_, cmd := a.Update(enter)
	require.NotNil(t, cmd)
	assert.True(t, s.InFlight())
	assert.Empty(t, a.viewer.composer.Value())

	a.Update(runes("x"))
	_, _ = a.Update(enter)
	assert.Contains(t, a.viewer.notice, "Wait for the current answer")

	turns := s.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, quickPrompts[0], turns[1].Content)

	a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_, _ = a.Update(closeViewerMsg{})
	assert.Equal(t, pagePapers, a.page)
	assert.Nil(t, a.deps.Manager.Current())
	assert.Equal(t, chat.StateClosed, s.State())
}

func TestModelsViewPreselectsRecommended(t *testing.T) {
	models := []openrouter.ModelInfo{
		{ID: "qwen/qwen-2.5-72b", ContextLength: 32000},
		{ID: "openai/gpt-4o", ContextLength: 128000},
	}

	mv := NewModelsView(nil, "retired/model")
	mv.Update(modelsLoadedMsg{models: models})
	assert.Equal(t, 1, mv.selected)
	assert.Equal(t, "openai/gpt-4o", mv.recommended)
	assert.Contains(t, ansi.Strip(mv.View()), "openai/gpt-4o  128k ctx  recommended")

	mv = NewModelsView(nil, "qwen/qwen-2.5-72b")
	mv.Update(modelsLoadedMsg{models: models})
	assert.Equal(t, 0, mv.selected)
}
