package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iit-archive/cli/internal/documents"
	"github.com/iit-archive/cli/internal/logger"
	"github.com/iit-archive/cli/internal/openrouter"
	"github.com/iit-archive/cli/internal/rag"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrRequestInFlight = errors.New("a request is already in flight")
	ErrSessionClosed   = errors.New("session is closed")
)

const (
	welcomeGreeting = "Hi! I am your IIT Study Assistant."
	scannedAdvisory = "This paper looks like a scanned document, so I could not read its text. " +
		"I can still help with the concepts and topics it covers."
	timeoutMessage = "The assistant took too long to respond. Please try again."
	unknownFailure = "Something went wrong while contacting the assistant."
)

// Extractor produces the text of a document.
type Extractor interface {
	Extract(ctx context.Context, locator string) documents.ExtractionResult
}

// Assistant answers a conversation about a paper.
type Assistant interface {
	Send(ctx context.Context, history []openrouter.Message, paperTitle, pdfContext string) openrouter.ChatResponse
}

// Role of a turn's author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a conversation.
type Turn struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
	Pending   bool
	IsError   bool
	Welcome   bool
}

// State is the lifecycle of a session.
type State string

const (
	StateInitializing State = "initializing"
	StateReady        State = "ready"
	StateClosed       State = "closed"
)

// Status tells the viewer how much paper context the session has.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusReady    Status = "ready"
	StatusDegraded Status = "degraded"
)

// CacheRecord holds what extraction produced for the open document.
type CacheRecord struct {
	Locator    string
	Extraction documents.ExtractionResult
	Context    string
	Kind       rag.ContextKind
}

// ChatRequest is the snapshot sent to the assistant for one exchange.
type ChatRequest struct {
	History []openrouter.Message
	Title   string
	Context string
}

// Exchange is an accepted message waiting for its reply.
type Exchange struct {
	TurnID  string
	Request ChatRequest
}

// Session is the conversation about one open document.
type Session struct {
	mu sync.Mutex

	locator   string
	title     string
	extractor Extractor
	assistant Assistant
	builder   *rag.ContextBuilder
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time

	state   State
	status  Status
	opened  bool
	turns   []Turn
	cache   CacheRecord
	pending string
	sent    string
}

// Option configures a Session.
type Option func(*Session)

// WithContextBuilder sets how extraction results become chat context.
func WithContextBuilder(cb *rag.ContextBuilder) Option {
	return func(s *Session) {
		if cb != nil {
			s.builder = cb
		}
	}
}

// WithRequestTimeout bounds each assistant call. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.logger = logger.OrNop(l)
	}
}

// NewSession creates a session for the document at locator. Call Open
// to extract its text.
func NewSession(locator, title string, extractor Extractor, assistant Assistant, opts ...Option) *Session {
	s := &Session{
		locator:   locator,
		title:     title,
		extractor: extractor,
		assistant: assistant,
		builder:   rag.NewContextBuilder(rag.DefaultContextChars, rag.MinTextLength),
		logger:    zap.NewNop(),
		now:       time.Now,
		state:     StateInitializing,
		status:    StatusLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("paper", title))
	return s
}

// Open extracts the document and adds the welcome turn. It blocks until
// extraction settles. Only the first call does anything.
func (s *Session) Open(ctx context.Context) {
	s.mu.Lock()
	if s.opened || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.opened = true
	s.mu.Unlock()

	result := s.extractor.Extract(ctx, s.locator)
	pdfContext, kind := s.builder.Build(result)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		s.logger.Debug("dropping extraction for closed session")
		return
	}

	s.cache = CacheRecord{
		Locator:    s.locator,
		Extraction: result,
		Context:    pdfContext,
		Kind:       kind,
	}
	s.turns = append(s.turns, Turn{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   welcomeText(s.title, result, kind),
		CreatedAt: s.now(),
		Welcome:   true,
	})
	s.state = StateReady
	if kind == rag.ContextFull {
		s.status = StatusReady
	} else {
		s.status = StatusDegraded
	}

	s.logger.Info("session ready",
		zap.String("context", kind.String()),
		zap.Int("pages", result.PageCount),
		zap.Int("context_chars", len(pdfContext)))
}

func welcomeText(title string, result documents.ExtractionResult, kind rag.ContextKind) string {
	switch kind {
	case rag.ContextFailed:
		return fmt.Sprintf("%s I could not load the text of %q (%s). "+
			"I can still answer general questions about it.", welcomeGreeting, title, result.Error)
	case rag.ContextScanned:
		return fmt.Sprintf("%s Ask me anything about %q.\n\n%s", welcomeGreeting, title, scannedAdvisory)
	}

	pages := "pages"
	if result.PageCount == 1 {
		pages = "page"
	}
	return fmt.Sprintf("%s I have read all %d %s of %q. Ask me anything about it.",
		welcomeGreeting, result.PageCount, pages, title)
}

// SendMessage accepts text as the next user turn and adds a pending
// assistant turn after it. The returned Exchange must be passed to
// Await. Rejected messages leave the session untouched.
func (s *Session) SendMessage(text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil, ErrSessionClosed
	}
	if s.pending != "" {
		return nil, ErrRequestInFlight
	}

	history := make([]openrouter.Message, 0, len(s.turns)+1)
	for _, t := range s.turns {
		if t.Pending || t.Welcome {
			continue
		}
		history = append(history, openrouter.Message{Role: string(t.Role), Content: t.Content})
	}
	history = append(history, openrouter.Message{Role: openrouter.RoleUser, Content: text})

	now := s.now()
	reply := Turn{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		CreatedAt: now,
		Pending:   true,
	}
	s.turns = append(s.turns,
		Turn{ID: uuid.NewString(), Role: RoleUser, Content: text, CreatedAt: now},
		reply,
	)
	s.pending = reply.ID

	return &Exchange{
		TurnID: reply.ID,
		Request: ChatRequest{
			History: history,
			Title:   s.title,
			Context: s.cache.Context,
		},
	}, nil
}

// Await calls the assistant for ex and resolves its pending turn in
// place. It reports false when the session was closed before the reply
// arrived; the reply is then discarded. An exchange whose turn already
// resolved is not sent again: Await returns that turn and false.
func (s *Session) Await(ctx context.Context, ex *Exchange) (Turn, bool) {
	s.mu.Lock()
	if ex == nil || s.state == StateClosed || s.pending != ex.TurnID || s.sent == ex.TurnID {
		var turn Turn
		if ex != nil {
			if idx := s.indexOf(ex.TurnID); idx >= 0 {
				turn = s.turns[idx]
			}
		}
		s.mu.Unlock()
		return turn, false
	}
	s.sent = ex.TurnID
	s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan openrouter.ChatResponse, 1)
	go func() {
		done <- s.assistant.Send(ctx, ex.Request.History, ex.Request.Title, ex.Request.Context)
	}()

	var resp openrouter.ChatResponse
	select {
	case resp = <-done:
	case <-ctx.Done():
		resp = openrouter.ChatResponse{Error: timeoutMessage}
		if errors.Is(ctx.Err(), context.Canceled) {
			resp.Error = "request cancelled"
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		s.logger.Debug("dropping reply for closed session")
		return Turn{}, false
	}

	idx := s.indexOf(ex.TurnID)
	if idx < 0 {
		return Turn{}, false
	}

	turn := s.turns[idx]
	if !turn.Pending {
		return turn, false
	}
	turn.Pending = false
	if resp.Success {
		turn.Content = resp.Message
	} else {
		turn.IsError = true
		turn.Content = resp.Error
		if turn.Content == "" {
			turn.Content = unknownFailure
		}
	}
	s.turns[idx] = turn
	if s.pending == ex.TurnID {
		s.pending = ""
	}

	s.logger.Debug("exchange resolved",
		zap.Bool("success", resp.Success),
		zap.Int("history", len(ex.Request.History)),
		zap.Duration("duration", time.Since(start)))
	return turn, true
}

// Send is SendMessage followed by Await.
func (s *Session) Send(ctx context.Context, text string) (Turn, error) {
	ex, err := s.SendMessage(text)
	if err != nil {
		return Turn{}, err
	}
	turn, ok := s.Await(ctx, ex)
	if !ok {
		return Turn{}, ErrSessionClosed
	}
	return turn, nil
}

func (s *Session) indexOf(id string) int {
	for i := range s.turns {
		if s.turns[i].ID == id {
			return i
		}
	}
	return -1
}

// Close discards the conversation. Later results are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.turns = nil
	s.cache = CacheRecord{}
	s.pending = ""
	s.sent = ""
	s.logger.Debug("session closed")
}

// Turns returns a copy of the conversation.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InFlight reports whether a reply is pending.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != ""
}

func (s *Session) Cache() CacheRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

func (s *Session) Title() string   { return s.title }
func (s *Session) Locator() string { return s.locator }
