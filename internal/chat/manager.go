package chat

import "sync"

// Manager keeps at most one open session.
type Manager struct {
	mu        sync.Mutex
	extractor Extractor
	assistant Assistant
	opts      []Option
	current   *Session
}

// NewManager creates a manager whose sessions share extractor, assistant
// and opts.
func NewManager(extractor Extractor, assistant Assistant, opts ...Option) *Manager {
	return &Manager{
		extractor: extractor,
		assistant: assistant,
		opts:      opts,
	}
}

// Open closes the current session, if any, and starts a new one for
// locator. The caller runs Session.Open to extract the document.
func (m *Manager) Open(locator, title string) *Session {
	s := NewSession(locator, title, m.extractor, m.assistant, m.opts...)

	m.mu.Lock()
	prev := m.current
	m.current = s
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return s
}

// Current returns the open session or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Close closes the open session.
func (m *Manager) Close() {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}
