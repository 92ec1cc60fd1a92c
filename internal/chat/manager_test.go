package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerKeepsOneSession(t *testing.T) {
	m := NewManager(textExtractor(), okAssistant("ok"))
	assert.Nil(t, m.Current())

	first := m.Open("/papers/2020/paper-1.pdf", "2020 Paper I")
	first.Open(context.Background())
	require.Same(t, first, m.Current())

	second := m.Open("/papers/2020/paper-2.pdf", "2020 Paper II")

	assert.Same(t, second, m.Current())
	assert.Equal(t, StateClosed, first.State())
	assert.Empty(t, first.Turns())
	assert.Equal(t, StateInitializing, second.State())
	assert.Equal(t, "2020 Paper II", second.Title())
	assert.Equal(t, "/papers/2020/paper-2.pdf", second.Locator())

	m.Close()
	assert.Nil(t, m.Current())
	assert.Equal(t, StateClosed, second.State())
}

func TestManagerAppliesOptions(t *testing.T) {
	assistant := okAssistant("late")
	assistant.gate = make(chan struct{})
	defer close(assistant.gate)

	m := NewManager(textExtractor(), assistant, WithRequestTimeout(10*time.Millisecond))
	s := m.Open("p.pdf", "t")
	s.Open(context.Background())

	turn, err := s.Send(context.Background(), "Hello")
	require.NoError(t, err)
	assert.True(t, turn.IsError)
}
