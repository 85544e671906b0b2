package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/heap/alloc"
)

// TestHelper drives a Model the way the bubbletea runtime would.
type TestHelper struct {
	t     testing.TB
	model Model
}

// NewTestHelper loads path with the default heap config.
func NewTestHelper(t testing.TB, path string) *TestHelper {
	t.Helper()
	h := &TestHelper{t: t, model: NewModel(path, alloc.DefaultConfig)}
	t.Cleanup(func() { h.model.Close() })
	return h
}

// SendKey simulates a special key press
func (h *TestHelper) SendKey(keyType tea.KeyType) *TestHelper {
	return h.send(tea.KeyMsg{Type: keyType})
}

// SendKeyRune simulates a character key press
func (h *TestHelper) SendKeyRune(r rune) *TestHelper {
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

// SendWindowSize simulates a window resize
func (h *TestHelper) SendWindowSize(width, height int) *TestHelper {
	return h.send(tea.WindowSizeMsg{Width: width, Height: height})
}

// Steps presses next n times.
func (h *TestHelper) Steps(n int) *TestHelper {
	for range n {
		h.SendKeyRune('n')
	}
	return h
}

// GetModel returns the current model
func (h *TestHelper) GetModel() Model {
	return h.model
}

// GetView returns the rendered view
func (h *TestHelper) GetView() string {
	return h.model.View()
}

func (h *TestHelper) send(msg tea.Msg) *TestHelper {
	updated, _ := h.model.Update(msg)
	h.model = updated.(Model)
	return h
}
