package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/trace"
)

// mainView wraps the main screen for use as the overlay background.
type mainView struct {
	model *Model
}

func (v mainView) Init() tea.Cmd { return nil }

// Update is a no-op; the parent Model handles all input.
func (v mainView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

func (v mainView) View() string { return v.model.renderMain() }

// helpView is the keyboard shortcut box drawn over the main screen.
type helpView struct {
	keys KeyMap
}

func (v helpView) Init() tea.Cmd { return nil }

func (v helpView) Update(tea.Msg) (tea.Model, tea.Cmd) { return v, nil }

func (v helpView) View() string {
	const keyWidth = 10

	var b strings.Builder
	b.WriteString(helpTitleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, group := range v.keys.FullHelp() {
		b.WriteString("\n")
		for _, k := range group {
			h := k.Help()
			b.WriteString(helpKeyStyle.Width(keyWidth).Render(h.Key))
			b.WriteString("  ")
			b.WriteString(helpDescStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(helpDescStyle.Render("↑/↓ scroll blocks, any key closes"))
	return helpBoxStyle.Render(b.String())
}

// describeOp renders an applied op and where it left its block.
func describeOp(op trace.Op, addr alloc.Ptr) string {
	switch op.Kind {
	case trace.OpFree:
		return fmt.Sprintf("line %d: free id %d", op.Line, op.ID)
	case trace.OpRealloc:
		return fmt.Sprintf("line %d: realloc id %d to %d bytes -> %#x", op.Line, op.ID, op.Size, int(addr))
	default:
		return fmt.Sprintf("line %d: alloc id %d, %d bytes -> %#x", op.Line, op.ID, op.Size, int(addr))
	}
}
