package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/printer"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.showHelp {
		// Recreated on every render since Update returns new models
		help := overlay.New(
			helpView{keys: m.keys},
			mainView{model: &m},
			overlay.Center,
			overlay.Center,
			0,
			0,
		)
		return help.View()
	}

	return m.renderMain()
}

func (m Model) renderMain() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderStatus(),
	)
}

// renderHeader shows the trace name and replay position.
func (m Model) renderHeader() string {
	title := headerStyle.Render("heapexplorer")
	pos := fmt.Sprintf(" %s  op %d/%d", pathStyle.Render(m.traceName()), m.player.Pos(), len(m.tr.Ops))
	cols := fmt.Sprintf("\n%s", tableHeaderStyle.Render(fmt.Sprintf("%-10s %10s  %s", "ADDR", "SIZE", "STATE")))
	return title + pos + cols
}

// renderBlocks renders one row per block, highlighting the block the last
// op produced.
func (m Model) renderBlocks() string {
	touched := m.touched()
	var b strings.Builder
	for _, blk := range m.alloc.Blocks() {
		if m.freeOnly && blk.Allocated {
			continue
		}
		state := "free"
		style := freeRowStyle
		if blk.Allocated {
			state = "alloc"
			style = allocRowStyle
		}
		row := fmt.Sprintf("%#-10x %10d  %s", int(blk.Addr), blk.Size, state)
		if blk.Addr == touched && touched != alloc.Nil {
			row += fmt.Sprintf("  <- id %d", m.last.ID)
			style = touchedRowStyle
		}
		b.WriteString(style.Render(row))
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// renderStatus shows the last op, heap totals and any message.
func (m Model) renderStatus() string {
	var line1 string
	switch {
	case m.stepErr != nil:
		line1 = errorStyle.Render(m.stepErr.Error())
	case m.last != nil:
		line1 = opStyle.Render(describeOp(*m.last, m.touched()))
	default:
		line1 = statusStyle.Render("start of trace")
	}

	sum := printer.Summarize(m.alloc.Blocks(), m.alloc.HeapSize())
	line2 := fmt.Sprintf("heap %d  live %d  free blocks %d  largest free %d",
		sum.HeapSize, m.checked.LiveBytes(), sum.Free, sum.LargestFree)
	if m.statusMessage != "" {
		line2 += "  |  " + m.statusMessage
	} else {
		line2 += "  |  ? for help"
	}
	return line1 + "\n" + statusStyle.Render(line2)
}
