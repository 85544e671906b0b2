package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/checked"
	"github.com/joshuapare/heapkit/heap/printer"
	"github.com/joshuapare/heapkit/internal/logger"
	"github.com/joshuapare/heapkit/internal/trace"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

const (
	headerHeight = 2
	statusHeight = 2
)

// Model is the main bubbletea model. The heap behind it is rebuilt from
// scratch whenever the user steps backwards.
type Model struct {
	path string
	cfg  alloc.Config
	tr   *trace.Trace

	region  *heap.Region
	alloc   *alloc.ListAllocator
	checked *checked.Allocator
	player  *trace.Player

	last    *trace.Op // op applied by the most recent step
	stepErr error     // failure of the op the player is stuck on

	keys     KeyMap
	viewport viewport.Model
	width    int
	height   int
	showHelp bool
	freeOnly bool

	statusMessage string
	err           error
}

// NewModel loads the trace at path and prepares a heap configured by cfg.
func NewModel(path string, cfg alloc.Config) Model {
	m := Model{
		path:     path,
		cfg:      cfg,
		keys:     DefaultKeyMap(),
		viewport: viewport.New(80, 20),
		width:    80,
		height:   20 + headerHeight + statusHeight,
	}

	tr, err := trace.ParseFile(path)
	if err != nil {
		m.err = err
		return m
	}
	m.tr = tr
	if err := m.restart(); err != nil {
		m.err = err
		return m
	}
	logger.Debug("trace loaded", "path", path, "ops", len(tr.Ops), "ids", tr.IDs)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-statusHeight, 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.showHelp {
		// Any key dismisses help
		m.showHelp = false
		return m, nil
	}
	if m.err != nil {
		return m, nil
	}

	m.statusMessage = ""
	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Next):
		m.step()
	case key.Matches(msg, m.keys.Prev):
		m.seek(m.player.Pos() - 1)
	case key.Matches(msg, m.keys.Start):
		m.seek(0)
	case key.Matches(msg, m.keys.End):
		m.runToEnd()
	case key.Matches(msg, m.keys.FreeOnly):
		m.freeOnly = !m.freeOnly
	case key.Matches(msg, m.keys.Copy):
		m.copyDump()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

// restart discards the current heap and builds a fresh one positioned
// before the first op.
func (m *Model) restart() error {
	if m.region != nil {
		m.region.Close()
	}
	r := heap.NewRegion(heap.DefaultMaxHeap)
	cfg := m.cfg
	a, err := alloc.New(r, nil, &cfg)
	if err != nil {
		r.Close()
		return err
	}
	m.region = r
	m.alloc = a
	m.checked = checked.New(a, checked.Options{Invariants: true})
	m.player = trace.NewPlayer(m.tr, m.checked)
	m.last = nil
	m.stepErr = nil
	m.refresh()
	return nil
}

// step applies the next op. It reports false when nothing was applied.
func (m *Model) step() bool {
	op, err := m.player.Step()
	switch {
	case errors.Is(err, io.EOF):
		m.statusMessage = "End of trace"
		return false
	case err != nil:
		m.stepErr = err
		m.last = nil
		logger.Warn("op failed", "line", op.Line, "error", err)
		return false
	}
	m.last = &op
	m.stepErr = nil
	return true
}

// seek rebuilds the heap and replays the first n ops.
func (m *Model) seek(n int) {
	if n < 0 {
		return
	}
	if err := m.restart(); err != nil {
		m.err = err
		return
	}
	for m.player.Pos() < n && m.step() {
	}
}

func (m *Model) runToEnd() {
	for m.step() {
	}
}

// copyDump puts the text heap dump on the clipboard.
func (m *Model) copyDump() {
	var buf bytes.Buffer
	opts := printer.DefaultOptions()
	opts.FreeOnly = m.freeOnly
	if err := printer.New(m.alloc, &buf, opts).PrintBlocks(); err != nil {
		m.statusMessage = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	if err := writeClipboard(buf.String()); err != nil {
		m.statusMessage = fmt.Sprintf("Copy failed: %v", err)
		return
	}
	m.statusMessage = fmt.Sprintf("Copied heap dump (%d bytes)", buf.Len())
}

// refresh re-renders the block table into the viewport.
func (m *Model) refresh() {
	if m.alloc == nil {
		return
	}
	m.viewport.SetContent(m.renderBlocks())
}

// touched returns the block the last op left bound to its id.
func (m Model) touched() alloc.Ptr {
	if m.last == nil || m.last.Kind == trace.OpFree {
		return alloc.Nil
	}
	p, _ := m.player.Addr(m.last.ID)
	return p
}

func (m Model) traceName() string {
	return filepath.Base(m.path)
}

// Close releases the heap's memory.
func (m Model) Close() error {
	if m.region == nil {
		return nil
	}
	return m.region.Close()
}
