package main

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/trace"
)

const (
	exploreTrace = "testdata/explore.rep"
	unboundTrace = "testdata/unbound.rep"
)

func TestNewModel_StartsBeforeFirstOp(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	m := h.GetModel()

	if m.err != nil {
		t.Fatalf("load failed: %v", m.err)
	}
	if m.player.Pos() != 0 {
		t.Errorf("pos = %d, want 0", m.player.Pos())
	}
	blocks := m.alloc.Blocks()
	if len(blocks) != 1 || blocks[0].Allocated || blocks[0].Size != 4096 {
		t.Errorf("initial blocks = %+v, want one free block of 4096", blocks)
	}
	if !strings.Contains(h.GetView(), "op 0/7") {
		t.Errorf("header missing position:\n%s", h.GetView())
	}
}

func TestNewModel_MissingTrace(t *testing.T) {
	h := NewTestHelper(t, "testdata/nope.rep")

	if h.GetModel().err == nil {
		t.Fatal("expected load error")
	}
	if !strings.Contains(h.GetView(), "Error:") {
		t.Errorf("view should show the error:\n%s", h.GetView())
	}
	// Keys other than quit are ignored
	h.SendKeyRune('n')
}

func TestStep_AppliesOneOp(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	h.SendWindowSize(100, 30).SendKeyRune('n')
	m := h.GetModel()

	if m.player.Pos() != 1 {
		t.Fatalf("pos = %d, want 1", m.player.Pos())
	}
	if got := m.touched(); got != alloc.Ptr(0x20) {
		t.Errorf("touched = %#x, want 0x20", int(got))
	}
	view := h.GetView()
	if !strings.Contains(view, "alloc id 0, 100 bytes -> 0x20") {
		t.Errorf("status missing last op:\n%s", view)
	}
	if !strings.Contains(view, "<- id 0") {
		t.Errorf("block table should mark the new block:\n%s", view)
	}
}

func TestStep_SplitReusesFreedBlock(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	h.Steps(4) // a 0 100, a 1 200, f 0, a 2 50
	m := h.GetModel()

	p, ok := m.player.Addr(2)
	if !ok || p != alloc.Ptr(0x20) {
		t.Fatalf("id 2 at %#x (bound %v), want 0x20", int(p), ok)
	}
	if got := m.alloc.UsableSize(p); got != 80-16 {
		t.Errorf("usable = %d, want 64", got)
	}
}

func TestPrev_RewindsOneOp(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	h.Steps(3).SendKey(tea.KeyLeft)
	m := h.GetModel()

	if m.player.Pos() != 2 {
		t.Fatalf("pos = %d, want 2", m.player.Pos())
	}
	if _, ok := m.player.Addr(0); !ok {
		t.Error("id 0 should be live again after stepping back over its free")
	}
	if m.checked.Live() != 2 {
		t.Errorf("live = %d, want 2", m.checked.Live())
	}
}

func TestPrev_AtStartIsNoop(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	h.SendKeyRune('p')

	if pos := h.GetModel().player.Pos(); pos != 0 {
		t.Errorf("pos = %d, want 0", pos)
	}
}

func TestEnd_RunsWholeTrace(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	h.SendKeyRune('G')
	m := h.GetModel()

	if !m.player.Done() {
		t.Fatalf("pos = %d, want done", m.player.Pos())
	}
	if m.checked.Live() != 0 {
		t.Errorf("live = %d, want 0", m.checked.Live())
	}
	blocks := m.alloc.Blocks()
	if len(blocks) != 1 || blocks[0].Allocated {
		t.Errorf("blocks = %+v, want one coalesced free block", blocks)
	}

	h.SendKeyRune('n')
	if got := h.GetModel().statusMessage; got != "End of trace" {
		t.Errorf("status = %q, want End of trace", got)
	}
}

func TestStart_Restarts(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	h.SendKeyRune('G').SendKeyRune('g')
	m := h.GetModel()

	if m.player.Pos() != 0 || m.last != nil {
		t.Errorf("pos = %d last = %v, want fresh start", m.player.Pos(), m.last)
	}
	if m.alloc.Stats().AllocCalls != 0 {
		t.Error("restart should build a fresh allocator")
	}
}

func TestStep_StopsOnFailingOp(t *testing.T) {
	h := NewTestHelper(t, unboundTrace)
	h.SendKeyRune('G')
	m := h.GetModel()

	if m.player.Pos() != 1 {
		t.Fatalf("pos = %d, want 1", m.player.Pos())
	}
	if !errors.Is(m.stepErr, trace.ErrUnboundID) {
		t.Fatalf("stepErr = %v, want ErrUnboundID", m.stepErr)
	}
	if !strings.Contains(h.GetView(), "trace line 2") {
		t.Errorf("view should report the failing line:\n%s", h.GetView())
	}

	// Retrying stays stuck on the same op
	h.SendKeyRune('n')
	if pos := h.GetModel().player.Pos(); pos != 1 {
		t.Errorf("pos = %d after retry, want 1", pos)
	}
}

func TestFreeOnly_HidesAllocatedBlocks(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	h.SendWindowSize(100, 30).Steps(2).SendKeyRune('f')

	content := h.GetModel().renderBlocks()
	if strings.Contains(content, "alloc") {
		t.Errorf("free-only view lists allocated blocks:\n%s", content)
	}
	if !strings.Contains(content, "free") {
		t.Errorf("free-only view lists no free blocks:\n%s", content)
	}
}

func TestHelp_Toggle(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	h.SendWindowSize(100, 30).SendKeyRune('?')

	if !h.GetModel().showHelp {
		t.Fatal("help should be shown")
	}
	if !strings.Contains(h.GetView(), "Keyboard Shortcuts") {
		t.Errorf("help overlay missing:\n%s", h.GetView())
	}

	// Keys close help without acting
	h.SendKeyRune('n')
	m := h.GetModel()
	if m.showHelp {
		t.Error("help should be closed")
	}
	if m.player.Pos() != 0 {
		t.Errorf("pos = %d, want 0", m.player.Pos())
	}
}

func TestCopy_WritesDump(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	h := NewTestHelper(t, exploreTrace)
	h.SendKeyRune('n').SendKeyRune('c')

	if !strings.Contains(copied, "0x00000020") || !strings.Contains(copied, "heap 4,128 bytes") {
		t.Errorf("copied dump:\n%s", copied)
	}
	if !strings.Contains(h.GetModel().statusMessage, "Copied") {
		t.Errorf("status = %q", h.GetModel().statusMessage)
	}
}

func TestCopy_ReportsFailure(t *testing.T) {
	orig := writeClipboard
	writeClipboard = func(string) error { return errors.New("no clipboard") }
	t.Cleanup(func() { writeClipboard = orig })

	h := NewTestHelper(t, exploreTrace)
	h.SendKeyRune('c')

	if got := h.GetModel().statusMessage; got != "Copy failed: no clipboard" {
		t.Errorf("status = %q", got)
	}
}

func TestQuit(t *testing.T) {
	h := NewTestHelper(t, exploreTrace)
	_, cmd := h.GetModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
