package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts
type KeyMap struct {
	// Stepping
	Next  key.Binding
	Prev  key.Binding
	Start key.Binding
	End   key.Binding

	// View
	FreeOnly key.Binding

	// Commands
	Copy key.Binding
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("right", "l", "n"),
			key.WithHelp("→/l/n", "next op"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h", "p"),
			key.WithHelp("←/h/p", "previous op"),
		),
		Start: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "restart"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "run to end"),
		),
		FreeOnly: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "free blocks only"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy dump"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.End, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay, grouped by column.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Start, k.End},
		{k.FreeOnly, k.Copy, k.Help, k.Quit},
	}
}
