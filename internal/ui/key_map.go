package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the review queue.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	enter  key.Binding
	back   key.Binding
	keep   key.Binding
	reject key.Binding
	clear  key.Binding
	mark   key.Binding
	batch  key.Binding
	yes    key.Binding
	undo   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
		down:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		keep:   key.NewBinding(key.WithKeys("k"), key.WithHelp("k", "keep")),
		reject: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reject")),
		clear:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
		mark:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark for move")),
		batch:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "queue move")),
		yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm now")),
		undo:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.keep, k.reject, k.clear, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.keep, k.reject, k.clear},
		{k.mark, k.batch, k.yes, k.undo},
		{k.quit},
	}
}
