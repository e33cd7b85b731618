package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the labeling key bindings
type keyMap struct {
	Prev          key.Binding
	Next          key.Binding
	NextUnlabeled key.Binding
	Save          key.Binding
	Refresh       key.Binding
	Reconcile     key.Binding
	Commit        key.Binding
	Discard       key.Binding
	Promote       key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "previous image"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "next image"),
		),
		NextUnlabeled: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "next unlabeled"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Reconcile: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "reconcile conflicts"),
		),
		Commit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "commit resolutions"),
		),
		Discard: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "discard resolutions"),
		),
		Promote: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "promote master"),
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
