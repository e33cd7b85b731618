package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// tickMsg drives the opportunistic auto-save/auto-refresh poll
type tickMsg time.Time

// peerChangedMsg is delivered when the watcher saw a peer store write
type peerChangedMsg struct {
	User string
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
