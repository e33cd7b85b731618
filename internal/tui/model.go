// Package tui renders a labeling session in the terminal. It is a thin
// presentation surface: every state change goes through the session
// controller, and all controller access happens on the bubbletea update
// goroutine.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/session"
)

// mode identifies what keyboard input currently means
type mode int

const (
	modeLabeling mode = iota
	modePrompt
)

// prompt is a modal yes/no question. Answering yes runs onYes; answering
// no runs onNo when set, otherwise the prompt is simply dismissed.
type prompt struct {
	message string
	onYes   func(*Model) tea.Cmd
	onNo    func(*Model) tea.Cmd
}

// Model holds the TUI application state
type Model struct {
	controller *session.Controller
	keys       keyMap
	log        *logging.Logger

	width  int
	height int

	mode     mode
	prompt   prompt
	status   string
	errMsg   string
	showHelp bool
	quitting bool
}

// NewModel creates a TUI model over an open session
func NewModel(c *session.Controller, log *logging.Logger) Model {
	return Model{
		controller: c,
		keys:       defaultKeyMap(),
		log:        log,
	}
}

// Init starts the poll ticker
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// categoryAt maps a digit key to a category: 1-9 index the shared list,
// 0 is the removal pseudo-category.
func (m Model) categoryAt(digit rune) (string, bool) {
	if digit == '0' {
		return session.RemoveCategory, true
	}
	categories := m.controller.Categories()
	i := int(digit - '1')
	if i < 0 || i >= len(categories) || i > 8 {
		return "", false
	}
	return categories[i], true
}
