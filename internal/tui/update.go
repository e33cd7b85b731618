package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hlgirard/simplabel/internal/master"
	"github.com/hlgirard/simplabel/internal/reconcile"
)

// Update handles all messages. Controller calls stay on this goroutine.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if err := m.controller.Poll(); err != nil {
			m.errMsg = err.Error()
		}
		return m, tickCmd()

	case peerChangedMsg:
		m.controller.HintRefresh()
		m.status = fmt.Sprintf("%s saved new labels", msg.User)
		return m, nil

	case tea.KeyMsg:
		if m.mode == modePrompt {
			return m.updatePrompt(msg)
		}
		return m.updateLabeling(msg)
	}

	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeLabeling
		if m.prompt.onYes != nil {
			cmd := m.prompt.onYes(&m)
			return m, cmd
		}
		return m, nil
	case "n", "N", "esc":
		m.mode = modeLabeling
		if m.prompt.onNo != nil {
			cmd := m.prompt.onNo(&m)
			return m, cmd
		}
		m.status = "cancelled"
		return m, nil
	}
	return m, nil
}

func (m Model) updateLabeling(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errMsg = ""

	// Digits classify; everything else is navigation or a workflow key.
	if r := keyRune(msg); r >= '0' && r <= '9' {
		if category, ok := m.categoryAt(r); ok {
			if err := m.controller.Classify(category); err != nil {
				m.errMsg = err.Error()
			}
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.handleQuit()

	case key.Matches(msg, m.keys.Prev):
		m.controller.Retreat()

	case key.Matches(msg, m.keys.Next):
		m.controller.Advance()

	case key.Matches(msg, m.keys.NextUnlabeled):
		if !m.controller.NextUnlabeled() {
			m.status = "everything is labeled"
		}

	case key.Matches(msg, m.keys.Save):
		if err := m.controller.Save(); err != nil {
			m.errMsg = err.Error()
		} else {
			m.status = "saved"
		}

	case key.Matches(msg, m.keys.Refresh):
		if err := m.controller.Refresh(); err != nil {
			m.errMsg = err.Error()
		} else {
			m.status = "refreshed"
		}

	case key.Matches(msg, m.keys.Reconcile):
		return m.handleReconcile()

	case key.Matches(msg, m.keys.Commit):
		return m.handleCommit()

	case key.Matches(msg, m.keys.Discard):
		if m.controller.Reconciling() {
			m.controller.DiscardReconcile()
			m.status = "resolutions discarded"
		}

	case key.Matches(msg, m.keys.Promote):
		return m.handlePromote()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	}

	return m, nil
}

// handleQuit closes the session. Pending edits are the user's call:
// saving on exit goes through the modal prompt so work can be thrown
// away deliberately.
func (m Model) handleQuit() (tea.Model, tea.Cmd) {
	if m.controller.Dirty() {
		m.mode = modePrompt
		m.prompt = prompt{
			message: "Save your labels before quitting?",
			onYes: func(m *Model) tea.Cmd {
				m.quitting = true
				if err := m.controller.Close(); err != nil {
					m.errMsg = err.Error()
				}
				return tea.Quit
			},
			onNo: func(m *Model) tea.Cmd {
				m.quitting = true
				if err := m.controller.Abandon(); err != nil {
					m.errMsg = err.Error()
				}
				return tea.Quit
			},
		}
		return m, nil
	}

	m.quitting = true
	if err := m.controller.Close(); err != nil {
		m.errMsg = err.Error()
	}
	return m, tea.Quit
}

// handleReconcile prompts before entering reconciliation when unsaved
// edits exist, since entry flushes them to disk first.
func (m Model) handleReconcile() (tea.Model, tea.Cmd) {
	if m.controller.Reconciling() {
		m.status = "already reconciling"
		return m, nil
	}
	if m.controller.Dirty() {
		m.mode = modePrompt
		m.prompt = prompt{
			message: "Reconciling saves your unsaved labels first. Continue?",
			onYes: func(m *Model) tea.Cmd {
				m.startReconcile()
				return nil
			},
		}
		return m, nil
	}
	m.startReconcile()
	return m, nil
}

func (m *Model) startReconcile() {
	if err := m.controller.EnterReconcile(); err != nil {
		if errors.Is(err, reconcile.ErrPeerLocked) {
			m.status = "waiting: " + err.Error()
		} else {
			m.errMsg = err.Error()
		}
		return
	}
	m.status = "reconciling: pick a category to resolve each conflict"
}

func (m Model) handleCommit() (tea.Model, tea.Cmd) {
	if !m.controller.Reconciling() {
		return m, nil
	}
	n := len(m.controller.Resolutions())
	m.mode = modePrompt
	m.prompt = prompt{
		message: fmt.Sprintf("Apply %d resolution(s) to every labeler's store?", n),
		onYes: func(m *Model) tea.Cmd {
			if err := m.controller.CommitReconcile(); err != nil {
				m.errMsg = err.Error()
				return nil
			}
			m.status = "resolutions committed"
			return nil
		},
	}
	return m, nil
}

// handlePromote runs promotion in two phases so the unlabeled-images
// confirmation can go through the modal prompt: the first attempt only
// counts unlabeled images and declines, the confirmed retry forces
// through.
func (m Model) handlePromote() (tea.Model, tea.Cmd) {
	unlabeled := 0
	_, err := m.controller.PromoteMaster(func(count int) bool {
		unlabeled = count
		return false
	})
	if err == nil {
		m.status = "master labels written"
		return m, nil
	}
	if errors.Is(err, master.ErrDeclined) && unlabeled > 0 {
		m.mode = modePrompt
		m.prompt = prompt{
			message: fmt.Sprintf("%d image(s) are unlabeled. Promote anyway?", unlabeled),
			onYes: func(m *Model) tea.Cmd {
				if _, err := m.controller.PromoteMaster(func(int) bool { return true }); err != nil {
					m.errMsg = err.Error()
					return nil
				}
				m.status = "master labels written"
				return nil
			},
		}
		return m, nil
	}
	if errors.Is(err, master.ErrNeedsReconciliation) {
		m.status = "conflicts remain: reconcile before promoting"
		return m, nil
	}
	m.errMsg = err.Error()
	return m, nil
}

func keyRune(msg tea.KeyMsg) rune {
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		return msg.Runes[0]
	}
	return 0
}
