package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hlgirard/simplabel/internal/config"
	"github.com/hlgirard/simplabel/internal/logging"
	"github.com/hlgirard/simplabel/internal/session"
	"github.com/hlgirard/simplabel/internal/watch"
)

// Run opens a labeling session for cfg and drives the TUI until the user
// quits. The peer-store watcher feeds refresh hints into the program as
// messages so the controller stays single-threaded.
func Run(cfg *config.Config, log *logging.Logger) error {
	controller, err := session.New(cfg, log)
	if err != nil {
		return err
	}

	program := tea.NewProgram(NewModel(controller, log), tea.WithAltScreen())

	watcher, err := watch.New(cfg.Directory, controller.Username(), log)
	if err != nil {
		// Labeling works without the watcher; the refresh timer covers it.
		log.Warn("peer watcher unavailable", "error", err)
	} else {
		watcher.SetChangeCallback(func(user string) {
			program.Send(peerChangedMsg{User: user})
		})
		watcher.Start()
		defer watcher.Stop()
	}

	if _, err := program.Run(); err != nil {
		controller.Close()
		return err
	}
	return nil
}
