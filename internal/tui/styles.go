package tui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	imageStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 0)

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	disagreedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	promptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			BorderForeground(lipgloss.Color("205"))

	reconcileBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("208")).
			Padding(0, 1)
)

// userPalette holds the colors assigned to labelers. The same username
// always hashes to the same color, on every machine.
var userPalette = []lipgloss.Color{
	"39",  // blue
	"42",  // green
	"208", // orange
	"135", // purple
	"214", // gold
	"51",  // cyan
	"204", // pink
	"118", // lime
}

// UserColor returns the stable display color for a username.
func UserColor(username string) lipgloss.Color {
	h := fnv.New32a()
	h.Write([]byte(username))
	return userPalette[h.Sum32()%uint32(len(userPalette))]
}

func userStyle(username string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(UserColor(username))
}
