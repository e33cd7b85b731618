package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hlgirard/simplabel/internal/session"
)

// View renders the session state
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderImage())
	b.WriteString("\n")
	b.WriteString(m.renderLabels())
	b.WriteString("\n\n")
	b.WriteString(m.renderCategories())
	b.WriteString("\n")

	if m.mode == modePrompt {
		b.WriteString("\n")
		b.WriteString(promptStyle.Render(m.prompt.message + "  [y/n]"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.renderHelp())
	}

	return b.String()
}

func (m Model) renderHeader() string {
	header := fmt.Sprintf("simplabel - %s  (%d/%d, %d labeled)",
		m.controller.Username(),
		m.controller.Cursor()+1,
		len(m.controller.Images()),
		m.controller.LabeledCount(),
	)
	out := headerStyle.Render(header)
	if m.controller.Reconciling() {
		out += "  " + reconcileBadge.Render("RECONCILING")
	}
	return out
}

func (m Model) renderImage() string {
	image, ok := m.controller.Current()
	if !ok {
		return imageStyle.Render("(no images)")
	}
	return imageStyle.Render(image)
}

// renderLabels shows every labeler's choice for the current image in that
// labeler's color, flagging disagreement.
func (m Model) renderLabels() string {
	image, ok := m.controller.Current()
	if !ok {
		return ""
	}

	labels := m.controller.LabelsFor(image)
	if len(labels) == 0 {
		return statusStyle.Render("unlabeled")
	}

	users := make([]string, 0, len(labels))
	for user := range labels {
		users = append(users, user)
	}
	sort.Strings(users)

	distinct := map[string]struct{}{}
	parts := make([]string, 0, len(users))
	for _, user := range users {
		distinct[labels[user]] = struct{}{}
		parts = append(parts, userStyle(user).Render(fmt.Sprintf("%s: %s", user, labels[user])))
	}

	line := strings.Join(parts, "   ")
	if len(distinct) > 1 {
		line += "   " + disagreedStyle.Render("✗ disagreed")
	}
	return line
}

func (m Model) renderCategories() string {
	categories := m.controller.Categories()
	image, _ := m.controller.Current()
	own := m.controller.OwnLabel(image)

	parts := make([]string, 0, len(categories)+1)
	for i, category := range categories {
		if i > 8 {
			break
		}
		if category == session.RemoveCategory {
			continue
		}
		entry := fmt.Sprintf("[%d] %s", i+1, category)
		if category == own {
			parts = append(parts, selectedStyle.Render(entry))
		} else {
			parts = append(parts, categoryStyle.Render(entry))
		}
	}
	parts = append(parts, categoryStyle.Render("[0] "+session.RemoveCategory))
	return strings.Join(parts, "  ")
}

func (m Model) renderStatus() string {
	if m.errMsg != "" {
		return errorStyle.Render(m.errMsg)
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return statusStyle.Render("? for help")
}

func (m Model) renderHelp() string {
	bindings := []struct{ keys, desc string }{
		{"1-9", "label current image"},
		{"0", "remove label"},
		{m.keys.Prev.Help().Key, m.keys.Prev.Help().Desc},
		{m.keys.Next.Help().Key, m.keys.Next.Help().Desc},
		{m.keys.NextUnlabeled.Help().Key, m.keys.NextUnlabeled.Help().Desc},
		{m.keys.Save.Help().Key, m.keys.Save.Help().Desc},
		{m.keys.Refresh.Help().Key, m.keys.Refresh.Help().Desc},
		{m.keys.Reconcile.Help().Key, m.keys.Reconcile.Help().Desc},
		{m.keys.Commit.Help().Key, m.keys.Commit.Help().Desc},
		{m.keys.Discard.Help().Key, m.keys.Discard.Help().Desc},
		{m.keys.Promote.Help().Key, m.keys.Promote.Help().Desc},
		{m.keys.Quit.Help().Key, m.keys.Quit.Help().Desc},
	}

	var b strings.Builder
	for _, binding := range bindings {
		b.WriteString(statusStyle.Render(fmt.Sprintf("  %-8s %s", binding.keys, binding.desc)))
		b.WriteString("\n")
	}
	return b.String()
}
