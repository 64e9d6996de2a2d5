package chat

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nebulachat/nebula/internal/types"
)

func (m *Model) View() string {
	var mainParts []string
	if m.overlay != overlayNone {
		mainParts = append(mainParts, m.renderOverlay())
	} else {
		mainParts = append(mainParts, m.viewport.View())
	}
	if bar := m.renderReplyBar(); bar != "" {
		mainParts = append(mainParts, bar)
	}
	mainParts = append(mainParts, m.input.View(), m.counterLine(), m.statusLine())
	main := lipgloss.JoinVertical(lipgloss.Left, mainParts...)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), main)
}

func (m *Model) renderSidebar() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(m.theme.accent).
		Render(m.catalog.T("rooms"))
	lines := []string{title, ""}

	active := m.session.Room()
	for i, room := range m.rooms {
		icon := "👥"
		if room.Kind == types.RoomDirect {
			icon = "💬"
		}
		label := fmt.Sprintf("%s %s", icon, room.Name)
		style := lipgloss.NewStyle()
		if active != nil && active.ID == room.ID {
			style = style.Foreground(m.theme.accent).Bold(true)
		}
		if m.sidebarFocus && i == m.roomIndex {
			label = "› " + label
		} else {
			label = "  " + label
		}
		lines = append(lines, style.Render(truncateLabel(label, sidebarWidth-2)))
	}
	if len(m.rooms) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(m.theme.meta).Italic(true).
			Render(m.catalog.T("no_rooms")))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return lipgloss.NewStyle().
		Width(sidebarWidth-1).
		Height(m.height).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(m.theme.meta).
		Render(body)
}

// renderReplyBar shows the armed draft reply above the input.
func (m *Model) renderReplyBar() string {
	draft := m.session.DraftReply()
	if draft == nil {
		return ""
	}
	snippet := draft.Text
	if len([]rune(snippet)) > replySnippetLen {
		snippet = string([]rune(snippet)[:replySnippetLen]) + "…"
	}
	text := fmt.Sprintf("↩ %s %s: %s", m.catalog.T("replying_to"), draft.User, snippet)
	return lipgloss.NewStyle().
		Foreground(m.theme.accent).
		Width(m.mainWidth()).
		Render(truncateLabel(text, m.mainWidth()))
}

func truncateLabel(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
