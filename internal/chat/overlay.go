package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// openSearchOverlay starts a user search, either to open a direct chat or to
// invite into the active group.
func (m *Model) openSearchOverlay(kind overlayKind) (tea.Model, tea.Cmd) {
	if kind == overlayInvite {
		room := m.session.Room()
		if room == nil || !room.IsGroup() {
			return m, m.toast(m.catalog.T("select_group"))
		}
	}
	m.overlay = kind
	m.overlayInput.Prompt = "🔍 "
	m.overlayInput.Placeholder = m.catalog.T("search_users")
	m.resetOverlayInput()
	m.searchNote = m.catalog.T("type_to_search")
	return m, textinput.Blink
}

func (m *Model) openGroupOverlay() (tea.Model, tea.Cmd) {
	m.overlay = overlayNewGroup
	m.overlayInput.Prompt = "👥 "
	m.overlayInput.Placeholder = m.catalog.T("group_name")
	m.resetOverlayInput()
	return m, textinput.Blink
}

func (m *Model) openMembersOverlay() (tea.Model, tea.Cmd) {
	room := m.session.Room()
	if room == nil || !room.IsGroup() {
		return m, m.toast(m.catalog.T("select_group"))
	}
	m.overlay = overlayMembers
	m.members = nil
	m.input.Blur()
	return m, m.membersCmd(room.ID)
}

func (m *Model) openReactionPicker() (tea.Model, tea.Cmd) {
	messages := m.session.Messages()
	if m.selected < 0 || m.selected >= len(messages) {
		return m, nil
	}
	msg := messages[m.selected]
	if msg.System || msg.ID == 0 {
		return m, nil
	}
	m.overlay = overlayPicker
	m.pickerTarget = msg.ID
	m.input.Blur()
	return m, nil
}

func (m *Model) resetOverlayInput() {
	m.overlayInput.SetValue("")
	m.overlayInput.Focus()
	m.input.Blur()
	m.searchResults = nil
	m.resultIndex = 0
	m.searchNote = ""
	m.pendingQuery = ""
	m.searchDebounce.Cancel()
}

func (m *Model) closeOverlay() {
	m.overlay = overlayNone
	m.overlayInput.Blur()
	m.overlayInput.SetValue("")
	m.searchResults = nil
	m.resultIndex = 0
	m.searchNote = ""
	m.members = nil
	m.pickerTarget = 0
	m.pendingQuery = ""
	m.searchDebounce.Cancel()
	m.input.Focus()
}

func (m *Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		m.closeOverlay()
		return m, nil
	}

	switch m.overlay {
	case overlayPicker:
		return m.handlePickerKey(msg)
	case overlayMembers:
		return m, nil
	case overlayNewGroup:
		if msg.Type == tea.KeyEnter {
			name := strings.TrimSpace(m.overlayInput.Value())
			if name == "" {
				return m, nil
			}
			return m, m.createGroupCmd(name)
		}
		var cmd tea.Cmd
		m.overlayInput, cmd = m.overlayInput.Update(msg)
		return m, cmd
	default:
		return m.handleSearchKey(msg)
	}
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return m, nil
	}
	n := int(msg.Runes[0] - '1')
	if n < 0 || n >= len(reactionEmojis) {
		return m, nil
	}
	target := m.pickerTarget
	m.closeOverlay()
	return m, m.reactCmd(target, reactionEmojis[n])
}

// handleSearchKey drives both search-backed overlays. Edits re-arm the search
// debounce; the trailing tick fires the actual lookup.
func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyUp:
		if m.resultIndex > 0 {
			m.resultIndex--
		}
		return m, nil
	case tea.KeyDown:
		if m.resultIndex < len(m.searchResults)-1 {
			m.resultIndex++
		}
		return m, nil
	case tea.KeyEnter:
		if m.resultIndex < 0 || m.resultIndex >= len(m.searchResults) {
			return m, nil
		}
		user := m.searchResults[m.resultIndex]
		if m.overlay == overlayInvite {
			room := m.session.Room()
			if room == nil {
				m.closeOverlay()
				return m, nil
			}
			return m, m.inviteCmd(room.ID, user)
		}
		return m, m.createPrivateCmd(user)
	}

	var cmd tea.Cmd
	m.overlayInput, cmd = m.overlayInput.Update(msg)
	query := strings.TrimSpace(m.overlayInput.Value())
	if query == m.pendingQuery {
		return m, cmd
	}
	m.pendingQuery = query
	m.searchResults = nil
	m.resultIndex = 0
	if len([]rune(query)) < searchMinChars {
		m.searchNote = m.catalog.T("type_to_search")
		m.searchDebounce.Cancel()
		return m, cmd
	}
	m.searchDebounce.Touch(time.Now())
	return m, tea.Batch(cmd, debounceTickCmd("search", m.searchDebounce.Interval()))
}

func (m *Model) renderOverlay() string {
	var title string
	var lines []string

	switch m.overlay {
	case overlayNewChat:
		title = m.catalog.T("new_chat")
		lines = m.renderSearchBody()
	case overlayInvite:
		title = m.catalog.T("invite_user")
		lines = m.renderSearchBody()
	case overlayNewGroup:
		title = m.catalog.T("new_group")
		lines = []string{m.overlayInput.View(), "",
			lipgloss.NewStyle().Foreground(m.theme.meta).Render(m.catalog.T("group_name_hint"))}
	case overlayMembers:
		title = m.catalog.T("members")
		lines = m.renderMembersBody()
	case overlayPicker:
		title = m.catalog.T("react")
		lines = m.renderPickerBody()
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(m.theme.accent).Render(title)
	body := lipgloss.JoinVertical(lipgloss.Left, append([]string{header, ""}, lines...)...)
	return lipgloss.NewStyle().
		Width(m.viewport.Width).
		Height(m.viewport.Height).
		Padding(1, 2).
		Render(body)
}

func (m *Model) renderSearchBody() []string {
	lines := []string{m.overlayInput.View(), ""}
	if m.searchNote != "" {
		return append(lines, lipgloss.NewStyle().Foreground(m.theme.meta).Italic(true).Render(m.searchNote))
	}
	for i, user := range m.searchResults {
		avatar := user.Avatar
		if avatar == "" {
			avatar = "👤"
		}
		label := fmt.Sprintf("%s %s", avatar, user.Username)
		if i == m.resultIndex {
			label = lipgloss.NewStyle().Foreground(m.theme.accent).Bold(true).Render("› " + label)
		} else {
			label = "  " + label
		}
		lines = append(lines, label)
	}
	return lines
}

func (m *Model) renderMembersBody() []string {
	if m.members == nil {
		return []string{lipgloss.NewStyle().Foreground(m.theme.meta).Italic(true).Render(m.catalog.T("loading"))}
	}
	var lines []string
	for _, member := range m.members {
		badge := lipgloss.NewStyle().Foreground(m.theme.offline).Render("○")
		if m.session.IsOnline(member.Username) {
			badge = lipgloss.NewStyle().Foreground(m.theme.online).Render("●")
		}
		avatar := member.Avatar
		if avatar == "" {
			avatar = "👤"
		}
		line := fmt.Sprintf("%s %s %s", badge, avatar, member.Username)
		if member.IsCreator {
			line += " 👑"
		}
		lines = append(lines, line)
	}
	return lines
}

func (m *Model) renderPickerBody() []string {
	var row []string
	for i, emoji := range reactionEmojis {
		row = append(row, fmt.Sprintf("%d %s", i+1, emoji))
	}
	return []string{
		strings.Join(row, "   "),
		"",
		lipgloss.NewStyle().Foreground(m.theme.meta).Render(m.catalog.T("picker_hint")),
	}
}
