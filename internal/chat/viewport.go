package chat

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// refreshViewport re-projects the session into the scrollback. Pass
// scrollToBottom for live appends and page-1 loads; prepends preserve the
// offset via the caller's height delta.
func (m *Model) refreshViewport(scrollToBottom bool) {
	content := m.renderMessages()
	// Keep content taller than the viewport so scrolling stays engaged.
	contentHeight := lipgloss.Height(content)
	if contentHeight > 0 && contentHeight <= m.viewport.Height {
		content = "\n" + content
	}
	m.viewport.SetContent(content)
	if scrollToBottom {
		m.viewport.GotoBottom()
		return
	}
	if m.viewport.Height <= 0 {
		return
	}
	maxOffset := lipgloss.Height(content) - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.viewport.YOffset > maxOffset {
		m.viewport.SetYOffset(maxOffset)
	}
}

func (m *Model) contentHeight() int {
	return lipgloss.Height(m.renderMessages())
}

func (m *Model) nearTop() bool {
	return m.viewport.YOffset <= 2
}

// loadOlderPage reserves and dispatches the next older history page. The
// session's loading guard makes repeated scroll events while a fetch is
// pending a no-op.
func (m *Model) loadOlderPage() tea.Cmd {
	roomID, page, ok := m.session.StartOlderLoad()
	if !ok {
		return nil
	}
	return m.loadPageCmd(roomID, page)
}

func (m *Model) scrollSelectionIntoView() {
	if m.selected < 0 {
		return
	}
	offset := m.messageLineOffset(m.selected)
	if offset < m.viewport.YOffset {
		m.viewport.SetYOffset(offset)
		return
	}
	bottom := m.viewport.YOffset + m.viewport.Height
	if offset >= bottom {
		m.viewport.SetYOffset(offset - m.viewport.Height + 1)
	}
}
