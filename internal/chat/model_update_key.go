package chat

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.overlay != overlayNone {
		return m.handleOverlayKey(msg)
	}

	switch msg.Type {
	case tea.KeyEsc:
		switch {
		case m.session.DraftReply() != nil:
			m.session.ClearDraftReply()
			m.resize()
		case m.sidebarFocus:
			m.sidebarFocus = false
		case m.selected >= 0:
			m.selected = -1
			m.refreshViewport(false)
		}
		return m, nil

	case tea.KeyTab:
		m.sidebarFocus = !m.sidebarFocus
		return m, nil

	case tea.KeyEnter:
		if m.sidebarFocus {
			return m.enterSelectedRoom()
		}
		return m.sendCurrentInput()

	case tea.KeyUp, tea.KeyDown:
		if m.sidebarFocus {
			return m.moveRoomCursor(msg.Type == tea.KeyUp)
		}

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		// Edge trigger: reaching the top starts the next older page load.
		if (msg.Type == tea.KeyPgUp || msg.Type == tea.KeyHome) && m.nearTop() {
			return m, tea.Batch(cmd, m.loadOlderPage())
		}
		return m, cmd

	case tea.KeyCtrlP:
		return m.moveSelection(-1)
	case tea.KeyCtrlN:
		return m.moveSelection(1)

	case tea.KeyCtrlR:
		return m.startReply()
	case tea.KeyCtrlE:
		return m.openReactionPicker()
	case tea.KeyCtrlJ:
		return m.jumpToReplyOrigin()

	case tea.KeyCtrlF:
		return m.openSearchOverlay(overlayNewChat)
	case tea.KeyCtrlG:
		return m.openGroupOverlay()
	case tea.KeyCtrlO:
		return m.openSearchOverlay(overlayInvite)
	case tea.KeyCtrlB:
		return m.openMembersOverlay()

	case tea.KeyF5:
		if m.connFinal {
			m.connFinal = false
			m.ch.Reconnect()
			return m, m.toast(m.catalog.T("reconnecting"))
		}
		return m, nil
	}

	if m.sidebarFocus {
		return m, nil
	}

	// Everything else edits the input; a content change drives the typing
	// coordinator.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if typingCmd := m.handleLocalTyping(); typingCmd != nil {
		return m, tea.Batch(cmd, typingCmd)
	}
	return m, cmd
}

func (m *Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	if msg.Button == tea.MouseButtonWheelUp && msg.Action == tea.MouseActionPress && m.nearTop() {
		return m, tea.Batch(cmd, m.loadOlderPage())
	}
	return m, cmd
}

func (m *Model) moveRoomCursor(up bool) (tea.Model, tea.Cmd) {
	if len(m.rooms) == 0 {
		return m, nil
	}
	if up {
		m.roomIndex--
	} else {
		m.roomIndex++
	}
	if m.roomIndex < 0 {
		m.roomIndex = 0
	}
	if m.roomIndex >= len(m.rooms) {
		m.roomIndex = len(m.rooms) - 1
	}
	return m, nil
}

func (m *Model) enterSelectedRoom() (tea.Model, tea.Cmd) {
	if m.roomIndex < 0 || m.roomIndex >= len(m.rooms) {
		return m, nil
	}
	room := m.rooms[m.roomIndex]
	m.sidebarFocus = false
	if active := m.session.Room(); active != nil && active.ID == room.ID {
		return m, nil
	}
	return m, m.switchRoom(room)
}

func (m *Model) moveSelection(delta int) (tea.Model, tea.Cmd) {
	messages := m.session.Messages()
	if len(messages) == 0 {
		return m, nil
	}
	if m.selected < 0 {
		m.selected = len(messages) - 1
	} else {
		m.selected += delta
		if m.selected < 0 {
			m.selected = 0
		}
		if m.selected >= len(messages) {
			m.selected = len(messages) - 1
		}
	}
	m.refreshViewport(false)
	m.scrollSelectionIntoView()
	return m, nil
}

// startReply arms the draft reply slot with the selected message, replacing
// any prior draft without confirmation.
func (m *Model) startReply() (tea.Model, tea.Cmd) {
	messages := m.session.Messages()
	if m.selected < 0 || m.selected >= len(messages) {
		return m, nil
	}
	msg := messages[m.selected]
	if msg.System || msg.ID == 0 {
		return m, nil
	}
	m.session.SetDraftReply(msg)
	m.resize()
	return m, nil
}

func (m *Model) jumpToReplyOrigin() (tea.Model, tea.Cmd) {
	messages := m.session.Messages()
	if m.selected < 0 || m.selected >= len(messages) {
		return m, nil
	}
	ref := messages[m.selected].ReplyTo
	if ref == nil {
		return m, nil
	}
	idx, ok := m.session.FindMessage(ref.ID)
	if !ok {
		// Origin is on a page that is not loaded; the quoted snippet is all
		// we can show.
		return m, m.toast(m.catalog.T("original_not_loaded"))
	}
	m.highlightIdx = idx
	m.highlightSeq++
	m.refreshViewport(false)
	m.viewport.SetYOffset(m.messageLineOffset(idx))
	return m, highlightExpireCmd(m.highlightSeq)
}
