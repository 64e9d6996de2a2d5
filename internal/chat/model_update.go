package chat

import (
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nebulachat/nebula/internal/channel"
	"github.com/nebulachat/nebula/internal/config"
	"github.com/nebulachat/nebula/internal/protocol"
	"github.com/nebulachat/nebula/internal/session"
	"github.com/nebulachat/nebula/internal/types"
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tea.FocusMsg:
		m.focused = true
		return m, nil
	case tea.BlurMsg:
		m.focused = false
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		return m.handleMouseMsg(msg)
	case channelEventMsg:
		return m.handleChannelEvent(msg)
	case pageLoadedMsg:
		return m.handlePageLoaded(msg)
	case pageFailedMsg:
		return m.handlePageFailed(msg)
	case roomsMsg:
		return m.handleRooms(msg)
	case translationsMsg:
		return m.handleTranslations(msg)
	case prefsMsg:
		return m.handlePrefs(msg)
	case debounceTickMsg:
		return m.handleDebounceTick(msg)
	case statusExpireMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	case highlightExpireMsg:
		if msg.seq == m.highlightSeq {
			m.highlightIdx = -1
			m.refreshViewport(false)
		}
		return m, nil
	case systemExpireMsg:
		if m.session.RemoveLocal(msg.localID) {
			m.clampSelection()
			m.refreshViewport(false)
		}
		return m, nil
	case searchResultMsg:
		return m.handleSearchResult(msg)
	case membersMsg:
		return m.handleMembers(msg)
	case inviteDoneMsg:
		return m.handleInviteDone(msg)
	case privateRoomMsg:
		return m.handlePrivateRoom(msg)
	case groupRoomMsg:
		return m.handleGroupRoom(msg)
	case reactDoneMsg:
		if msg.err != nil {
			return m, m.toastError(m.catalog.T("reaction_error"), msg.err)
		}
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// handleChannelEvent routes one inbound channel event and re-arms the wait,
// keeping delivery strictly ordered.
func (m *Model) handleChannelEvent(msg tea.Msg) (tea.Model, tea.Cmd) {
	ev := msg.(channelEventMsg).ev
	cmds := []tea.Cmd{m.waitForChannelEvent()}

	switch ev := ev.(type) {
	case channel.StateChange:
		m.connState = ev.State
		m.connErr = ev.Err
		m.connFinal = ev.Final
		if ev.Final {
			cmds = append(cmds, m.toastError(m.catalog.T("connection_error"), ev.Err))
		}
	case protocol.ReceiveMessage:
		if m.session.AppendIncoming(ev) {
			m.refreshViewport(true)
			m.notifyIncoming(ev.Message)
		}
	case protocol.MessageReaction:
		// Unknown ids are silently ignored; only the affected message's
		// strip changes, scroll position stays put.
		if _, ok := m.session.ApplyReaction(ev.MessageID, ev.Reactions); ok {
			m.refreshViewport(false)
		}
	case protocol.UserTyping:
		m.session.SetRemoteTyping(ev.User, ev.IsTyping)
	case protocol.UserStatus:
		// Re-derive every author badge; rooms are small enough that a full
		// re-render is fine.
		m.session.SetOnline(ev.Username, ev.IsOnline)
		m.refreshViewport(false)
	case protocol.UserJoined:
		cmds = append(cmds, m.addSystemLine(ev.User+" "+m.catalog.T("user_joined")))
	case protocol.UserLeft:
		cmds = append(cmds, m.addSystemLine(ev.User+" "+m.catalog.T("user_left")))
	case protocol.UserInvited:
		cmds = append(cmds, m.addSystemLine(ev.InvitedBy+" "+m.catalog.T("invited")+" "+ev.User))
		if room := m.session.Room(); room != nil && room.ID == ev.RoomID && m.overlay == overlayMembers {
			cmds = append(cmds, m.membersCmd(room.ID))
		}
	case protocol.ServerError:
		cmds = append(cmds, m.toast(ev.Message))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	// Height before the prepend, to keep the scroll position stable.
	prevHeight := m.contentHeight()
	if !m.session.ApplyPage(msg.roomID, msg.page, msg.messages) {
		// Stale response for a room that is no longer active.
		return m, nil
	}
	if msg.page == 1 {
		m.clampSelection()
		m.refreshViewport(true)
		return m, nil
	}
	if m.selected >= 0 {
		m.selected += len(msg.messages)
	}
	if m.highlightIdx >= 0 {
		m.highlightIdx += len(msg.messages)
	}
	m.refreshViewport(false)
	delta := m.contentHeight() - prevHeight
	if delta > 0 {
		m.viewport.SetYOffset(m.viewport.YOffset + delta)
	}
	return m, nil
}

func (m *Model) handlePageFailed(msg pageFailedMsg) (tea.Model, tea.Cmd) {
	m.session.FailPage(msg.roomID)
	room := m.session.Room()
	if room == nil || room.ID != msg.roomID {
		return m, nil
	}
	return m, m.toastError(m.catalog.T("history_error"), msg.err)
}

func (m *Model) handleRooms(msg roomsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.toastError(m.catalog.T("rooms_error"), msg.err)
	}
	m.rooms = msg.rooms
	return m, nil
}

func (m *Model) handleTranslations(msg translationsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Keys double as fallback strings; keep going untranslated.
		m.log.Warn().Err(msg.err).Str("lang", msg.lang).Msg("translations unavailable")
		return m, nil
	}
	m.catalog = config.NewCatalog(msg.lang, msg.strings)
	return m, nil
}

func (m *Model) handlePrefs(msg prefsMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		return m, nil
	}
	cmds := []tea.Cmd{m.waitForPrefs()}
	if msg.prefs.Language != m.prefs.Language {
		cmds = append(cmds, m.loadTranslationsCmd(msg.prefs.Language))
	}
	if msg.prefs.Theme != m.prefs.Theme {
		m.theme = themeFor(msg.prefs.Theme)
		m.refreshViewport(false)
	}
	m.prefs = msg.prefs
	return m, tea.Batch(cmds...)
}

func (m *Model) handleDebounceTick(msg debounceTickMsg) (tea.Model, tea.Cmd) {
	now := time.Now()
	switch msg.kind {
	case "typing":
		if m.typingDebounce.Expire(now) {
			if room := m.session.Room(); room != nil {
				if err := m.ch.Typing(room.ID, false); err != nil && !errors.Is(err, channel.ErrNotConnected) {
					m.log.Warn().Err(err).Msg("typing stop failed")
				}
			}
		}
	case "search":
		if m.searchDebounce.Expire(now) && len([]rune(m.pendingQuery)) >= searchMinChars {
			m.searchNote = m.catalog.T("loading")
			return m, m.searchCmd(m.pendingQuery)
		}
	}
	return m, nil
}

func (m *Model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if m.overlay != overlayInvite && m.overlay != overlayNewChat {
		return m, nil
	}
	if msg.query != m.pendingQuery {
		// Superseded by a newer query.
		return m, nil
	}
	if msg.err != nil {
		m.searchResults = nil
		m.searchNote = m.catalog.T("error")
		return m, m.toastError(m.catalog.T("search_error"), msg.err)
	}
	m.searchResults = msg.users
	m.searchNote = ""
	if len(msg.users) == 0 {
		m.searchNote = m.catalog.T("no_results")
	}
	return m, nil
}

func (m *Model) handleMembers(msg membersMsg) (tea.Model, tea.Cmd) {
	room := m.session.Room()
	if room == nil || room.ID != msg.roomID || m.overlay != overlayMembers {
		return m, nil
	}
	if msg.err != nil {
		m.members = nil
		return m, m.toastError(m.catalog.T("members_error"), msg.err)
	}
	m.members = msg.members
	return m, nil
}

func (m *Model) handleInviteDone(msg inviteDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.toastError(m.catalog.T("invite_error"), msg.err)
	}
	m.closeOverlay()
	return m, m.addSystemLine(msg.user.Username + " " + m.catalog.T("invited_to_group"))
}

func (m *Model) handlePrivateRoom(msg privateRoomMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.toastError(m.catalog.T("create_chat_error"), msg.err)
	}
	m.closeOverlay()
	room := types.Room{ID: msg.result.RoomID, Name: msg.result.RoomName, Kind: types.RoomDirect}
	m.upsertRoom(room)
	return m, m.switchRoom(room)
}

func (m *Model) handleGroupRoom(msg groupRoomMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.toastError(m.catalog.T("create_group_error"), msg.err)
	}
	m.closeOverlay()
	room := types.Room{ID: msg.result.RoomID, Name: msg.result.RoomName, Kind: types.RoomGroup}
	m.upsertRoom(room)
	return m, m.switchRoom(room)
}

// switchRoom leaves the active room, activates the new one, and kicks off
// the page-1 history fetch. Join/leave failures while disconnected are
// connectivity toasts, not fatal; the rejoin fires on reconnect.
func (m *Model) switchRoom(room types.Room) tea.Cmd {
	var cmds []tea.Cmd
	if err := m.session.SwitchRoom(room); err != nil {
		if errors.Is(err, channel.ErrNotConnected) {
			cmds = append(cmds, m.toast(m.catalog.T("not_connected")))
		} else {
			cmds = append(cmds, m.toastError(m.catalog.T("switch_error"), err))
		}
	}
	m.selected = -1
	m.highlightIdx = -1
	m.typingDebounce.Cancel()
	m.resize()
	m.refreshViewport(true)
	if roomID, page, ok := m.session.StartInitialLoad(); ok {
		cmds = append(cmds, m.loadPageCmd(roomID, page))
	}
	return tea.Batch(cmds...)
}

func (m *Model) upsertRoom(room types.Room) {
	for _, existing := range m.rooms {
		if existing.ID == room.ID {
			return
		}
	}
	m.rooms = append([]types.Room{room}, m.rooms...)
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.session.Messages()) {
		m.selected = len(m.session.Messages()) - 1
	}
	if m.highlightIdx >= len(m.session.Messages()) {
		m.highlightIdx = -1
	}
}

// sendCurrentInput validates and dispatches the composed message.
func (m *Model) sendCurrentInput() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if err := m.session.SendMessage(text); err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyMessage):
			return m, nil
		case errors.Is(err, session.ErrTooLong):
			return m, m.toast(m.catalog.T("message_too_long"))
		case errors.Is(err, session.ErrNoRoom):
			return m, m.toast(m.catalog.T("select_room"))
		case errors.Is(err, channel.ErrNotConnected):
			return m, m.toast(m.catalog.T("not_connected"))
		default:
			return m, m.toastError(m.catalog.T("send_error"), err)
		}
	}
	m.input.Reset()
	m.lastInput = ""
	// The session already announced typing=false; just disarm the timer.
	m.typingDebounce.Cancel()
	m.resize()
	return m, nil
}
