package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nebulachat/nebula/internal/config"
	"github.com/nebulachat/nebula/internal/rest"
	"github.com/nebulachat/nebula/internal/types"
)

const (
	typingQuiet     = time.Second
	searchQuiet     = 300 * time.Millisecond
	searchMinChars  = 2
	toastLinger     = 5 * time.Second
	systemLinger    = 10 * time.Second
	highlightLinger = 2 * time.Second
	requestTimeout  = 15 * time.Second
)

type channelEventMsg struct{ ev any }

type pageLoadedMsg struct {
	roomID   int
	page     int
	messages []types.Message
}

type pageFailedMsg struct {
	roomID int
	page   int
	err    error
}

type roomsMsg struct {
	rooms []types.Room
	err   error
}

type translationsMsg struct {
	lang    string
	strings map[string]string
	err     error
}

type prefsMsg struct {
	prefs config.Preferences
	ok    bool
}

type debounceTickMsg struct{ kind string }

type statusExpireMsg struct{ seq int }

type highlightExpireMsg struct{ seq int }

type systemExpireMsg struct{ localID string }

type searchResultMsg struct {
	query string
	users []types.User
	err   error
}

type membersMsg struct {
	roomID  int
	members []types.Member
	err     error
}

type inviteDoneMsg struct {
	user types.User
	err  error
}

type privateRoomMsg struct {
	user   types.User
	result rest.PrivateRoomResult
	err    error
}

type groupRoomMsg struct {
	name   string
	result rest.GroupRoomResult
	err    error
}

type reactDoneMsg struct{ err error }

// waitForChannelEvent blocks on the channel's inbound queue. Re-issued after
// every delivery so events are consumed one at a time, in arrival order.
func (m *Model) waitForChannelEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.ch.Events()
		if !ok {
			return nil
		}
		return channelEventMsg{ev: ev}
	}
}

func (m *Model) waitForPrefs() tea.Cmd {
	return func() tea.Msg {
		prefs, ok := <-m.prefsUpdates
		return prefsMsg{prefs: prefs, ok: ok}
	}
}

// loadPageCmd fetches one history page. roomID and page were captured when
// the session reserved the load, so settlement handlers can detect staleness.
func (m *Model) loadPageCmd(roomID, page int) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		messages, err := api.History(ctx, roomID, page)
		if err != nil {
			return pageFailedMsg{roomID: roomID, page: page, err: err}
		}
		return pageLoadedMsg{roomID: roomID, page: page, messages: messages}
	}
}

func (m *Model) loadRoomsCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rooms, err := api.Rooms(ctx)
		return roomsMsg{rooms: rooms, err: err}
	}
}

func (m *Model) loadTranslationsCmd(lang string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		strings, err := api.Translations(ctx, lang)
		return translationsMsg{lang: lang, strings: strings, err: err}
	}
}

func (m *Model) searchCmd(query string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		users, err := api.SearchUsers(ctx, query)
		return searchResultMsg{query: query, users: users, err: err}
	}
}

func (m *Model) membersCmd(roomID int) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		members, err := api.Members(ctx, roomID)
		return membersMsg{roomID: roomID, members: members, err: err}
	}
}

func (m *Model) inviteCmd(roomID int, user types.User) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := api.Invite(ctx, roomID, user.ID)
		return inviteDoneMsg{user: user, err: err}
	}
}

func (m *Model) createPrivateCmd(user types.User) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := api.CreatePrivateRoom(ctx, user.ID)
		return privateRoomMsg{user: user, result: result, err: err}
	}
}

func (m *Model) createGroupCmd(name string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := api.CreateGroupRoom(ctx, name)
		return groupRoomMsg{name: name, result: result, err: err}
	}
}

// reactCmd posts a reaction. The reaction state itself comes back through
// the channel's message_reaction event.
func (m *Model) reactCmd(messageID int64, emoji string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return reactDoneMsg{err: api.React(ctx, messageID, emoji)}
	}
}

// debounceTickCmd wakes the model when a debouncer's trailing edge is due.
// Stale ticks are filtered by the debouncer's own deadline check.
func debounceTickCmd(kind string, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceTickMsg{kind: kind}
	})
}

func statusExpireCmd(seq int) tea.Cmd {
	return tea.Tick(toastLinger, func(time.Time) tea.Msg {
		return statusExpireMsg{seq: seq}
	})
}

func highlightExpireCmd(seq int) tea.Cmd {
	return tea.Tick(highlightLinger, func(time.Time) tea.Msg {
		return highlightExpireMsg{seq: seq}
	})
}

func systemExpireCmd(localID string) tea.Cmd {
	return tea.Tick(systemLinger, func(time.Time) tea.Msg {
		return systemExpireMsg{localID: localID}
	})
}
