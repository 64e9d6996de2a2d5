// Package session tracks the active room: its message sequence, pagination
// cursor, draft reply, presence set, and the guards that keep concurrent
// event sources (server push, history fetches, room switches) consistent.
package session

import (
	"errors"
	"strings"

	"github.com/nebulachat/nebula/internal/protocol"
	"github.com/nebulachat/nebula/internal/types"
)

// MaxMessageLen is the hard limit on outbound message length, matching the
// server's validation.
const MaxMessageLen = 500

// Validation errors, rejected locally before any network traffic.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrTooLong      = errors.New("message is too long")
	ErrNoRoom       = errors.New("no room selected")
)

// Channel is the slice of the realtime client the session drives.
type Channel interface {
	JoinRoom(roomID int) error
	LeaveRoom(roomID int) error
	SendMessage(text string, roomID int, replyToID int64) error
	Typing(roomID int, isTyping bool) error
}

// Session is the single mutable structure behind the chat view. Exactly one
// room is active at a time; switching rooms replaces all per-room state
// wholesale. All methods run on the UI event loop, so there is no locking —
// the guards exist for the async fetches that settle later.
type Session struct {
	ch Channel

	room    *types.Room
	page    int
	loading bool

	messages []types.Message

	draftReply *types.Message

	online map[string]struct{}

	typingUser   string
	typingActive bool
}

// New creates an empty session bound to an outbound channel.
func New(ch Channel) *Session {
	return &Session{
		ch:     ch,
		page:   1,
		online: make(map[string]struct{}),
	}
}

// Room returns the active room, or nil.
func (s *Session) Room() *types.Room { return s.room }

// Page returns the history page cursor (1 = newest page).
func (s *Session) Page() int { return s.page }

// Loading reports whether a history fetch is in flight for the active room.
func (s *Session) Loading() bool { return s.loading }

// Messages returns the active room's sequence, oldest first. Callers must
// treat it as read-only.
func (s *Session) Messages() []types.Message { return s.messages }

// SwitchRoom leaves the current room (if any) and activates another one.
// Leave is always announced before join. The previous room's messages, draft
// reply, pagination state, and any in-flight fetch are discarded; a fetch
// that settles later fails the stale-response guard in ApplyPage.
//
// The local swap happens unconditionally: leave/join are server
// notifications, not preconditions, so a down channel never pins the view to
// the old room. The returned error reports the connectivity failure; server
// membership catches up via rejoin-on-reconnect.
func (s *Session) SwitchRoom(room types.Room) error {
	var firstErr error
	if s.room != nil {
		firstErr = s.ch.LeaveRoom(s.room.ID)
	}
	s.room = &room
	s.page = 1
	s.loading = false
	s.messages = nil
	s.draftReply = nil
	s.typingUser = ""
	s.typingActive = false
	if err := s.ch.JoinRoom(room.ID); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// StartInitialLoad reserves the page-1 fetch for the active room. It returns
// the room id and page to fetch, or ok=false when no room is active or a
// fetch is already in flight.
func (s *Session) StartInitialLoad() (roomID, page int, ok bool) {
	return s.startLoad(1)
}

// StartOlderLoad reserves a fetch of the next older page, used by the
// scroll-to-top trigger. The cursor itself only advances when the page is
// applied, so a failed fetch retries the same page.
func (s *Session) StartOlderLoad() (roomID, page int, ok bool) {
	return s.startLoad(s.page + 1)
}

func (s *Session) startLoad(page int) (int, int, bool) {
	if s.room == nil || s.loading {
		return 0, 0, false
	}
	s.loading = true
	return s.room.ID, page, true
}

// ApplyPage settles a successful history fetch. Results for a room that is
// no longer active are discarded without touching any state (the loading
// flag was already reset by the switch). Page 1 replaces the sequence; older
// pages are prepended and advance the cursor.
func (s *Session) ApplyPage(roomID, page int, messages []types.Message) bool {
	if s.room == nil || s.room.ID != roomID {
		return false
	}
	s.loading = false
	if page == 1 {
		s.messages = append([]types.Message(nil), messages...)
		s.page = 1
		return true
	}
	s.messages = append(append([]types.Message(nil), messages...), s.messages...)
	s.page = page
	return true
}

// FailPage settles a failed history fetch. The cursor is left unchanged so
// the same page can be retried; the loading guard is always released for the
// room it was taken for.
func (s *Session) FailPage(roomID int) {
	if s.room == nil || s.room.ID != roomID {
		return
	}
	s.loading = false
}

// AppendIncoming applies a pushed message. Payloads without text or author
// are invalid, and events for rooms other than the active one are dropped
// here. Returns true when the message was appended.
func (s *Session) AppendIncoming(ev protocol.ReceiveMessage) bool {
	if ev.Text == "" || ev.User == "" {
		return false
	}
	if s.room == nil || ev.RoomID != s.room.ID {
		return false
	}
	msg := ev.Message
	msg.Reactions = types.PruneReactions(msg.Reactions)
	s.messages = append(s.messages, msg)
	return true
}

// AppendLocal appends a transient local line (system notices). It never
// leaves the client.
func (s *Session) AppendLocal(msg types.Message) {
	s.messages = append(s.messages, msg)
}

// RemoveLocal drops a transient line by its local id.
func (s *Session) RemoveLocal(localID string) bool {
	for i, msg := range s.messages {
		if msg.LocalID != localID {
			continue
		}
		s.messages = append(s.messages[:i], s.messages[i+1:]...)
		return true
	}
	return false
}

// ApplyReaction replaces a message's reaction state wholesale. Unknown
// message ids are ignored. Returns the message index so the view can
// re-render just that entry.
func (s *Session) ApplyReaction(messageID int64, reactions map[string][]string) (int, bool) {
	for i := range s.messages {
		if s.messages[i].ID != messageID || s.messages[i].ID == 0 {
			continue
		}
		s.messages[i].Reactions = types.PruneReactions(reactions)
		return i, true
	}
	return 0, false
}

// FindMessage returns the in-memory message with the given id, used to jump
// to a reply's origin. The origin may be on a page that is not loaded.
func (s *Session) FindMessage(id int64) (int, bool) {
	for i := range s.messages {
		if s.messages[i].ID == id && id != 0 {
			return i, true
		}
	}
	return 0, false
}

// SetDraftReply arms the single reply slot, replacing any prior draft.
func (s *Session) SetDraftReply(msg types.Message) {
	s.draftReply = &msg
}

// DraftReply returns the message being replied to, or nil.
func (s *Session) DraftReply() *types.Message { return s.draftReply }

// ClearDraftReply cancels the draft reply.
func (s *Session) ClearDraftReply() { s.draftReply = nil }

// SendMessage validates and dispatches an outbound message. Rejections are
// local and leave all state untouched. On success the draft reply is cleared
// and "not typing" is announced immediately (the caller cancels its debounce
// timer).
func (s *Session) SendMessage(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}
	if len([]rune(trimmed)) > MaxMessageLen {
		return ErrTooLong
	}
	if s.room == nil {
		return ErrNoRoom
	}
	var replyTo int64
	if s.draftReply != nil {
		replyTo = s.draftReply.ID
	}
	if err := s.ch.SendMessage(trimmed, s.room.ID, replyTo); err != nil {
		return err
	}
	s.draftReply = nil
	// The message is already on the wire; the typing-stop announcement is
	// best-effort and must not make a successful send look failed.
	_ = s.ch.Typing(s.room.ID, false)
	return nil
}

// SetOnline updates the presence set from a user_status event.
func (s *Session) SetOnline(username string, online bool) {
	if online {
		s.online[username] = struct{}{}
		return
	}
	delete(s.online, username)
}

// IsOnline reports whether a user is in the presence set.
func (s *Session) IsOnline(username string) bool {
	_, ok := s.online[username]
	return ok
}

// SetRemoteTyping records the most recent remote typing event. Only one
// indicator is kept; a stop event from any user clears it.
func (s *Session) SetRemoteTyping(user string, typing bool) {
	if typing {
		s.typingUser = user
		s.typingActive = true
		return
	}
	s.typingUser = ""
	s.typingActive = false
}

// RemoteTyping returns the user currently shown as typing, if any.
func (s *Session) RemoteTyping() (string, bool) {
	return s.typingUser, s.typingActive
}
