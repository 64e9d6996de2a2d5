package types

// RoomKind distinguishes direct (1:1) chats from group rooms.
type RoomKind string

const (
	RoomDirect RoomKind = "direct"
	RoomGroup  RoomKind = "group"
)

// Room is a conversation scope. Messages always belong to exactly one room.
type Room struct {
	ID   int      `json:"room_id"`
	Name string   `json:"room_name"`
	Kind RoomKind `json:"kind"`
}

// IsGroup reports whether the room supports invites and a member list.
func (r Room) IsGroup() bool {
	return r.Kind == RoomGroup
}

// ReplyRef is the preview of a replied-to message carried inside a message
// payload. The snippet is rendered even when the original message is not in
// the loaded history.
type ReplyRef struct {
	ID   int64  `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
}

// Message is one chat message as the client sees it.
//
// ID is server-assigned and zero for transient lines that never hit the
// server. Reactions maps an emoji key to the display names of reactors; it is
// replaced wholesale on every reaction event and never stores an empty set
// (see PruneReactions). Timestamp is the display string formatted by the
// server.
type Message struct {
	ID         int64               `json:"id,omitempty"`
	User       string              `json:"user"`
	UserAvatar string              `json:"user_avatar,omitempty"`
	Text       string              `json:"text"`
	Timestamp  string              `json:"timestamp,omitempty"`
	IsOwn      bool                `json:"is_own"`
	ReplyTo    *ReplyRef           `json:"reply_to,omitempty"`
	Reactions  map[string][]string `json:"reactions,omitempty"`

	// Client-only fields, never sent on the wire.
	System  bool   `json:"-"` // transient system notice (joins, invites)
	LocalID string `json:"-"` // identifies transient lines for removal
}

// PruneReactions drops emoji keys with no reactors so the render layer never
// sees an empty strip entry.
func PruneReactions(reactions map[string][]string) map[string][]string {
	if len(reactions) == 0 {
		return nil
	}
	pruned := make(map[string][]string, len(reactions))
	for emoji, users := range reactions {
		if len(users) == 0 {
			continue
		}
		pruned[emoji] = users
	}
	if len(pruned) == 0 {
		return nil
	}
	return pruned
}

// User is a directory entry returned by user search.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Member is a room roster entry.
type Member struct {
	Username  string `json:"username"`
	Avatar    string `json:"avatar,omitempty"`
	IsCreator bool   `json:"is_creator"`
}

// Profile is the authenticated user's own profile, consumed read-only.
type Profile struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}
