// Package protocol defines the wire format of the realtime channel: a JSON
// envelope {event, data} in both directions, plus the payload shapes for
// every event kind the server speaks.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/nebulachat/nebula/internal/types"
)

// Outbound event names.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
)

// Inbound event names.
const (
	EventReceiveMessage  = "receive_message"
	EventMessageReaction = "message_reaction"
	EventUserTyping      = "user_typing"
	EventUserStatus      = "user_status"
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventUserInvited     = "user_invited"
	EventError           = "error"
)

// Envelope wraps every frame on the channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRoom asks the server to add this connection to a room.
type JoinRoom struct {
	RoomID int `json:"room_id"`
}

// LeaveRoom removes this connection from a room.
type LeaveRoom struct {
	RoomID int `json:"room_id"`
}

// SendMessage posts a message to a room. ReplyToID is zero when the message
// is not a reply.
type SendMessage struct {
	Text      string `json:"text"`
	RoomID    int    `json:"room_id"`
	ReplyToID int64  `json:"reply_to_id,omitempty"`
}

// Typing announces the local user's typing state for a room.
type Typing struct {
	RoomID   int  `json:"room_id"`
	IsTyping bool `json:"is_typing"`
}

// ReceiveMessage is a message pushed by the server. RoomID identifies the
// room the message belongs to; events for rooms other than the active one
// are dropped by the session layer.
type ReceiveMessage struct {
	types.Message
	RoomID int `json:"room_id"`
}

// MessageReaction replaces the full reaction state of one message.
type MessageReaction struct {
	MessageID int64               `json:"message_id"`
	Reactions map[string][]string `json:"reactions"`
}

// UserTyping reports a remote user's typing state.
type UserTyping struct {
	User     string `json:"user"`
	IsTyping bool   `json:"is_typing"`
}

// UserStatus reports a user going online or offline.
type UserStatus struct {
	Username string `json:"username"`
	IsOnline bool   `json:"is_online"`
}

// UserJoined announces a user entering the room.
type UserJoined struct {
	User string `json:"user"`
}

// UserLeft announces a user leaving the room.
type UserLeft struct {
	User string `json:"user"`
}

// UserInvited announces a group invite.
type UserInvited struct {
	User      string `json:"user"`
	InvitedBy string `json:"invited_by"`
	RoomID    int    `json:"room_id"`
}

// ServerError is a channel-level rejection of a prior outbound event.
type ServerError struct {
	Message string `json:"message"`
}

// Event is any decoded inbound payload.
type Event interface{ eventName() string }

func (ReceiveMessage) eventName() string  { return EventReceiveMessage }
func (MessageReaction) eventName() string { return EventMessageReaction }
func (UserTyping) eventName() string      { return EventUserTyping }
func (UserStatus) eventName() string      { return EventUserStatus }
func (UserJoined) eventName() string      { return EventUserJoined }
func (UserLeft) eventName() string        { return EventUserLeft }
func (UserInvited) eventName() string     { return EventUserInvited }
func (ServerError) eventName() string     { return EventError }

// Encode builds an envelope frame for an outbound event.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Decode parses an inbound frame into its typed event. Unknown event kinds
// return an error so the caller can log and skip them without dying.
func Decode(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	unmarshal := func(v any) error {
		if len(env.Data) == 0 {
			return fmt.Errorf("decode %s: empty payload", env.Event)
		}
		if err := json.Unmarshal(env.Data, v); err != nil {
			return fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return nil
	}
	switch env.Event {
	case EventReceiveMessage:
		var ev ReceiveMessage
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		ev.Reactions = types.PruneReactions(ev.Reactions)
		return ev, nil
	case EventMessageReaction:
		var ev MessageReaction
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventUserTyping:
		var ev UserTyping
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventUserStatus:
		var ev UserStatus
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventUserJoined:
		var ev UserJoined
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventUserLeft:
		var ev UserLeft
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventUserInvited:
		var ev UserInvited
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventError:
		var ev ServerError
		if err := unmarshal(&ev); err != nil {
			return nil, err
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}
