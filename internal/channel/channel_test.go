package channel

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nebulachat/nebula/internal/protocol"
)

var upgrader = websocket.Upgrader{}

// chatServer is a minimal websocket endpoint that records inbound frames and
// can push frames to the connected client.
type chatServer struct {
	t        *testing.T
	server   *httptest.Server
	inbound  chan protocol.Envelope
	sessions chan *websocket.Conn
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	cs := &chatServer{
		t:        t,
		inbound:  make(chan protocol.Envelope, 64),
		sessions: make(chan *websocket.Conn, 8),
	}
	cs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cs.sessions <- conn
		for {
			var env protocol.Envelope
			if err := conn.ReadJSON(&env); err != nil {
				return
			}
			cs.inbound <- env
		}
	}))
	t.Cleanup(cs.server.Close)
	return cs
}

func (cs *chatServer) url() string {
	return "ws" + strings.TrimPrefix(cs.server.URL, "http")
}

func (cs *chatServer) waitSession() *websocket.Conn {
	cs.t.Helper()
	select {
	case conn := <-cs.sessions:
		return conn
	case <-time.After(5 * time.Second):
		cs.t.Fatal("timed out waiting for a connection")
		return nil
	}
}

func (cs *chatServer) waitFrame() protocol.Envelope {
	cs.t.Helper()
	select {
	case env := <-cs.inbound:
		return env
	case <-time.After(5 * time.Second):
		cs.t.Fatal("timed out waiting for a frame")
		return protocol.Envelope{}
	}
}

func waitEvent(t *testing.T, c *Client) any {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

// waitState consumes events until the channel reaches the wanted state.
func waitState(t *testing.T, c *Client, want State) StateChange {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-c.Events():
			if change, ok := ev.(StateChange); ok && change.State == want {
				return change
			}
		case <-deadline:
			t.Fatalf("timed out waiting for state %v", want)
		}
	}
}

func newTestClient(url string) *Client {
	return New(Options{
		URL:         url,
		MaxAttempts: 2,
		RetryDelay:  10 * time.Millisecond,
		Logger:      zerolog.Nop(),
	})
}

func TestConnectAndSend(t *testing.T) {
	server := newChatServer(t)
	client := newTestClient(server.url())
	defer client.Close()

	client.Connect()
	waitState(t, client, StateConnected)

	if err := client.JoinRoom(3); err != nil {
		t.Fatal(err)
	}
	if err := client.SendMessage("hello", 3, 0); err != nil {
		t.Fatal(err)
	}
	if err := client.Typing(3, true); err != nil {
		t.Fatal(err)
	}

	server.waitSession()
	events := []string{
		server.waitFrame().Event,
		server.waitFrame().Event,
		server.waitFrame().Event,
	}
	want := []string{protocol.EventJoinRoom, protocol.EventSendMessage, protocol.EventTyping}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, events[i], want[i])
		}
	}

	// A leave the server heard clears the rejoin target.
	if err := client.LeaveRoom(3); err != nil {
		t.Fatal(err)
	}
	if env := server.waitFrame(); env.Event != protocol.EventLeaveRoom {
		t.Errorf("frame = %q, want leave_room", env.Event)
	}
	client.mu.Lock()
	last := client.lastRoom
	client.mu.Unlock()
	if last != 0 {
		t.Errorf("rejoin target = %d, want 0", last)
	}
}

func TestSendWhileDisconnected(t *testing.T) {
	client := newTestClient("ws://127.0.0.1:0/ws")
	defer client.Close()

	if err := client.SendMessage("hello", 1, 0); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
	if err := client.Typing(1, true); !errors.Is(err, ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestInboundEventsDelivered(t *testing.T) {
	server := newChatServer(t)
	client := newTestClient(server.url())
	defer client.Close()

	client.Connect()
	waitState(t, client, StateConnected)
	conn := server.waitSession()

	frame := `{"event":"receive_message","data":{"id":1,"user":"ana","text":"hi","room_id":3}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatal(err)
	}
	// Malformed frames are dropped without killing the connection.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"mystery","data":{}}`)); err != nil {
		t.Fatal(err)
	}
	frame = `{"event":"user_typing","data":{"user":"ana","is_typing":true}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, client)
	msg, ok := ev.(protocol.ReceiveMessage)
	if !ok {
		t.Fatalf("first event = %T", ev)
	}
	if msg.ID != 1 || msg.RoomID != 3 {
		t.Errorf("message = %+v", msg)
	}

	ev = waitEvent(t, client)
	if typing, ok := ev.(protocol.UserTyping); !ok || typing.User != "ana" {
		t.Errorf("second event = %#v", ev)
	}
}

func TestRejoinAfterReconnect(t *testing.T) {
	server := newChatServer(t)
	client := newTestClient(server.url())
	defer client.Close()

	client.Connect()
	waitState(t, client, StateConnected)
	conn := server.waitSession()

	if err := client.JoinRoom(7); err != nil {
		t.Fatal(err)
	}
	if env := server.waitFrame(); env.Event != protocol.EventJoinRoom {
		t.Fatalf("frame = %q, want join_room", env.Event)
	}

	// Drop the connection server-side; the client retries and rejoins.
	conn.Close()
	waitState(t, client, StateDisconnected)
	waitState(t, client, StateConnected)
	server.waitSession()

	env := server.waitFrame()
	if env.Event != protocol.EventJoinRoom {
		t.Fatalf("frame after reconnect = %q, want join_room", env.Event)
	}
	var join protocol.JoinRoom
	if err := json.Unmarshal(env.Data, &join); err != nil {
		t.Fatal(err)
	}
	if join.RoomID != 7 {
		t.Errorf("rejoined room %d, want 7", join.RoomID)
	}
}

func TestLeaveRoomKeepsRejoinTargetWhileDisconnected(t *testing.T) {
	client := newTestClient("ws://127.0.0.1:0/ws")
	defer client.Close()

	// Join while down records the rejoin target even though the emit fails.
	if err := client.JoinRoom(7); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("join err = %v, want ErrNotConnected", err)
	}
	// A leave the server never heard must not clear it, or the room active
	// on screen would be silently dropped on reconnect.
	if err := client.LeaveRoom(7); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("leave err = %v, want ErrNotConnected", err)
	}

	client.mu.Lock()
	got := client.lastRoom
	client.mu.Unlock()
	if got != 7 {
		t.Errorf("rejoin target = %d, want 7", got)
	}
}

func TestRetryExhaustionIsFinal(t *testing.T) {
	client := New(Options{
		URL:         "ws://127.0.0.1:1/ws",
		MaxAttempts: 2,
		RetryDelay:  time.Millisecond,
		Logger:      zerolog.Nop(),
	})
	defer client.Close()

	client.Connect()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-client.Events():
			change, ok := ev.(StateChange)
			if !ok {
				continue
			}
			if change.Final {
				if change.State != StateDisconnected || change.Err == nil {
					t.Errorf("final change = %+v", change)
				}
				return
			}
		case <-deadline:
			t.Fatal("no final state change after retry exhaustion")
		}
	}
}

func TestLastConnectedAt(t *testing.T) {
	server := newChatServer(t)
	client := newTestClient(server.url())
	defer client.Close()

	if !client.LastConnectedAt().IsZero() {
		t.Error("LastConnectedAt should be zero before the first connection")
	}
	client.Connect()
	waitState(t, client, StateConnected)
	if client.LastConnectedAt().IsZero() {
		t.Error("LastConnectedAt not recorded")
	}
}
