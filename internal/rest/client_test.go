package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func testServer(t *testing.T, configure func(r chi.Router)) *Client {
	t.Helper()
	router := chi.NewRouter()
	configure(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "test-token")
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestNewClientRejectsBadURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.url, ""); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestHistory(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/messages/{roomID}", func(w http.ResponseWriter, req *http.Request) {
			if chi.URLParam(req, "roomID") != "4" {
				t.Errorf("roomID = %q", chi.URLParam(req, "roomID"))
			}
			if got := req.URL.Query().Get("page"); got != "2" {
				t.Errorf("page = %q", got)
			}
			if got := req.URL.Query().Get("per_page"); got != "50" {
				t.Errorf("per_page = %q", got)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("authorization = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"id":1,"user":"ana","text":"a","reactions":{"👍":["bo"],"🔥":[]}},
				{"id":2,"user":"bo","text":"b","is_own":true}
			]`))
		})
	})

	messages, err := client.History(context.Background(), 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("len = %d, want 2", len(messages))
	}
	if _, ok := messages[0].Reactions["🔥"]; ok {
		t.Error("empty reactor set not pruned")
	}
	if !messages[1].IsOwn {
		t.Error("is_own not decoded")
	}
}

func TestHistoryMalformed(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/messages/{roomID}", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"error":"oops-but-200"}`))
		})
	})

	_, err := client.History(context.Background(), 1, 1)
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestHistoryAPIError(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/messages/{roomID}", func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"not a member"}`))
		})
	})

	_, err := client.History(context.Background(), 1, 1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "not a member" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestRooms(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/rooms", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"room_id":1,"room_name":"general","is_group":true},
				{"room_id":2,"room_name":"ana","is_private":true}
			]`))
		})
	})

	rooms, err := client.Rooms(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 2 {
		t.Fatalf("len = %d, want 2", len(rooms))
	}
	if !rooms[0].IsGroup() {
		t.Errorf("rooms[0] = %+v, want group", rooms[0])
	}
	if rooms[1].IsGroup() {
		t.Errorf("rooms[1] = %+v, want direct", rooms[1])
	}
}

func TestRoomsMissingEndpoint(t *testing.T) {
	client := testServer(t, func(r chi.Router) {})

	rooms, err := client.Rooms(context.Background())
	if err != nil {
		t.Fatalf("404 should degrade to an empty directory, got %v", err)
	}
	if rooms != nil {
		t.Errorf("rooms = %v, want nil", rooms)
	}
}

func TestReact(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Post("/api/messages/{messageID}/react", func(w http.ResponseWriter, req *http.Request) {
			if chi.URLParam(req, "messageID") != "12" {
				t.Errorf("messageID = %q", chi.URLParam(req, "messageID"))
			}
			var body map[string]string
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body["emoji"] != "👍" {
				t.Errorf("emoji = %q", body["emoji"])
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	if err := client.React(context.Background(), 12, "👍"); err != nil {
		t.Fatal(err)
	}
}

func TestSearchUsers(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/users/search", func(w http.ResponseWriter, req *http.Request) {
			if got := req.URL.Query().Get("q"); got != "an" {
				t.Errorf("q = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"id":5,"username":"ana","avatar":"🦊"}]`))
		})
	})

	users, err := client.SearchUsers(context.Background(), "an")
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].ID != 5 || users[0].Username != "ana" {
		t.Errorf("users = %+v", users)
	}
}

func TestSearchUsersMalformed(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/users/search", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"users":[]}`))
		})
	})

	if _, err := client.SearchUsers(context.Background(), "an"); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestCreatePrivateRoom(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Post("/api/rooms/private/{userID}", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"room_id":8,"room_name":"ana","existed":true}`))
		})
	})

	result, err := client.CreatePrivateRoom(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if result.RoomID != 8 || result.RoomName != "ana" || !result.Existed {
		t.Errorf("result = %+v", result)
	}
}

func TestMembers(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/rooms/{roomID}/members", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"members":[{"username":"ana","is_creator":true},{"username":"bo"}]}`))
		})
	})

	members, err := client.Members(context.Background(), 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || !members[0].IsCreator || members[1].IsCreator {
		t.Errorf("members = %+v", members)
	}
}

func TestMembersMalformed(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/rooms/{roomID}/members", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		})
	})

	if _, err := client.Members(context.Background(), 8); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestTranslations(t *testing.T) {
	client := testServer(t, func(r chi.Router) {
		r.Get("/api/translations/{lang}", func(w http.ResponseWriter, req *http.Request) {
			if chi.URLParam(req, "lang") != "de" {
				t.Errorf("lang = %q", chi.URLParam(req, "lang"))
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"connected":"verbunden"}`))
		})
	})

	strings, err := client.Translations(context.Background(), "de")
	if err != nil {
		t.Fatal(err)
	}
	if strings["connected"] != "verbunden" {
		t.Errorf("strings = %v", strings)
	}
}
