// Package rest talks to the chat server's HTTP API: message history,
// reactions, user search, room management, and display-string endpoints.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nebulachat/nebula/internal/types"
)

// HistoryPageSize is the fixed page size for message history.
const HistoryPageSize = 50

// ErrMalformed marks a 2xx response whose payload does not have the expected
// shape. Callers treat it like any other server rejection.
var ErrMalformed = errors.New("malformed response")

// APIError represents a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

type apiErrorPayload struct {
	Error string `json:"error"`
}

// Client is the chat server API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs an API client for the given base URL.
func NewClient(baseURL, token string) (*Client, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: normalized,
		token:   token,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("server url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	if parsed.Scheme == "" {
		return "", fmt.Errorf("server url must include scheme (https://)")
	}
	return strings.TrimRight(value, "/"), nil
}

// History fetches one page of a room's message history. Page 1 is the most
// recent HistoryPageSize messages; within a page messages are ordered
// oldest-first.
func (c *Client) History(ctx context.Context, roomID, page int) ([]types.Message, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprint(page))
	query.Set("per_page", fmt.Sprint(HistoryPageSize))

	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/messages/%d", roomID), query, nil, &raw); err != nil {
		return nil, err
	}
	var messages []types.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("%w: history is not an array", ErrMalformed)
	}
	for i := range messages {
		messages[i].Reactions = types.PruneReactions(messages[i].Reactions)
	}
	return messages, nil
}

// Rooms fetches the user's room directory. The original client received
// this list with the page itself; here it is a plain listing call, and a
// missing endpoint (404) degrades to an empty directory so the client still
// works against minimal servers.
func (c *Client) Rooms(ctx context.Context) ([]types.Room, error) {
	var items []struct {
		RoomID    int    `json:"room_id"`
		RoomName  string `json:"room_name"`
		IsGroup   bool   `json:"is_group"`
		IsPrivate bool   `json:"is_private"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/rooms", nil, nil, &items); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	rooms := make([]types.Room, 0, len(items))
	for _, item := range items {
		kind := types.RoomGroup
		if item.IsPrivate {
			kind = types.RoomDirect
		}
		rooms = append(rooms, types.Room{ID: item.RoomID, Name: item.RoomName, Kind: kind})
	}
	return rooms, nil
}

// React records an emoji reaction. The resulting reaction state arrives back
// through the channel's message_reaction event, not this call.
func (c *Client) React(ctx context.Context, messageID int64, emoji string) error {
	body := map[string]string{"emoji": emoji}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/messages/%d/react", messageID), nil, body, nil)
}

// SearchUsers finds users by username prefix. An empty result is a valid
// answer; a non-array payload is ErrMalformed.
func (c *Client) SearchUsers(ctx context.Context, q string) ([]types.User, error) {
	query := url.Values{}
	query.Set("q", q)

	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/search", query, nil, &raw); err != nil {
		return nil, err
	}
	var users []types.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("%w: search result is not an array", ErrMalformed)
	}
	return users, nil
}

// PrivateRoomResult is returned when opening a direct chat.
type PrivateRoomResult struct {
	RoomID   int    `json:"room_id"`
	RoomName string `json:"room_name"`
	Existed  bool   `json:"existed"`
}

// CreatePrivateRoom opens (or reuses) a direct chat with a user.
func (c *Client) CreatePrivateRoom(ctx context.Context, userID int) (PrivateRoomResult, error) {
	var resp PrivateRoomResult
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/rooms/private/%d", userID), nil, nil, &resp); err != nil {
		return PrivateRoomResult{}, err
	}
	return resp, nil
}

// GroupRoomResult is returned when creating a group room.
type GroupRoomResult struct {
	RoomID   int    `json:"room_id"`
	RoomName string `json:"room_name"`
}

// CreateGroupRoom creates a named group room.
func (c *Client) CreateGroupRoom(ctx context.Context, name string) (GroupRoomResult, error) {
	body := map[string]string{"name": name}
	var resp GroupRoomResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/rooms/group", nil, body, &resp); err != nil {
		return GroupRoomResult{}, err
	}
	return resp, nil
}

// Invite adds a user to a group room.
func (c *Client) Invite(ctx context.Context, roomID, userID int) error {
	body := map[string]int{"user_id": userID}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/rooms/%d/invite", roomID), nil, body, nil)
}

// Members fetches a room's roster.
func (c *Client) Members(ctx context.Context, roomID int) ([]types.Member, error) {
	var resp struct {
		Members []types.Member `json:"members"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/rooms/%d/members", roomID), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Members == nil {
		return nil, fmt.Errorf("%w: members missing", ErrMalformed)
	}
	return resp.Members, nil
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context) (types.Profile, error) {
	var resp types.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/api/profile", nil, nil, &resp); err != nil {
		return types.Profile{}, err
	}
	return resp, nil
}

// Translations fetches the display-string catalog for a language.
func (c *Client) Translations(ctx context.Context, lang string) (map[string]string, error) {
	var resp map[string]string
	if err := c.doJSON(ctx, http.MethodGet, "/api/translations/"+url.PathEscape(lang), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, reqBody any, respBody any) error {
	endpoint, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, respBody); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	endpoint := base.ResolveReference(ref)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}
	return endpoint.String(), nil
}
