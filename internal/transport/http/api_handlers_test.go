package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestAuthEndpoints(t *testing.T) {
	ts, _ := startTestServer(t)

	resp := postJSON(t, ts.URL+"/api/auth/register", RegisterRequest{Username: "alice", Password: "password123"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}
	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if authResp.Token == "" {
		t.Fatal("register returned empty token")
	}

	// Duplicate registration conflicts.
	resp = postJSON(t, ts.URL+"/api/auth/register", RegisterRequest{Username: "alice", Password: "password123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status: %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/auth/login", LoginRequest{Username: "alice", Password: "password123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/auth/login", LoginRequest{Username: "alice", Password: "wrong"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status: %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/auth/guest", struct{}{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("guest status: %d", resp.StatusCode)
	}
}

func TestRoomsAPIRequiresAuth(t *testing.T) {
	ts, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("get rooms: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRoomsAPIListsLiveRooms(t *testing.T) {
	ts, authService := startTestServer(t)

	token, err := authService.Guest(context.Background())
	if err != nil {
		t.Fatalf("guest token: %v", err)
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/rooms", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get rooms: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rooms status: %d", resp.StatusCode)
	}

	var body struct {
		Rooms []RoomResponse `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(body.Rooms) != 0 {
		t.Fatalf("expected no rooms yet, got %d", len(body.Rooms))
	}
}
