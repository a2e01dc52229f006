package handlers

import (
	"net/http"
	"testing"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
)

func TestChannelProfileAnonymous(t *testing.T) {
	queries := &fakeQueries{profile: models.ChannelProfile{
		Username:         "alice",
		FullName:         "Alice Streams",
		SubscribersCount: 42,
		IsSubscribed:     false,
	}}
	srv, _ := newTestServer(t, &fakeSessions{user: testUser()}, queries)

	resp, err := http.Get(srv.URL + "/api/v1/users/c/alice")
	if err != nil {
		t.Fatalf("profile request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if queries.lastUsername != "alice" {
		t.Fatalf("path value not passed through, got %q", queries.lastUsername)
	}
	if queries.lastViewerID != "" {
		t.Fatalf("anonymous request must not carry a viewer id, got %q", queries.lastViewerID)
	}

	envelope := decodeEnvelope(t, resp.Body)
	data := envelope["data"].(map[string]any)
	if data["username"] != "alice" || data["subscribersCount"] != float64(42) {
		t.Fatalf("unexpected profile payload: %v", data)
	}
}

func TestChannelProfileAuthenticatedViewer(t *testing.T) {
	queries := &fakeQueries{profile: models.ChannelProfile{Username: "bob", IsSubscribed: true}}
	srv, tokens := newTestServer(t, &fakeSessions{user: testUser()}, queries)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/users/c/bob", nil)
	req.Header.Set("Authorization", bearerFor(t, tokens, testUser()))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("profile request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	if queries.lastViewerID != "user-1" {
		t.Fatalf("viewer id not derived from token, got %q", queries.lastViewerID)
	}
}

func TestChannelProfileUnknownChannelIs404(t *testing.T) {
	queries := &fakeQueries{err: apperr.E(apperr.KindNotFound, "channel does not exist")}
	srv, _ := newTestServer(t, &fakeSessions{user: testUser()}, queries)

	resp, err := http.Get(srv.URL + "/api/v1/users/c/ghost")
	if err != nil {
		t.Fatalf("profile request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.StatusCode)
	}
	envelope := decodeEnvelope(t, resp.Body)
	if envelope["message"] != "channel does not exist" {
		t.Fatalf("unexpected error envelope: %v", envelope)
	}
}

func TestWatchHistoryEndpoint(t *testing.T) {
	queries := &fakeQueries{history: []models.WatchEntry{
		{ID: "v2", Title: "second", Owner: models.VideoOwner{Username: "bob", FullName: "Bob"}},
		{ID: "v1", Title: "first", Owner: models.VideoOwner{Username: "carol", FullName: "Carol"}},
	}}
	srv, tokens := newTestServer(t, &fakeSessions{user: testUser()}, queries)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/users/history", nil)
	req.Header.Set("Authorization", bearerFor(t, tokens, testUser()))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("history request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.StatusCode)
	}
	envelope := decodeEnvelope(t, resp.Body)
	entries, ok := envelope["data"].([]any)
	if !ok || len(entries) != 2 {
		t.Fatalf("expected two history entries, got %v", envelope["data"])
	}
	first := entries[0].(map[string]any)
	owner, ok := first["owner"].(map[string]any)
	if !ok || owner["username"] != "bob" {
		t.Fatalf("expected nested owner projection, got %v", first)
	}
}

func TestWatchHistoryRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSessions{user: testUser()}, &fakeQueries{})

	resp, err := http.Get(srv.URL + "/api/v1/users/history")
	if err != nil {
		t.Fatalf("history request: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.StatusCode)
	}
}
