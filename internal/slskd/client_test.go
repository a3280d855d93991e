package slskd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL, "test-key", nil)
	c.SearchPoll = time.Millisecond
	c.SearchWait = 50 * time.Millisecond
	return c, srv
}

func TestStartSearch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v0/searches" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Error("missing api key")
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["searchText"] != "artist title" {
			t.Errorf("unexpected query: %v", body["searchText"])
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "s-1", "state": "InProgress"})
	}))

	id, err := c.StartSearch(context.Background(), "artist title", 30000)
	if err != nil {
		t.Fatalf("StartSearch failed: %v", err)
	}
	if id != "s-1" {
		t.Errorf("expected search id s-1, got %s", id)
	}
}

func TestWaitForSearchPollsUntilTerminal(t *testing.T) {
	polls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v0/searches/s-2":
			polls++
			state := "InProgress"
			if polls >= 3 {
				state = "Completed"
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "s-2", "state": state})
		case "/api/v0/searches/s-2/responses":
			json.NewEncoder(w).Encode([]SearchResponse{
				{Username: "peer1", Files: []SearchFile{{Filename: "a.mp3"}}},
			})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))

	responses, err := c.WaitForSearch(context.Background(), "s-2")
	if err != nil {
		t.Fatalf("WaitForSearch failed: %v", err)
	}
	if len(responses) != 1 || responses[0].Username != "peer1" {
		t.Errorf("unexpected responses: %+v", responses)
	}
	if polls < 3 {
		t.Errorf("expected at least 3 polls, got %d", polls)
	}
}

func TestUserDownloadsBareListShape(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"directory": "Music\\Albums", "files": [
				{"filename": "song.mp3", "size": 100, "bytesTransferred": 50, "state": "InProgress"},
				"garbage entry",
				{"filename": "other.mp3", "size": 200, "bytesTransferred": 200, "state": "Completed, Succeeded"}
			]},
			42
		]`))
	}))

	dirs, err := c.UserDownloads(context.Background(), "peer1")
	if err != nil {
		t.Fatalf("UserDownloads failed: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 directory (malformed skipped), got %d", len(dirs))
	}
	if len(dirs[0].Files) != 2 {
		t.Fatalf("expected 2 files (garbage skipped), got %d", len(dirs[0].Files))
	}
	if dirs[0].Files[1].State != "Completed, Succeeded" {
		t.Errorf("unexpected state: %s", dirs[0].Files[1].State)
	}
}

func TestUserDownloadsWrappedShape(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"username": "peer1", "directories": [
			{"directory": "d", "files": [{"filename": "x.flac", "size": 1, "bytesTransferred": 0, "state": "Queued"}]}
		]}`))
	}))

	dirs, err := c.UserDownloads(context.Background(), "peer1")
	if err != nil {
		t.Fatalf("UserDownloads failed: %v", err)
	}
	if len(dirs) != 1 || len(dirs[0].Files) != 1 {
		t.Fatalf("unexpected dirs: %+v", dirs)
	}
}

func TestEnqueueDownload(t *testing.T) {
	var got []SearchFile
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v0/transfers/downloads/peer1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))

	files := []SearchFile{{Filename: `Music\a.mp3`, Size: 9000000}}
	if err := c.EnqueueDownload(context.Background(), "peer1", files); err != nil {
		t.Fatalf("EnqueueDownload failed: %v", err)
	}
	if len(got) != 1 || got[0].Filename != `Music\a.mp3` {
		t.Errorf("daemon did not receive file descriptor: %+v", got)
	}
}

func TestDeleteSearchIgnoresErrors(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	// Must not panic or propagate the error.
	c.DeleteSearch(context.Background(), "missing")
}
