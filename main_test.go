package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/gisthub/internal/config"
	"github.com/debemdeboas/gisthub/internal/editor"
	"github.com/debemdeboas/gisthub/internal/gists"
	"github.com/debemdeboas/gisthub/internal/model"
	"github.com/debemdeboas/gisthub/internal/remote"
	"github.com/debemdeboas/gisthub/internal/session"
)

func newTestServer(t *testing.T, service *remote.Memory) (*server, http.Handler) {
	t.Helper()

	list := gists.NewController(service, gists.Options{})
	t.Cleanup(list.Close)

	srv := newServer(session.New(list, editor.NewMemoryWorkspace(service, 0)), model.AllGists, zerolog.Nop())
	return srv, srv.routes()
}

func do(t *testing.T, h http.Handler, method, target string, body string, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(config.HCType, contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return out
}

type listResponse struct {
	Content struct {
		State string       `json:"state"`
		Gists []model.Gist `json:"gists"`
		Error string       `json:"error"`
	} `json:"content"`
	Search  string `json:"search"`
	Mode    string `json:"mode"`
	Version uint64 `json:"version"`
}

func seedGist(id, filename string) model.Gist {
	return model.Gist{
		ID:    model.GistID(id),
		Owner: &model.Owner{Login: model.String("alice")},
		Files: map[string]model.File{filename: model.NewFile(filename, id)},
	}
}

func TestSecureHeaders(t *testing.T) {
	_, h := newTestServer(t, remote.NewMemory(""))

	rec := do(t, h, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	for header, want := range map[string]string{
		"X-Frame-Options":        "deny",
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "no-cache",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("Expected %s %q, got %q", header, want, got)
		}
	}
}

func TestLoadAndSearchEndpoints(t *testing.T) {
	_, h := newTestServer(t, remote.NewMemory("", seedGist("A", "a.go"), seedGist("B", "b.md")))

	rec := do(t, h, http.MethodGet, "/api/gists", "", "")
	if got := decode[listResponse](t, rec); got.Content.State != "loading" {
		t.Errorf("Expected loading before the first load, got %+v", got)
	}

	rec = do(t, h, http.MethodPost, "/api/gists/load?mode=all", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[listResponse](t, rec)
	if got.Content.State != "content" || len(got.Content.Gists) != 2 || got.Mode != "all" {
		t.Fatalf("Unexpected snapshot %+v", got)
	}

	form := url.Values{"q": {"b.md"}}.Encode()
	rec = do(t, h, http.MethodPost, "/api/gists/search", form, "application/x-www-form-urlencoded")
	got = decode[listResponse](t, rec)
	if got.Search != "b.md" || len(got.Content.Gists) != 1 || got.Content.Gists[0].ID != "B" {
		t.Errorf("Unexpected search result %+v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/gists/A", "", "")
	if rec.Code != http.StatusOK || decode[model.Gist](t, rec).ID != "A" {
		t.Errorf("Expected gist A, got %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/api/gists/Z", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}

	if rec := do(t, h, http.MethodPost, "/api/gists/load?mode=forked", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad mode, got %d", rec.Code)
	}
}

func TestLoadFailureEndpoint(t *testing.T) {
	service := remote.NewMemory("")
	service.FailWith(errors.New("upstream down"), nil, nil)
	_, h := newTestServer(t, service)

	rec := do(t, h, http.MethodPost, "/api/gists/load", "", "")
	got := decode[listResponse](t, rec)
	if got.Content.State != "error" || got.Content.Error != "Upstream down" {
		t.Errorf("Unexpected snapshot %+v", got)
	}
}

func TestCreateGistFlow(t *testing.T) {
	_, h := newTestServer(t, remote.NewMemory("alice", seedGist("A", "a.go"), seedGist("B", "b.md")))
	do(t, h, http.MethodPost, "/api/gists/load", "", "")

	rec := do(t, h, http.MethodPost, "/new/gist", "", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}
	draft := decode[editor.Snapshot](t, rec)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == config.CookieDraftID {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != string(draft.ID) {
		t.Fatalf("Expected draft cookie for %s, got %v", draft.ID, cookie)
	}

	base := "/api/drafts/" + string(draft.ID)

	rec = do(t, h, http.MethodPost, base+"/commit", "", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for an empty draft, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodPut, base+"/files/readme.md", "# Readme", "text/plain")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if snap := decode[editor.Snapshot](t, rec); !snap.CanCommit || snap.Suggestion != "Readme" {
		t.Errorf("Unexpected draft snapshot %+v", snap)
	}

	form := url.Values{"description": {"docs"}, "visibility": {"public"}}.Encode()
	rec = do(t, h, http.MethodPost, base+"/commit", form, "application/x-www-form-urlencoded")
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[model.Gist](t, rec)
	if created.Visibility != model.Public || created.DescriptionOrEmpty() != "docs" {
		t.Errorf("Unexpected created gist %+v", created)
	}

	list := decode[listResponse](t, do(t, h, http.MethodGet, "/api/gists", "", ""))
	if len(list.Content.Gists) != 3 || list.Content.Gists[0].ID != created.ID {
		t.Errorf("Expected created gist first, got %+v", list.Content.Gists)
	}

	if snap := decode[editor.Snapshot](t, do(t, h, http.MethodGet, base, "", "")); snap.CanCommit {
		t.Error("Expected draft to be discarded after commit")
	}

	if rec := do(t, h, http.MethodDelete, base, "", ""); rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, base, "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rec.Code)
	}
}

func TestCommitFailureEndpoint(t *testing.T) {
	service := remote.NewMemory("")
	_, h := newTestServer(t, service)

	draft := decode[editor.Snapshot](t, do(t, h, http.MethodPost, "/new/gist", "", ""))
	base := "/api/drafts/" + string(draft.ID)
	do(t, h, http.MethodPut, base+"/files/a.py", "print(1)", "text/plain")

	service.FailWith(nil, nil, errors.New("rejected"))
	rec := do(t, h, http.MethodPost, base+"/commit", "", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["error"] != "Rejected" {
		t.Errorf("Expected rendered message, got %v", got)
	}

	if snap := decode[editor.Snapshot](t, do(t, h, http.MethodGet, base, "", "")); len(snap.Files) != 1 {
		t.Errorf("Expected draft to survive a failed commit, got %+v", snap)
	}

	rec = do(t, h, http.MethodPost, base+"/commit", url.Values{"visibility": {"friends"}}.Encode(), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad visibility, got %d", rec.Code)
	}
}

func TestCommitOutlivesDisconnectedClient(t *testing.T) {
	service := remote.NewMemory("alice", seedGist("A", "a.go"))
	_, h := newTestServer(t, service)
	do(t, h, http.MethodPost, "/api/gists/load", "", "")

	draft := decode[editor.Snapshot](t, do(t, h, http.MethodPost, "/new/gist", "", ""))
	base := "/api/drafts/" + string(draft.ID)
	do(t, h, http.MethodPut, base+"/files/x.js", "let x = 1", "text/plain")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, base+"/commit", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.Creates() != 1 {
		t.Errorf("Expected one create, got %d", service.Creates())
	}
	list := decode[listResponse](t, do(t, h, http.MethodGet, "/api/gists", "", ""))
	if len(list.Content.Gists) != 2 || list.Content.Gists[1].ID != "A" {
		t.Errorf("Expected the created gist to reach the list, got %+v", list.Content.Gists)
	}
}

func TestUnknownDraft(t *testing.T) {
	_, h := newTestServer(t, remote.NewMemory(""))

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/drafts/nope"},
		{http.MethodPut, "/api/drafts/nope/files/a.txt"},
		{http.MethodPost, "/api/drafts/nope/commit"},
		{http.MethodDelete, "/api/drafts/nope"},
		{http.MethodGet, "/sse?stream=draft&draft=nope"},
	} {
		if rec := do(t, h, tc.method, tc.target, "", ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", tc.method, tc.target, rec.Code)
		}
	}
}

func TestEventsStream(t *testing.T) {
	srv, h := newTestServer(t, remote.NewMemory("", seedGist("A", "a.go")))
	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/sse?stream=gists")
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get(config.HCType); ct != config.CTypeEventStream {
		t.Errorf("Expected event stream, got %q", ct)
	}

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	if err := srv.session.List.Insert(seedGist("N", "n.txt")); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(3 * time.Second)
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("Stream closed before the inserted gist arrived")
			}
			if strings.HasPrefix(line, "data: ") && strings.Contains(line, `"id":"N"`) {
				return
			}
		case <-timeout:
			t.Fatal("Timed out waiting for the snapshot event")
		}
	}
}
