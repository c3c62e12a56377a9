package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/debemdeboas/gisthub/internal/language"
	"github.com/debemdeboas/gisthub/internal/model"
)

const gistPage1 = `[
  {
    "id": "g1",
    "description": "demo",
    "public": true,
    "html_url": "https://gist.github.com/g1",
    "owner": {"login": "alice"},
    "files": {
      "a.py": {"filename": "a.py", "language": "Python", "size": 12, "raw_url": "https://example.com/a.py"},
      "b.md": {"filename": "b.md", "language": "Markdown", "size": 3}
    },
    "created_at": "2024-05-01T10:00:00Z",
    "updated_at": "2024-05-02T10:00:00Z"
  }
]`

const gistPage2 = `[
  {"id": "g2", "public": false, "files": {"notes": {"filename": "notes"}}, "created_at": "2024-04-01T10:00:00Z"}
]`

func newTestGitHub(t *testing.T, handler http.Handler, opts GitHubOptions) *GitHub {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts.BaseURL = server.URL
	gh, err := NewGitHub(context.Background(), "token-123", opts)
	if err != nil {
		t.Fatalf("NewGitHub failed: %v", err)
	}
	return gh
}

func TestGitHubListGistsPaginates(t *testing.T) {
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/alice/gists", func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer token-123" {
			t.Errorf("Expected bearer token, got %q", auth)
		}

		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, gistPage2)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/users/alice/gists?page=2>; rel="next"`, serverURL))
		fmt.Fprint(w, gistPage1)
	})

	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	gh, err := NewGitHub(context.Background(), "token-123", GitHubOptions{User: "alice", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGitHub failed: %v", err)
	}

	gists, err := gh.ListGists(context.Background())
	if err != nil {
		t.Fatalf("ListGists failed: %v", err)
	}
	if len(gists) != 2 || gists[0].ID != "g1" || gists[1].ID != "g2" {
		t.Fatalf("Expected [g1 g2] in remote order, got %v", gists)
	}

	g1 := gists[0]
	if g1.OwnerLogin() != "alice" || g1.DescriptionOrEmpty() != "demo" || g1.Visibility != model.Public {
		t.Errorf("Unexpected conversion %+v", g1)
	}
	if g1.Files["a.py"].Language != language.Python || g1.Files["a.py"].RawURL != "https://example.com/a.py" {
		t.Errorf("Unexpected file conversion %+v", g1.Files["a.py"])
	}
	if g1.Files["a.py"].Content != nil {
		t.Error("Expected metadata-only file to have nil content")
	}
	if g1.CreatedAt.Year() != 2024 {
		t.Errorf("Expected created_at to pass through, got %v", g1.CreatedAt)
	}

	g2 := gists[1]
	if g2.Owner != nil || g2.Description != nil {
		t.Errorf("Expected absent owner and description, got %+v", g2)
	}
	if g2.Files["notes"].Language != language.PlainText {
		t.Errorf("Expected plain text for extensionless file, got %s", g2.Files["notes"].Language)
	}
}

func TestGitHubMaxPages(t *testing.T) {
	calls := 0
	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/gists/starred", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Link", fmt.Sprintf(`<%s/gists/starred?page=%d>; rel="next"`, serverURL, calls+1))
		fmt.Fprint(w, gistPage1)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	gh, _ := NewGitHub(context.Background(), "", GitHubOptions{BaseURL: server.URL, MaxPages: 3})
	gists, err := gh.ListStarredGists(context.Background())
	if err != nil {
		t.Fatalf("ListStarredGists failed: %v", err)
	}
	if calls != 3 || len(gists) != 3 {
		t.Errorf("Expected 3 pages, got %d calls and %d gists", calls, len(gists))
	}
}

func TestGitHubCreateGist(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gists", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		body, _ := io.ReadAll(r.Body)
		var req struct {
			Description string `json:"description"`
			Public      bool   `json:"public"`
			Files       map[string]struct {
				Content string `json:"content"`
			} `json:"files"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("Bad request body: %v", err)
		}
		if req.Description != "demo" || req.Public {
			t.Errorf("Unexpected request %+v", req)
		}
		if req.Files["readme.md"].Content != "# hi" {
			t.Errorf("Expected readme content, got %+v", req.Files)
		}

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "new", "description": "demo", "public": false, "owner": {"login": "alice"},
			"files": {"readme.md": {"filename": "readme.md", "content": "# hi"}}}`)
	})

	gh := newTestGitHub(t, mux, GitHubOptions{})
	files := map[string]model.File{"readme.md": model.NewFile("readme.md", "# hi")}

	gist, err := gh.CreateGist(context.Background(), "demo", files, false)
	if err != nil {
		t.Fatalf("CreateGist failed: %v", err)
	}
	if gist.ID != "new" || gist.Visibility != model.Secret {
		t.Errorf("Unexpected gist %+v", gist)
	}
	if gist.Files["readme.md"].ContentOrEmpty() != "# hi" || gist.Files["readme.md"].Language != language.Markdown {
		t.Errorf("Unexpected file %+v", gist.Files["readme.md"])
	}
}

func TestGitHubErrorsAreDescribable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gists", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	})

	gh := newTestGitHub(t, mux, GitHubOptions{})
	_, err := gh.ListGists(context.Background())
	if err == nil {
		t.Fatal("Expected an error")
	}
	if msg := Describe(err); !strings.HasPrefix(msg, "Authentication failed") {
		t.Errorf("Expected authentication message, got %q", msg)
	}
}

func TestGitHubStarGist(t *testing.T) {
	starred := false
	mux := http.NewServeMux()
	mux.HandleFunc("/gists/g1/star", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			starred = true
		}
		w.WriteHeader(http.StatusNoContent)
	})

	gh := newTestGitHub(t, mux, GitHubOptions{})
	if err := gh.StarGist(context.Background(), "g1"); err != nil {
		t.Fatalf("StarGist failed: %v", err)
	}
	if !starred {
		t.Error("Expected PUT /gists/g1/star")
	}
}

func TestNewGitHubDefaults(t *testing.T) {
	gh, err := NewGitHub(context.Background(), "", GitHubOptions{})
	if err != nil {
		t.Fatalf("NewGitHub failed: %v", err)
	}
	if gh.perPage != 30 || gh.maxPages != 10 {
		t.Errorf("Unexpected defaults per_page=%d max_pages=%d", gh.perPage, gh.maxPages)
	}
	if gh.client.BaseURL.Host != "api.github.com" {
		t.Errorf("Expected api.github.com, got %s", gh.client.BaseURL.Host)
	}
}

func TestCreateValidatesFiles(t *testing.T) {
	gh, _ := NewGitHub(context.Background(), "", GitHubOptions{BaseURL: "http://127.0.0.1:1"})
	if _, err := gh.CreateGist(context.Background(), "", map[string]model.File{}, true); err != ErrNoFiles {
		t.Errorf("Expected ErrNoFiles, got %v", err)
	}
}
