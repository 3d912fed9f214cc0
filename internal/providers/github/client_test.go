package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"appforge/internal/domain"
	"appforge/internal/pipeline"
	"appforge/internal/storage"
)

func TestPublishRepositoryCreatesAndPushes(t *testing.T) {
	var (
		mu      sync.Mutex
		created createRepoRequest
		pushed  = map[string]string{}
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_test" {
			t.Errorf("Authorization = %q", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/user/repos":
			mu.Lock()
			_ = json.NewDecoder(r.Body).Decode(&created)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":     created.Name,
				"html_url": "https://github.example.test/mockuser/" + created.Name,
				"owner":    map[string]string{"login": "mockuser"},
			})
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/repos/mockuser/"):
			var body putContentsRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			raw, err := base64.StdEncoding.DecodeString(body.Content)
			if err != nil {
				t.Errorf("content not base64: %v", err)
			}
			parts := strings.SplitN(r.URL.Path, "/contents/", 2)
			mu.Lock()
			pushed[parts[1]] = string(raw)
			mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := NewClient(Options{Token: "ghp_test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}

	url, err := client.PublishRepository(context.Background(), pipeline.PublishRequest{
		ProjectID: "3f2a9c4e-0000-0000-0000-000000000000",
		Prompt:    "todo app",
		Files: domain.FileMap{
			"index.js":           "console.log(1)",
			"src/components/a.js": "export {}",
		},
	})
	if err != nil {
		t.Fatalf("PublishRepository error: %v", err)
	}
	if !strings.HasPrefix(url, "https://github.example.test/mockuser/todo-app-") {
		t.Fatalf("url = %q", url)
	}
	if created.Private {
		t.Fatal("repository should be public by default")
	}
	if len(pushed) != 2 {
		t.Fatalf("pushed %d files, want 2", len(pushed))
	}
	if pushed["index.js"] != "console.log(1)" {
		t.Fatalf("index.js content = %q", pushed["index.js"])
	}
	if pushed["src/components/a.js"] != "export {}" {
		t.Fatalf("nested path content = %q", pushed["src/components/a.js"])
	}
}

func TestPublishRepositoryNameConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"name already exists on this account"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{Token: "ghp_test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	_, err = client.PublishRepository(context.Background(), pipeline.PublishRequest{
		ProjectID: "p1", Prompt: "todo app", Files: domain.FileMap{"a": "b"},
	})
	if err == nil || !strings.Contains(err.Error(), "name conflict") {
		t.Fatalf("err = %v, want name conflict", err)
	}
}

func TestPublishRepositoryAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(Options{Token: "ghp_bad", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	_, err = client.PublishRepository(context.Background(), pipeline.PublishRequest{
		ProjectID: "p1", Prompt: "todo app", Files: domain.FileMap{"a": "b"},
	})
	if err == nil || !strings.Contains(err.Error(), "authentication rejected") {
		t.Fatalf("err = %v, want auth rejection", err)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestLocalPublisherWritesFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	pub := NewLocalPublisher(store)
	url, err := pub.PublishRepository(context.Background(), pipeline.PublishRequest{
		ProjectID: "abcd1234",
		Prompt:    "todo app",
		Files:     domain.FileMap{"index.js": "console.log(1)"},
	})
	if err != nil {
		t.Fatalf("PublishRepository error: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("url = %q", url)
	}

	written := filepath.Join(dir, "repositories", RepositoryName("abcd1234", "todo app"), "index.js")
	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("read written file: %v", err)
	}
	if string(data) != "console.log(1)" {
		t.Fatalf("written content = %q", data)
	}
}

func TestRepositoryName(t *testing.T) {
	tests := []struct {
		name      string
		projectID string
		prompt    string
		want      string
	}{
		{name: "slug plus suffix", projectID: "3f2a9c4e-1111", prompt: "Todo App", want: "todo-app-3f2a9c4e"},
		{name: "empty prompt", projectID: "abcd1234", prompt: "", want: "generated-app-abcd1234"},
		{name: "punctuation stripped", projectID: "abcd1234", prompt: "a CRM, with auth!", want: "a-crm-with-auth-abcd1234"},
		{name: "no project id", projectID: "", prompt: "todo app", want: "todo-app"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RepositoryName(tc.projectID, tc.prompt); got != tc.want {
				t.Fatalf("RepositoryName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("todo app", "en"); got != "Todo App" {
		t.Fatalf("DisplayName = %q", got)
	}
	if got := DisplayName("", ""); got != "Generated application" {
		t.Fatalf("DisplayName empty = %q", got)
	}
}
