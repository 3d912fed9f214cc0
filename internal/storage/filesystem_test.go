package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndSanitize(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	key, err := store.Write(context.Background(), "repositories/app/index.js", []byte("x"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if key != "repositories/app/index.js" {
		t.Fatalf("key = %q", key)
	}
	data, err := os.ReadFile(filepath.Join(dir, "repositories", "app", "index.js"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "x" {
		t.Fatalf("content = %q", data)
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	for _, key := range []string{"../escape", "..", ""} {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("Write(%q) should fail", key)
		}
	}
}

func TestWriteTree(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}

	root, err := store.WriteTree(context.Background(), "repositories/todo-app", map[string]string{
		"package.json": `{"name":"todo-app"}`,
		"src/index.js": "console.log(1)",
	})
	if err != nil {
		t.Fatalf("WriteTree error: %v", err)
	}
	if root != filepath.Join(dir, "repositories", "todo-app") {
		t.Fatalf("root = %q", root)
	}
	data, err := os.ReadFile(filepath.Join(root, "src", "index.js"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "console.log(1)" {
		t.Fatalf("content = %q", data)
	}
}

func TestWriteTreeRejectsTraversalEntries(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	_, err = store.WriteTree(context.Background(), "repositories/x", map[string]string{
		"ok.txt":       "fine",
		"../../escape": "nope",
	})
	if err == nil {
		t.Fatal("expected error for traversal entry")
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatal("expected error for empty base path")
	}
}
