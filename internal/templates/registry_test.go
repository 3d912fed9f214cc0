package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"appforge/internal/domain"
)

func TestGetBuiltins(t *testing.T) {
	r := NewRegistry()

	tpl, err := r.Get("node-basic")
	if err != nil {
		t.Fatalf("Get(node-basic) error: %v", err)
	}
	if _, ok := tpl.Files["package.json"]; !ok {
		t.Fatal("node-basic should seed package.json")
	}

	// Empty id resolves to the default template.
	def, err := r.Get("")
	if err != nil {
		t.Fatalf("Get(\"\") error: %v", err)
	}
	if def.ID != DefaultID {
		t.Fatalf("default id = %q, want %q", def.ID, DefaultID)
	}
}

func TestGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("no-such-template")
	if !errors.Is(err, domain.ErrUnknownTemplate) {
		t.Fatalf("err = %v, want ErrUnknownTemplate", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	tpl, err := r.Get("node-basic")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	tpl.Files["package.json"] = "mutated"

	again, err := r.Get("node-basic")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if again.Files["package.json"] == "mutated" {
		t.Fatal("registry state mutated through returned template")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	manifest := `id: crm-starter
name: CRM starter
files:
  package.json: "{}"
  src/index.js: "export {}"
`
	if err := os.WriteFile(filepath.Join(dir, "crm.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	// Non-manifest files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("write readme: %v", err)
	}

	r := NewRegistry()
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}

	tpl, err := r.Get("crm-starter")
	if err != nil {
		t.Fatalf("Get(crm-starter) error: %v", err)
	}
	if tpl.Name != "CRM starter" {
		t.Fatalf("Name = %q", tpl.Name)
	}
	if tpl.Files["src/index.js"] != "export {}" {
		t.Fatalf("Files = %v", tpl.Files)
	}
}

func TestLoadDirMissingDirIsNoop(t *testing.T) {
	r := NewRegistry()
	if err := r.LoadDir(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatalf("LoadDir on missing dir: %v", err)
	}
}

func TestLoadDirOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	manifest := `id: node-basic
name: Custom node
files:
  package.json: "custom"
`
	if err := os.WriteFile(filepath.Join(dir, "node.yml"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	r := NewRegistry()
	if err := r.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}
	tpl, err := r.Get("node-basic")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if tpl.Files["package.json"] != "custom" {
		t.Fatal("manifest should override builtin")
	}
}

func TestLoadDirRejectsMissingID(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: incomplete\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	r := NewRegistry()
	if err := r.LoadDir(dir); err == nil {
		t.Fatal("expected error for manifest without id")
	}
}

func TestListSorted(t *testing.T) {
	r := NewRegistry()
	list := r.List()
	if len(list) < 2 {
		t.Fatalf("List returned %d templates", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("list not sorted: %q before %q", list[i-1].ID, list[i].ID)
		}
	}
	for _, tpl := range list {
		if len(tpl.Files) != 0 {
			t.Fatalf("List should omit file contents, got %d files for %s", len(tpl.Files), tpl.ID)
		}
	}
}
