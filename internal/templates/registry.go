package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"appforge/internal/domain"
)

// Registry resolves template ids to their seed file maps. Built-in templates
// are always available; additional templates can be loaded from a directory
// of YAML manifests at startup and override built-ins with the same id.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]domain.Template
}

// manifest is the on-disk YAML shape of a template.
type manifest struct {
	ID    string            `yaml:"id"`
	Name  string            `yaml:"name"`
	Files map[string]string `yaml:"files"`
}

// NewRegistry returns a registry preloaded with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]domain.Template)}
	for _, tpl := range builtins() {
		r.templates[tpl.ID] = tpl
	}
	return r
}

// LoadDir reads every .yaml and .yml manifest in dir into the registry.
// A missing directory is not an error so deployments without custom
// templates need no extra setup.
func (r *Registry) LoadDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("templates: read dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("templates: read %s: %w", entry.Name(), err)
		}
		var m manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("templates: parse %s: %w", entry.Name(), err)
		}
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("templates: %s: manifest missing id", entry.Name())
		}
		tpl := domain.Template{
			ID:    strings.TrimSpace(m.ID),
			Name:  strings.TrimSpace(m.Name),
			Files: domain.FileMap(m.Files).Clone(),
		}
		if tpl.Name == "" {
			tpl.Name = tpl.ID
		}
		r.mu.Lock()
		r.templates[tpl.ID] = tpl
		r.mu.Unlock()
	}
	return nil
}

// Get returns the template for id, or a copy of it rather: callers may merge
// the file map without mutating registry state. An empty id resolves to the
// default template.
func (r *Registry) Get(id string) (domain.Template, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = DefaultID
	}
	r.mu.RLock()
	tpl, ok := r.templates[id]
	r.mu.RUnlock()
	if !ok {
		return domain.Template{}, fmt.Errorf("template %q: %w", id, domain.ErrUnknownTemplate)
	}
	return domain.Template{ID: tpl.ID, Name: tpl.Name, Files: tpl.Files.Clone()}, nil
}

// List returns all registered templates sorted by id, with empty file maps:
// listing is a catalog operation and callers do not need the seed contents.
func (r *Registry) List() []domain.Template {
	r.mu.RLock()
	out := make([]domain.Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		out = append(out, domain.Template{ID: tpl.ID, Name: tpl.Name})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultID is the template used when a generation request names none.
const DefaultID = "node-basic"

func builtins() []domain.Template {
	return []domain.Template{
		{
			ID:   "node-basic",
			Name: "Node.js starter",
			Files: domain.FileMap{
				".gitignore": "node_modules/\ndist/\n.env\n",
				"package.json": `{
  "name": "generated-app",
  "version": "0.1.0",
  "private": true,
  "scripts": {
    "start": "node index.js"
  }
}
`,
			},
		},
		{
			ID:   "static-site",
			Name: "Static site",
			Files: domain.FileMap{
				".gitignore": "dist/\n",
				"index.html": `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Generated app</title>
  <link rel="stylesheet" href="styles.css">
</head>
<body>
  <main id="app"></main>
  <script src="app.js"></script>
</body>
</html>
`,
				"styles.css": "body { font-family: sans-serif; margin: 2rem; }\n",
			},
		},
	}
}
