package github

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"appforge/internal/pipeline"
	"appforge/internal/storage"
)

// LocalPublisher writes the generated files under the local storage root
// instead of pushing to a hosted repository. It keeps the pipeline fully
// operational when no GitHub token is configured; the returned URL points at
// the written directory.
type LocalPublisher struct {
	store *storage.FileStore
}

func NewLocalPublisher(store *storage.FileStore) *LocalPublisher {
	return &LocalPublisher{store: store}
}

// PublishRepository implements pipeline.RepoPublisher.
func (p *LocalPublisher) PublishRepository(ctx context.Context, req pipeline.PublishRequest) (string, error) {
	if p.store == nil {
		return "", fmt.Errorf("local publisher: no file store configured")
	}
	name := RepositoryName(req.ProjectID, req.Prompt)
	root, err := p.store.WriteTree(ctx, path.Join("repositories", name), req.Files)
	if err != nil {
		return "", fmt.Errorf("local publisher: %w", err)
	}
	return "file://" + filepath.ToSlash(root), nil
}
