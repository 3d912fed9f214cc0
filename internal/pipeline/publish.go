package pipeline

import (
	"context"
	"fmt"

	"appforge/internal/domain"
)

// RepoPublisher is the repository-hosting capability consumed by the publish
// stage: create a repository for the project and push the generated files.
type RepoPublisher interface {
	PublishRepository(ctx context.Context, req PublishRequest) (string, error)
}

// PublishRequest describes the repository to create.
type PublishRequest struct {
	ProjectID string
	Prompt    string
	Locale    string
	Files     domain.FileMap
}

// Publish builds the publish stage. It is only routed to when validation
// passed, but re-checks the gate so a miswired graph cannot push unvalidated
// code. Publish failures are terminal for the run and are not retried.
func Publish(pub RepoPublisher) Stage {
	return func(ctx context.Context, s State) Update {
		if s.Validation == nil || !s.Validation.Passed {
			return Update{
				Logs:       []string{"publish: skipped, validation did not pass"},
				ErrMessage: "publish refused: validation did not pass",
			}
		}

		logs := []string{"publish: creating hosted repository"}
		url, err := pub.PublishRepository(ctx, PublishRequest{
			ProjectID: s.ProjectID,
			Prompt:    s.Prompt,
			Locale:    s.Locale,
			Files:     s.Files,
		})
		if err != nil {
			return Update{
				Logs:       append(logs, fmt.Sprintf("publish: failed: %v", err)),
				ErrMessage: err.Error(),
			}
		}

		return Update{
			RepositoryURL: url,
			Logs:          append(logs, fmt.Sprintf("publish: repository created at %s", url)),
		}
	}
}
