package pipeline

import (
	"context"
	"fmt"

	"appforge/internal/domain"
)

// FileGenerator is the opaque text-completion capability consumed by the
// generate stage. Implementations return the decoded path-to-content map;
// unparseable model output surfaces as a wrapped domain.ErrInvalidFileMap.
type FileGenerator interface {
	GenerateFiles(ctx context.Context, req GenerateRequest) (GenerateResult, error)
}

// GenerateRequest carries everything the model needs for one generation.
type GenerateRequest struct {
	Prompt        string
	TemplateFiles domain.FileMap
	Locale        string
}

// GenerateResult is a successful generation. Notes are human-readable
// remarks the generator wants on the job record, such as a provider outage
// that forced the scaffold fallback; the stage appends them to the logs so
// users can tell a degraded run from a real one.
type GenerateResult struct {
	Files domain.FileMap
	Notes []string
}

// Generate builds the generate stage: it asks the model for a complete file
// map and unions it over the template files, so the result is a superset of
// the template unless the model explicitly overwrites a path. Failures here
// are data errors recorded into the state, never a worker crash.
func Generate(gen FileGenerator) Stage {
	return func(ctx context.Context, s State) Update {
		logs := []string{"generate: producing application files from prompt and template"}

		result, err := gen.GenerateFiles(ctx, GenerateRequest{
			Prompt:        s.Prompt,
			TemplateFiles: s.Template.Files,
			Locale:        s.Locale,
		})
		if err != nil {
			return Update{
				Logs:       append(logs, fmt.Sprintf("generate: failed: %v", err)),
				ErrMessage: err.Error(),
			}
		}
		logs = append(logs, result.Notes...)

		merged := s.Template.Files.Merge(result.Files)
		return Update{
			Files: merged,
			Logs:  append(logs, fmt.Sprintf("generate: produced %d files", len(merged))),
		}
	}
}
