package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"appforge/internal/domain"
	"appforge/internal/pipeline"
)

// StaticGenerator produces a deterministic scaffold without calling any
// external API. It keeps the worker fully operational in local and CI
// environments where no OpenAI key is configured, and doubles as the
// fallback generator for transport-level provider failures.
type StaticGenerator struct{}

func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

// GenerateFiles implements pipeline.FileGenerator.
func (s *StaticGenerator) GenerateFiles(ctx context.Context, req pipeline.GenerateRequest) (pipeline.GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.GenerateResult{}, err
	}

	name := packageNameFromPrompt(req.Prompt)
	manifest, _ := json.MarshalIndent(map[string]any{
		"name":    name,
		"version": "0.1.0",
		"private": true,
		"scripts": map[string]string{"start": "node index.js"},
	}, "", "  ")

	files := domain.FileMap{
		"package.json": string(manifest),
		"index.js":     fmt.Sprintf("console.log(%q);\n", "app: "+req.Prompt),
	}
	if _, ok := req.TemplateFiles["README.md"]; !ok {
		files["README.md"] = fmt.Sprintf("# %s\n\nGenerated from prompt: %s\n", name, req.Prompt)
	}
	return pipeline.GenerateResult{Files: files}, nil
}

func packageNameFromPrompt(prompt string) string {
	fields := strings.Fields(strings.ToLower(prompt))
	if len(fields) == 0 {
		return "generated-app"
	}
	if len(fields) > 4 {
		fields = fields[:4]
	}
	var parts []string
	for _, f := range fields {
		cleaned := strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, f)
		if cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	if len(parts) == 0 {
		return "generated-app"
	}
	return strings.Join(parts, "-")
}
