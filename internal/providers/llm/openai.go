package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"appforge/internal/domain"
	"appforge/internal/pipeline"
)

// Options controls how the OpenAI-backed file generator is configured.
type Options struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Fallback     pipeline.FileGenerator
	OnFallback   func(reason string, err error)
	OnWarning    func(reason, detail string)
}

// OpenAIGenerator produces a complete application file map from a prompt by
// calling the chat-completions API with a JSON-object response format.
type OpenAIGenerator struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
	fallback     pipeline.FileGenerator
	onFallback   func(reason string, err error)
}

const openAIDefaultTimeout = 120 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

var openAIModelCanonical = map[string]string{
	"gpt-3.5-turbo": "gpt-3.5-turbo",
	"gpt-4o":        "gpt-4o",
	"gpt-4o-mini":   "gpt-4o-mini",
}

var openAIModelAliases = map[string]string{
	"gpt-3.5":    "gpt-3.5-turbo",
	"gpt3.5":     "gpt-3.5-turbo",
	"gpt4o":      "gpt-4o",
	"gpt-4":      "gpt-4o",
	"gpt4o-mini": "gpt-4o-mini",
	"gpt4omini":  "gpt-4o-mini",
}

const generatorSystemPrompt = `You are an expert full-stack software architect. You receive a user's application prompt together with a set of existing template files, and you produce a complete, production-ready application.

You MUST respond with a single JSON object and nothing else. The object maps file paths (strings) to their complete file contents (strings). Do not include explanations, markdown fences, or any text outside the JSON object.

Example output:
{
  "src/components/Button.tsx": "export const Button = () => <button>Click me</button>;",
  "src/App.tsx": "import { Button } from './components/Button'; export const App = () => <Button />;"
}`

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAIGenerator(opts Options) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" && opts.Fallback == nil {
		return nil, errors.New("openai api key is required when no fallback is configured")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	normalizedModel, normalizationReason := normalizeOpenAIModel(modelInput)
	if normalizationReason != "" && opts.OnWarning != nil {
		detail := fmt.Sprintf("requested=%s resolved=%s", coalesce(modelInput, defaultOpenAIModel), normalizedModel)
		opts.OnWarning("model_"+normalizationReason, detail)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIGenerator{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        normalizedModel,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		fallback:     opts.Fallback,
		onFallback:   opts.OnFallback,
	}, nil
}

// GenerateFiles implements pipeline.FileGenerator.
func (o *OpenAIGenerator) GenerateFiles(ctx context.Context, req pipeline.GenerateRequest) (pipeline.GenerateResult, error) {
	if o.apiKey == "" {
		return o.useFallback(ctx, req, "missing_api_key", nil)
	}
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: 0.7,
		ResponseFormat: &openAIFormat{
			Type: "json_object",
		},
		Messages: []openAIMessage{
			{Role: "system", Content: generatorSystemPrompt},
			{Role: "user", Content: buildGeneratePrompt(req)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return o.useFallback(ctx, req, "encode_request", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return o.useFallback(ctx, req, "build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return o.useFallback(ctx, req, "http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return o.useFallback(ctx, req, fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode))
	}
	var decoded openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return o.useFallback(ctx, req, "decode_response", err)
	}
	if len(decoded.Choices) == 0 {
		return o.useFallback(ctx, req, "empty_choices", errors.New("openai returned no choices"))
	}

	// From here on failures are data errors: the model answered but its
	// output does not decode as a strict path-to-content object. They are
	// surfaced to the pipeline, not hidden behind the fallback.
	files, err := domain.ParseFileMap([]byte(decoded.Choices[0].Message.Content))
	if err != nil {
		return pipeline.GenerateResult{}, err
	}
	return pipeline.GenerateResult{Files: files}, nil
}

// useFallback runs the fallback generator and stamps the degradation into
// the result notes so the job record shows the run produced a scaffold,
// not a model generation.
func (o *OpenAIGenerator) useFallback(ctx context.Context, req pipeline.GenerateRequest, reason string, cause error) (pipeline.GenerateResult, error) {
	if o.fallback == nil {
		if cause == nil {
			cause = errors.New(reason)
		}
		return pipeline.GenerateResult{}, fmt.Errorf("%w: %v", domain.ErrProviderFailure, cause)
	}
	if o.onFallback != nil {
		o.onFallback(reason, cause)
	}
	result, err := o.fallback.GenerateFiles(ctx, req)
	if err != nil {
		return result, err
	}
	result.Notes = append(result.Notes,
		fmt.Sprintf("generate: model provider unavailable (%s), files produced by the fallback scaffold generator", reason))
	return result, nil
}

func buildGeneratePrompt(req pipeline.GenerateRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate the code for the following application: %q.\n", req.Prompt)
	if req.Locale != "" {
		fmt.Fprintf(&sb, "Write user-facing copy in the %q locale.\n", req.Locale)
	}
	if len(req.TemplateFiles) > 0 {
		tpl, _ := json.MarshalIndent(req.TemplateFiles, "", "  ")
		fmt.Fprintf(&sb, "Use the following files as the base and modify or extend them as needed. Template files:\n%s", tpl)
	}
	return sb.String()
}

func normalizeOpenAIModel(input string) (string, string) {
	if input == "" {
		return defaultOpenAIModel, ""
	}
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(input), " ", "-"))
	if canonical, ok := openAIModelCanonical[key]; ok {
		return canonical, ""
	}
	if canonical, ok := openAIModelAliases[key]; ok {
		return canonical, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
