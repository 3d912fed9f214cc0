package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"appforge/internal/domain"
	"appforge/internal/pipeline"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func chatResponse(content string) *http.Response {
	body := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	raw, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(raw)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func generatorWithTransport(t *testing.T, rt roundTripFunc, fallback pipeline.FileGenerator) *OpenAIGenerator {
	t.Helper()
	gen, err := NewOpenAIGenerator(Options{
		APIKey:     "sk-test",
		HTTPClient: &http.Client{Transport: rt},
		Fallback:   fallback,
	})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}
	return gen
}

func TestGenerateFilesParsesModelOutput(t *testing.T) {
	gen := generatorWithTransport(t, func(r *http.Request) (*http.Response, error) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Fatalf("Authorization = %q", got)
		}
		return chatResponse(`{"index.js": "console.log(1)", "package.json": "{\"name\":\"x\"}"}`), nil
	}, nil)

	result, err := gen.GenerateFiles(context.Background(), pipeline.GenerateRequest{Prompt: "todo app"})
	if err != nil {
		t.Fatalf("GenerateFiles error: %v", err)
	}
	if len(result.Files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(result.Files))
	}
	if result.Files["index.js"] != "console.log(1)" {
		t.Fatalf("index.js = %q", result.Files["index.js"])
	}
	if len(result.Notes) != 0 {
		t.Fatalf("real generation carries notes: %v", result.Notes)
	}
}

func TestGenerateFilesRejectsNonStringValues(t *testing.T) {
	gen := generatorWithTransport(t, func(r *http.Request) (*http.Response, error) {
		return chatResponse(`{"index.js": 42}`), nil
	}, NewStaticGenerator())

	_, err := gen.GenerateFiles(context.Background(), pipeline.GenerateRequest{Prompt: "todo app"})
	if err == nil {
		t.Fatal("expected data error for non-string file content")
	}
	if !errors.Is(err, domain.ErrInvalidFileMap) {
		t.Fatalf("err = %v, want ErrInvalidFileMap", err)
	}
}

func TestGenerateFilesRejectsNonObjectOutput(t *testing.T) {
	gen := generatorWithTransport(t, func(r *http.Request) (*http.Response, error) {
		return chatResponse(`definitely not json`), nil
	}, nil)

	_, err := gen.GenerateFiles(context.Background(), pipeline.GenerateRequest{Prompt: "todo app"})
	if !errors.Is(err, domain.ErrInvalidFileMap) {
		t.Fatalf("err = %v, want ErrInvalidFileMap", err)
	}
}

func TestGenerateFilesFallsBackOnTransportError(t *testing.T) {
	var reason string
	gen, err := NewOpenAIGenerator(Options{
		APIKey: "sk-test",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})},
		Fallback:   NewStaticGenerator(),
		OnFallback: func(r string, err error) { reason = r },
	})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}

	result, err := gen.GenerateFiles(context.Background(), pipeline.GenerateRequest{Prompt: "todo app"})
	if err != nil {
		t.Fatalf("GenerateFiles error: %v", err)
	}
	if reason != "http_request" {
		t.Fatalf("fallback reason = %q", reason)
	}
	if len(result.Files) == 0 {
		t.Fatal("fallback produced no files")
	}
	// The degradation must be visible on the job record, not only in the
	// process logs.
	if len(result.Notes) != 1 || !strings.Contains(result.Notes[0], "fallback") {
		t.Fatalf("notes = %v, want a fallback note", result.Notes)
	}
}

func TestGenerateFilesNoKeyUsesFallback(t *testing.T) {
	gen, err := NewOpenAIGenerator(Options{Fallback: NewStaticGenerator()})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator error: %v", err)
	}
	result, err := gen.GenerateFiles(context.Background(), pipeline.GenerateRequest{
		Prompt:        "todo app",
		TemplateFiles: domain.FileMap{"README.md": "tpl"},
	})
	if err != nil {
		t.Fatalf("GenerateFiles error: %v", err)
	}
	if !json.Valid([]byte(result.Files["package.json"])) {
		t.Fatal("static generator produced invalid package.json")
	}
	if len(result.Notes) != 1 || !strings.Contains(result.Notes[0], "fallback") {
		t.Fatalf("notes = %v, want a fallback note", result.Notes)
	}
}

func TestNewOpenAIGeneratorRequiresKeyOrFallback(t *testing.T) {
	if _, err := NewOpenAIGenerator(Options{}); err == nil {
		t.Fatal("expected error without key and fallback")
	}
}

func TestNormalizeOpenAIModel(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		input  string
		model  string
		reason string
	}{
		{name: "exact_default", input: "gpt-4o-mini", model: "gpt-4o-mini", reason: ""},
		{name: "exact_large", input: "gpt-4o", model: "gpt-4o", reason: ""},
		{name: "alias_short", input: "gpt-3.5", model: "gpt-3.5-turbo", reason: "alias"},
		{name: "alias_spaces", input: "GPT 4", model: "gpt-4o", reason: "alias"},
		{name: "unsupported", input: "gpt-9", model: "gpt-4o-mini", reason: "defaulted"},
		{name: "empty", input: "", model: "gpt-4o-mini", reason: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotModel, gotReason := normalizeOpenAIModel(tc.input)
			if gotModel != tc.model {
				t.Fatalf("model = %q, want %q", gotModel, tc.model)
			}
			if gotReason != tc.reason {
				t.Fatalf("reason = %q, want %q", gotReason, tc.reason)
			}
		})
	}
}
