package pipeline

import (
	"context"
	"strings"
	"testing"

	"appforge/internal/domain"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		files      domain.FileMap
		wantPassed bool
		wantErrors int
	}{
		{
			name:       "no structured files",
			files:      domain.FileMap{"index.js": "console.log(1)", "README.md": "# hi"},
			wantPassed: true,
		},
		{
			name:       "valid json",
			files:      domain.FileMap{"package.json": `{"name":"x"}`},
			wantPassed: true,
		},
		{
			name:       "trailing comma",
			files:      domain.FileMap{"package.json": `{"name":"x",}`},
			wantPassed: false,
			wantErrors: 1,
		},
		{
			name: "multiple broken files each get one error",
			files: domain.FileMap{
				"package.json":  `{`,
				"tsconfig.json": `not json`,
				"index.js":      "ok",
			},
			wantPassed: false,
			wantErrors: 2,
		},
		{
			name:       "empty file map",
			files:      domain.FileMap{},
			wantPassed: true,
		},
	}

	stage := Validate()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := stage(context.Background(), State{Files: tc.files})
			if u.Validation == nil {
				t.Fatal("no validation result")
			}
			if u.Validation.Passed != tc.wantPassed {
				t.Fatalf("Passed = %v, want %v (errors %v)", u.Validation.Passed, tc.wantPassed, u.Validation.Errors)
			}
			if len(u.Validation.Errors) != tc.wantErrors {
				t.Fatalf("got %d errors %v, want %d", len(u.Validation.Errors), u.Validation.Errors, tc.wantErrors)
			}
			for _, e := range u.Validation.Errors {
				if !strings.Contains(e, ".json") {
					t.Fatalf("error %q is not file-scoped", e)
				}
			}
			if tc.wantPassed && u.ErrMessage != "" {
				t.Fatalf("passing validation set ErrMessage %q", u.ErrMessage)
			}
			if !tc.wantPassed && u.ErrMessage == "" {
				t.Fatal("failed validation must record an error message")
			}
		})
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	stage := Validate()
	files := domain.FileMap{"a.json": `{`, "b.json": `}`}
	first := stage(context.Background(), State{Files: files})
	second := stage(context.Background(), State{Files: files})
	if len(first.Validation.Errors) != len(second.Validation.Errors) {
		t.Fatal("validation not deterministic")
	}
	for i := range first.Validation.Errors {
		if first.Validation.Errors[i] != second.Validation.Errors[i] {
			t.Fatal("validation error order not deterministic")
		}
	}
}
