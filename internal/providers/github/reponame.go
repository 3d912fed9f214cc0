package github

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxRepoNameLen = 60

// RepositoryName derives a stable, hosting-safe repository name from the
// project id and prompt: a slug of the prompt's leading words plus a short
// project suffix so repeated prompts in different projects do not collide.
func RepositoryName(projectID, prompt string) string {
	slug := Slug(prompt, 4)
	if slug == "" {
		slug = "generated-app"
	}
	suffix := shortID(projectID)
	if suffix == "" {
		return slug
	}
	name := slug + "-" + suffix
	if len(name) > maxRepoNameLen {
		name = name[:maxRepoNameLen]
	}
	return strings.Trim(name, "-")
}

// DisplayName renders a human-readable title from the prompt, title-cased
// for the given locale (the request's detected locale, when known).
func DisplayName(prompt, locale string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "Generated application"
	}
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	title := cases.Title(tag).String(prompt)
	if len(title) > 100 {
		title = title[:100]
	}
	return title
}

// Slug lowercases the first maxWords words of s and joins the alphanumeric
// runs with hyphens.
func Slug(s string, maxWords int) string {
	fields := strings.Fields(strings.ToLower(s))
	if maxWords > 0 && len(fields) > maxWords {
		fields = fields[:maxWords]
	}
	var parts []string
	for _, f := range fields {
		var b strings.Builder
		for _, r := range f {
			if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			parts = append(parts, b.String())
		}
	}
	return strings.Join(parts, "-")
}

func shortID(id string) string {
	id = strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToLower(id)
}
