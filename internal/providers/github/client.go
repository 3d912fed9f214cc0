package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"appforge/internal/pipeline"
)

// Options controls how the GitHub publisher is configured.
type Options struct {
	Token      string
	Owner      string
	BaseURL    string
	HTTPClient *http.Client
}

// Client publishes a generated file map as a fresh repository through the
// GitHub REST API: one create-repository call, then one contents call per
// file. Auth and naming-conflict failures are terminal for the current run;
// the pipeline records them instead of retrying.
type Client struct {
	token   string
	owner   string
	baseURL string
	client  *http.Client
}

const githubDefaultTimeout = 60 * time.Second

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("github token is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: githubDefaultTimeout}
	}
	return &Client{
		token:   strings.TrimSpace(opts.Token),
		owner:   strings.TrimSpace(opts.Owner),
		baseURL: baseURL,
		client:  client,
	}, nil
}

type createRepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

type createRepoResponse struct {
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
	Owner   struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
}

// PublishRepository implements pipeline.RepoPublisher.
func (c *Client) PublishRepository(ctx context.Context, req pipeline.PublishRequest) (string, error) {
	name := RepositoryName(req.ProjectID, req.Prompt)

	created, err := c.createRepository(ctx, name, req.Prompt)
	if err != nil {
		return "", err
	}

	owner := created.Owner.Login
	if owner == "" {
		owner = c.owner
	}
	for _, path := range req.Files.Paths() {
		if err := c.putFile(ctx, owner, created.Name, path, req.Files[path]); err != nil {
			return "", fmt.Errorf("push %s: %w", path, err)
		}
	}

	return created.HTMLURL, nil
}

func (c *Client) createRepository(ctx context.Context, name, prompt string) (*createRepoResponse, error) {
	payload := createRepoRequest{
		Name:        name,
		Description: DisplayName(prompt, ""),
		Private:     false,
		AutoInit:    false,
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/user/repos"
	if c.owner != "" {
		// Publishing into an organization account instead of the token user.
		endpoint = fmt.Sprintf("%s/orgs/%s/repos", c.baseURL, url.PathEscape(c.owner))
	}
	resp, err := c.do(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("create repository %q: authentication rejected (status %d)", name, resp.StatusCode)
	case http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("create repository %q: name conflict or invalid name", name)
	default:
		return nil, fmt.Errorf("create repository %q: unexpected status %d", name, resp.StatusCode)
	}

	var created createRepoResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode create response: %w", err)
	}
	if created.HTMLURL == "" {
		return nil, errors.New("create repository: response missing html_url")
	}
	return &created, nil
}

func (c *Client) putFile(ctx context.Context, owner, repo, path, content string) error {
	payload := putContentsRequest{
		Message: "Add " + path,
		Content: base64.StdEncoding.EncodeToString([]byte(content)),
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), escapePath(path))
	resp, err := c.do(ctx, http.MethodPut, endpoint, &body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// escapePath escapes each segment while preserving the slashes between them.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
