package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"appforge/internal/infra"
	"appforge/internal/sqlinline"
)

const (
	ProviderOpenAI = "openai"
	ProviderGitHub = "github"
)

// Store reads and writes integration credentials from the database. The
// worker consults it when the corresponding environment variable is empty,
// so tokens can be rotated without restarting the process fleet.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) OpenAIAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderOpenAI)
}

func (s *Store) GitHubToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGitHub)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectCredentialToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	switch provider {
	case ProviderOpenAI, ProviderGitHub:
	default:
		return errors.New("unsupported provider " + provider)
	}
	return s.upsert(ctx, provider, token, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertCredentialToken, provider, token, raw)
	return err
}
