package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"covergen/internal/infra"
	"covergen/internal/sqlinline"
)

const (
	ProviderReplicate = "replicate"
)

// Store reads and writes third-party API tokens kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) ReplicateToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderReplicate)
}

// Token returns the stored token for provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetReplicateToken(ctx context.Context, token string, props map[string]any) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("replicate api token is required")
	}
	return s.upsert(ctx, ProviderReplicate, token, props)
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
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

// EnvOrStored prefers the configured token and falls back to the stored one.
type EnvOrStored struct {
	Env   string
	Store *Store
}

func (e EnvOrStored) ReplicateToken(ctx context.Context) (string, error) {
	if tok := strings.TrimSpace(e.Env); tok != "" {
		return tok, nil
	}
	if e.Store == nil {
		return "", nil
	}
	return e.Store.ReplicateToken(ctx)
}
