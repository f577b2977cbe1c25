// File: internal/profile/api_store.go
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
)

// APIStore is the server-mediated tier: an upstream profile API that itself
// talks to the remote store. First tier in the cascade.
type APIStore struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ Store = (*APIStore)(nil)

// NewAPIStore creates the server-mediated tier. Returns nil when no base
// URL is configured; the orchestrator skips absent tiers.
func NewAPIStore(cfg *config.Config, logger *zap.Logger) *APIStore {
	if strings.TrimSpace(cfg.ProfileAPIBaseURL) == "" {
		return nil
	}
	return &APIStore{
		baseURL:    strings.TrimRight(cfg.ProfileAPIBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.ProfileAPITimeout},
		logger:     logger.Named("APIStore"),
	}
}

func (s *APIStore) Name() string { return "api" }

type apiUpsertRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Upsert posts the fields to POST /identities/{uid}/profile. Any non-2xx
// response or transport error becomes a classified StoreError so the
// cascade can decide to fall through.
func (s *APIStore) Upsert(ctx context.Context, uid string, fields Fields) (*Profile, error) {
	body, err := json.Marshal(apiUpsertRequest{
		Email:     fields.Email,
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		Mobile:    fields.Mobile,
		Username:  fields.Username,
		Role:      fields.Role,
	})
	if err != nil {
		return nil, NewStoreError(s.Name(), KindInvalid, err)
	}

	url := fmt.Sprintf("%s/identities/%s/profile", s.baseURL, uid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewStoreError(s.Name(), KindInvalid, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewStoreError(s.Name(), KindUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, s.classifyStatus(resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, NewStoreError(s.Name(), KindInvalid, fmt.Errorf("decoding upsert response: %w", err))
	}
	if p.UID == "" {
		p.UID = uid
	}
	return &p, nil
}

// Get fetches GET /identities/{uid}/profile.
func (s *APIStore) Get(ctx context.Context, uid string) (*Profile, error) {
	url := fmt.Sprintf("%s/identities/%s/profile", s.baseURL, uid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewStoreError(s.Name(), KindInvalid, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, NewStoreError(s.Name(), KindUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProfileNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, s.classifyStatus(resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, NewStoreError(s.Name(), KindInvalid, fmt.Errorf("decoding profile response: %w", err))
	}
	return &p, nil
}

func (s *APIStore) classifyStatus(status int) *StoreError {
	err := fmt.Errorf("profile API returned status %d", status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		s.logger.Warn("Profile API denied access; check upstream credentials", zap.Int("status", status))
		return NewStoreError(s.Name(), KindPermissionDenied, err)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewStoreError(s.Name(), KindInvalid, err)
	default:
		return NewStoreError(s.Name(), KindUnavailable, err)
	}
}
