// File: internal/firebase/service.go
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
)

const identityToolkitEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:update"

// Service provides access to Firebase: the Auth client (identity provider
// of record for the emailVerified flag) and the Firestore client used as
// the authoritative profile store tier.
type Service struct {
	authClient *auth.Client
	fsClient   *firestore.Client
	creds      *google.Credentials
	webAPIKey  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewService initializes the Firebase Admin SDK and both clients.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var app *firebase.App
	var err error
	if cfg.FirebaseProjectID != "" {
		conf := &firebase.Config{ProjectID: cfg.FirebaseProjectID}
		app, err = firebase.NewApp(context.Background(), conf, opt)
	} else {
		app, err = firebase.NewApp(context.Background(), nil, opt)
	}
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	fsClient, err := app.Firestore(context.Background())
	if err != nil {
		logger.Error("Failed to get Firestore client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}

	keyData, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading service account key: %w", err)
	}
	creds, err := google.CredentialsFromJSON(context.Background(), keyData,
		"https://www.googleapis.com/auth/datastore",
		"https://www.googleapis.com/auth/identitytoolkit",
	)
	if err != nil {
		return nil, fmt.Errorf("error parsing service account credentials: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return &Service{
		authClient: authClient,
		fsClient:   fsClient,
		creds:      creds,
		webAPIKey:  cfg.FirebaseWebAPIKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}, nil
}

// Firestore exposes the Firestore client for the store tiers.
func (s *Service) Firestore() *firestore.Client {
	return s.fsClient
}

// VerifyIDToken verifies a Firebase ID token and returns the token claims.
func (s *Service) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken == "" {
		return nil, fmt.Errorf("ID token must not be empty")
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	return token, nil
}

// ConfirmActionCode submits a provider-native oobCode to the Identity
// Toolkit REST API. On success the provider flips emailVerified server-side
// and reports back the identity the code was minted for.
func (s *Service) ConfirmActionCode(ctx context.Context, oobCode string) (uid, email string, err error) {
	if s.webAPIKey == "" {
		return "", "", fmt.Errorf("FIREBASE_WEB_API_KEY is not configured; cannot confirm action codes")
	}

	body, err := json.Marshal(map[string]string{"oobCode": oobCode})
	if err != nil {
		return "", "", err
	}

	url := fmt.Sprintf("%s?key=%s", identityToolkitEndpoint, s.webAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("identity toolkit request failed: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		LocalID string `json:"localId"`
		Email   string `json:"email"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", "", fmt.Errorf("failed to decode identity toolkit response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := payload.Error.Message
		s.logger.Warn("Action code confirmation rejected by provider",
			zap.Int("status", resp.StatusCode), zap.String("message", msg))
		switch {
		case strings.HasPrefix(msg, "EXPIRED_OOB_CODE"):
			return "", "", common.ErrExpiredToken
		case strings.HasPrefix(msg, "INVALID_OOB_CODE"):
			return "", "", common.ErrMalformedToken.WithDetails("The action code is invalid or was already used.")
		default:
			return "", "", fmt.Errorf("identity toolkit error: %s", msg)
		}
	}

	s.logger.Info("Action code confirmed; provider flipped emailVerified",
		zap.String("uid", payload.LocalID), zap.String("email", payload.Email))
	return payload.LocalID, payload.Email, nil
}

// MarkEmailVerified flips emailVerified on the identity record. Used by the
// custom fallback flow, where the token proves the verification intent but
// the provider never saw an action code.
func (s *Service) MarkEmailVerified(ctx context.Context, uid string) error {
	update := (&auth.UserToUpdate{}).EmailVerified(true)
	if _, err := s.authClient.UpdateUser(ctx, uid, update); err != nil {
		if auth.IsUserNotFound(err) {
			return common.ErrIdentityNotFound
		}
		s.logger.Error("Failed to mark email verified", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	s.logger.Info("Email marked verified on identity record", zap.String("uid", uid))
	return nil
}

// GetIdentity fetches the identity-provider record for a uid.
func (s *Service) GetIdentity(ctx context.Context, uid string) (*auth.UserRecord, error) {
	rec, err := s.authClient.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, common.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("failed to fetch identity record: %w", err)
	}
	return rec, nil
}

// EmailVerificationLink asks the provider to mint a native verification
// link for the email.
func (s *Service) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	link, err := s.authClient.EmailVerificationLink(ctx, email)
	if err != nil {
		s.logger.Error("Failed to generate email verification link", zap.Error(err), zap.String("email", email))
		return "", fmt.Errorf("failed to generate verification link: %w", err)
	}
	return link, nil
}

// RefreshCredentials forces a fresh access token from the service account
// token source. Invoked by the network monitor on an Offline -> Online
// transition, where cached tokens may have expired during the outage.
func (s *Service) RefreshCredentials(ctx context.Context) error {
	tok, err := s.creds.TokenSource.Token()
	if err != nil {
		s.logger.Warn("Credential refresh failed", zap.Error(err))
		return fmt.Errorf("credential refresh failed: %w", err)
	}
	s.logger.Debug("Credentials refreshed", zap.Time("expiry", tok.Expiry))
	return nil
}

// Close releases the Firestore client.
func (s *Service) Close() error {
	if s.fsClient != nil {
		return s.fsClient.Close()
	}
	return nil
}
