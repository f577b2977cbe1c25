// File: internal/verification/token.go
package verification

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
)

// FallbackToken is the custom verification token used when the provider's
// native action-code delivery is unavailable. It is deliberately unsigned
// base64 JSON: authenticity is delegated to the identity provider, which
// still has to accept the emailVerified flip for the uid.
type FallbackToken struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Expires int64  `json:"expires"` // unix milliseconds
}

// ExpiresAt returns the expiry as a time.Time.
func (t *FallbackToken) ExpiresAt() time.Time {
	return time.UnixMilli(t.Expires)
}

// EncodeFallbackToken mints a token expiring at the given instant.
func EncodeFallbackToken(uid, email string, expiresAt time.Time) string {
	payload, _ := json.Marshal(FallbackToken{
		UID:     uid,
		Email:   email,
		Expires: expiresAt.UnixMilli(),
	})
	return base64.URLEncoding.EncodeToString(payload)
}

// DecodeFallbackToken decodes and validates a raw token. Decode or parse
// failures return ErrMalformedToken; an expiry in the past returns
// ErrExpiredToken. Both reject before any store write happens.
func DecodeFallbackToken(raw string, now time.Time) (*FallbackToken, error) {
	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		// Tokens minted by older clients use standard alphabet.
		decoded, err = base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, common.ErrMalformedToken
		}
	}

	var tok FallbackToken
	if err := json.Unmarshal(decoded, &tok); err != nil {
		return nil, common.ErrMalformedToken
	}
	if tok.UID == "" || tok.Email == "" || tok.Expires == 0 {
		return nil, common.ErrMalformedToken.WithDetails("Token is missing uid, email or expires.")
	}

	if tok.ExpiresAt().Before(now) {
		return nil, common.ErrExpiredToken
	}

	return &tok, nil
}
