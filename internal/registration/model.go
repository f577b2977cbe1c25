// File: internal/registration/model.go
package registration

import "time"

// CreateRegistrationRequest captures sign-up data keyed to an identity the
// provider has already created but not yet verified.
type CreateRegistrationRequest struct {
	UID       string `json:"uid" binding:"required,max=128"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
	Mobile    string `json:"mobile" binding:"omitempty,max=32"`
	Username  string `json:"username" binding:"required,min=3,max=100"`
}

// RegistrationResponse acknowledges a captured registration.
type RegistrationResponse struct {
	UID                    string    `json:"uid"`
	Username               string    `json:"username"`
	CapturedAt             time.Time `json:"captured_at"`
	VerificationDispatched bool      `json:"verification_dispatched"`
}
