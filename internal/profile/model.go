// File: internal/profile/model.go
package profile

import (
	"strings"
	"time"
)

// Profile is the canonical application-level record for an identity. The
// remote tier owns it; local and session tiers hold non-authoritative
// replicas that defer to the remote tier whenever it is reachable.
type Profile struct {
	UID       string    `gorm:"primaryKey;type:varchar(128)" json:"uid" firestore:"uid"`
	FirstName string    `gorm:"type:varchar(100)" json:"first_name" firestore:"firstName"`
	LastName  string    `gorm:"type:varchar(100)" json:"last_name" firestore:"lastName"`
	Email     string    `gorm:"type:varchar(255);index" json:"email" firestore:"email"`
	Mobile    string    `gorm:"type:varchar(32)" json:"mobile,omitempty" firestore:"mobile,omitempty"`
	Username  string    `gorm:"type:varchar(100)" json:"username" firestore:"username"`
	Role      string    `gorm:"type:varchar(50);not null;default:'user'" json:"role" firestore:"role"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at" firestore:"updatedAt"`
}

// TableName specifies the table name for the local cache tier.
func (Profile) TableName() string {
	return "profile_cache"
}

// Fields is the writable field set for an upsert. Empty strings are "not
// provided" and never clobber an existing value during a merge.
type Fields struct {
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	Username  string
	Role      string
}

// Merge applies the idempotent-merge contract onto an existing profile:
// CreatedAt is preserved, non-empty incoming fields win, UpdatedAt moves.
func Merge(existing *Profile, uid string, f Fields, now time.Time) *Profile {
	merged := &Profile{UID: uid, CreatedAt: now, UpdatedAt: now, Role: f.Role}
	if existing != nil {
		*merged = *existing
		merged.UpdatedAt = now
	}
	if f.FirstName != "" {
		merged.FirstName = f.FirstName
	}
	if f.LastName != "" {
		merged.LastName = f.LastName
	}
	if f.Email != "" {
		merged.Email = strings.ToLower(strings.TrimSpace(f.Email))
	}
	if f.Mobile != "" {
		merged.Mobile = f.Mobile
	}
	if f.Username != "" {
		merged.Username = f.Username
	}
	if f.Role != "" {
		merged.Role = f.Role
	}
	if merged.Role == "" {
		merged.Role = "user"
	}
	return merged
}

// DeriveFirstName extracts a display-worthy first name from an email
// address, for the last-resort write where no registration data survived.
func DeriveFirstName(email string) string {
	local := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		local = email[:i]
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	return strings.TrimSpace(local)
}

// PendingRegistration is registration-time data captured before the email
// is verified, consumed (read, never deleted) during reconciliation.
type PendingRegistration struct {
	UID        string    `gorm:"primaryKey;type:varchar(128)" json:"uid"`
	FirstName  string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName   string    `gorm:"type:varchar(100)" json:"last_name"`
	Mobile     string    `gorm:"type:varchar(32)" json:"mobile"`
	Username   string    `gorm:"type:varchar(100)" json:"username"`
	CapturedAt time.Time `gorm:"column:captured_at;not null" json:"captured_at"`
}

// TableName specifies the table name for pending registrations.
func (PendingRegistration) TableName() string {
	return "pending_registrations"
}

// ProfileResponse defines the structure for profile data in API responses.
type ProfileResponse struct {
	UID       string    `json:"uid"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Mobile    string    `json:"mobile,omitempty"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToProfileResponse converts a Profile to its response DTO.
func ToProfileResponse(p *Profile) ProfileResponse {
	return ProfileResponse{
		UID:       p.UID,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Mobile:    p.Mobile,
		Username:  p.Username,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
