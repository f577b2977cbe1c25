package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	existing := &Profile{
		UID:       "uid-1",
		FirstName: "Pat",
		Email:     "pat@example.com",
		Role:      "doctor",
		CreatedAt: t0,
		UpdatedAt: t0,
	}

	tests := []struct {
		name     string
		existing *Profile
		fields   Fields
		want     func(t *testing.T, got *Profile)
	}{
		{
			name:     "fresh record gets default role",
			existing: nil,
			fields:   Fields{Email: "new@example.com"},
			want: func(t *testing.T, got *Profile) {
				assert.Equal(t, "user", got.Role)
				assert.Equal(t, t1, got.CreatedAt)
			},
		},
		{
			name:     "existing CreatedAt survives",
			existing: existing,
			fields:   Fields{LastName: "Smith"},
			want: func(t *testing.T, got *Profile) {
				assert.Equal(t, t0, got.CreatedAt)
				assert.Equal(t, t1, got.UpdatedAt)
				assert.Equal(t, "Smith", got.LastName)
			},
		},
		{
			name:     "empty incoming fields never clobber",
			existing: existing,
			fields:   Fields{},
			want: func(t *testing.T, got *Profile) {
				assert.Equal(t, "Pat", got.FirstName)
				assert.Equal(t, "pat@example.com", got.Email)
				assert.Equal(t, "doctor", got.Role)
			},
		},
		{
			name:     "non-empty incoming fields win",
			existing: existing,
			fields:   Fields{FirstName: "Patricia", Role: "admin"},
			want: func(t *testing.T, got *Profile) {
				assert.Equal(t, "Patricia", got.FirstName)
				assert.Equal(t, "admin", got.Role)
			},
		},
		{
			name:     "email is normalized",
			existing: nil,
			fields:   Fields{Email: "  Mixed.Case@Example.COM "},
			want: func(t *testing.T, got *Profile) {
				assert.Equal(t, "mixed.case@example.com", got.Email)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.existing, "uid-1", tt.fields, t1)
			assert.Equal(t, "uid-1", got.UID)
			tt.want(t, got)
		})
	}
}

func TestMerge_DoesNotMutateExisting(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	existing := &Profile{UID: "uid-1", FirstName: "Pat", CreatedAt: t0, UpdatedAt: t0}

	_ = Merge(existing, "uid-1", Fields{FirstName: "Patricia"}, t0.Add(time.Hour))

	assert.Equal(t, "Pat", existing.FirstName)
	assert.Equal(t, t0, existing.UpdatedAt)
}

func TestDeriveFirstName(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "jane doe"},
		{"jane_doe@example.com", "jane doe"},
		{"jane-doe@example.com", "jane doe"},
		{"jane@example.com", "jane"},
		{"no-at-sign", "no at sign"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, DeriveFirstName(tt.email), tt.email)
	}
}
