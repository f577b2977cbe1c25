// File: internal/profile/local_store.go
package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
)

// PrivilegedEntry is the secondary index of the local cache: a per-email
// row for elevated profiles, giving the privileged fast path a keyed read
// without touching the main table.
type PrivilegedEntry struct {
	Email     string    `gorm:"primaryKey;type:varchar(255)"`
	UID       string    `gorm:"type:varchar(128);index"`
	Role      string    `gorm:"type:varchar(50);not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the privileged index.
func (PrivilegedEntry) TableName() string {
	return "privileged_profile_cache"
}

// LocalStore is the durable local cache tier: survives restarts, used both
// as the last-resort write target and as a read-side accelerator when the
// remote tier is unreachable.
type LocalStore struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore migrates the cache tables and returns the tier.
func NewLocalStore(db *gorm.DB, logger *zap.Logger) (*LocalStore, error) {
	if err := db.AutoMigrate(&Profile{}, &PrivilegedEntry{}, &PendingRegistration{}); err != nil {
		return nil, err
	}
	return &LocalStore{
		db:     db,
		logger: logger.Named("LocalStore"),
		now:    time.Now,
	}, nil
}

func (s *LocalStore) Name() string { return "local" }

// Upsert performs the read-merge-write inside a transaction. Last-write-
// wins is the explicit consistency policy for this tier; the merge contract
// only guarantees one row per uid with the original CreatedAt.
func (s *LocalStore) Upsert(ctx context.Context, uid string, fields Fields) (*Profile, error) {
	var result *Profile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Profile
		var existingPtr *Profile
		err := tx.Where("uid = ?", uid).First(&existing).Error
		if err == nil {
			existingPtr = &existing
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		result = Merge(existingPtr, uid, fields, s.now().UTC())
		if err := tx.Save(result).Error; err != nil {
			return err
		}

		if common.IsElevatedRole(result.Role) && result.Email != "" {
			entry := PrivilegedEntry{
				Email:     strings.ToLower(result.Email),
				UID:       result.UID,
				Role:      result.Role,
				UpdatedAt: result.UpdatedAt,
			}
			if err := tx.Save(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewStoreError(s.Name(), KindUnavailable, err)
	}

	return result, nil
}

// Get reads the cached profile for uid.
func (s *LocalStore) Get(ctx context.Context, uid string) (*Profile, error) {
	var p Profile
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, NewStoreError(s.Name(), KindUnavailable, err)
	}
	return &p, nil
}

// GetPrivilegedByEmail serves the privileged fast path from the secondary
// index. Returns ErrProfileNotFound when the email is not indexed.
func (s *LocalStore) GetPrivilegedByEmail(ctx context.Context, email string) (*PrivilegedEntry, error) {
	var entry PrivilegedEntry
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, NewStoreError(s.Name(), KindUnavailable, err)
	}
	return &entry, nil
}

// SavePendingRegistration captures sign-up data before verification.
// Repeated capture for the same uid overwrites the earlier payload.
func (s *LocalStore) SavePendingRegistration(ctx context.Context, reg *PendingRegistration) error {
	if reg.CapturedAt.IsZero() {
		reg.CapturedAt = s.now().UTC()
	}
	if err := s.db.WithContext(ctx).Save(reg).Error; err != nil {
		return NewStoreError(s.Name(), KindUnavailable, err)
	}
	return nil
}

// GetPendingRegistration reads the captured payload for uid. The record is
// deliberately not deleted after consumption; the idempotent merge at every
// tier makes re-consumption harmless.
func (s *LocalStore) GetPendingRegistration(ctx context.Context, uid string) (*PendingRegistration, error) {
	var reg PendingRegistration
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, NewStoreError(s.Name(), KindUnavailable, err)
	}
	return &reg, nil
}
