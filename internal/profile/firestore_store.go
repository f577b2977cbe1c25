// File: internal/profile/firestore_store.go
package profile

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProfilesCollection is the authoritative remote collection.
const ProfilesCollection = "profiles"

// FirestoreStore is the remote primary tier: authoritative, network-bound,
// subject to permission and connectivity errors.
type FirestoreStore struct {
	client *firestore.Client
	logger *zap.Logger
	now    func() time.Time
}

var _ Store = (*FirestoreStore)(nil)

// NewFirestoreStore creates the remote tier over an existing client.
func NewFirestoreStore(client *firestore.Client, logger *zap.Logger) *FirestoreStore {
	return &FirestoreStore{
		client: client,
		logger: logger.Named("FirestoreStore"),
		now:    time.Now,
	}
}

func (s *FirestoreStore) Name() string { return "remote" }

// Upsert runs a read-merge-write transaction so two writers for the same
// uid converge on one document with the first writer's CreatedAt.
func (s *FirestoreStore) Upsert(ctx context.Context, uid string, fields Fields) (*Profile, error) {
	ref := s.client.Collection(ProfilesCollection).Doc(uid)
	var result *Profile

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var existing *Profile
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil && snap.Exists() {
			var p Profile
			if err := snap.DataTo(&p); err != nil {
				return err
			}
			existing = &p
		}

		result = Merge(existing, uid, fields, s.now().UTC())
		return tx.Set(ref, result)
	})
	if err != nil {
		return nil, s.classify(err)
	}

	return result, nil
}

// Get reads the document for uid.
func (s *FirestoreStore) Get(ctx context.Context, uid string) (*Profile, error) {
	snap, err := s.client.Collection(ProfilesCollection).Doc(uid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrProfileNotFound
		}
		return nil, s.classify(err)
	}

	var p Profile
	if err := snap.DataTo(&p); err != nil {
		return nil, NewStoreError(s.Name(), KindInvalid, err)
	}
	return &p, nil
}

// Probe performs a real read against the remote tier. Used by the network
// monitor instead of trusting passive connectivity signals.
func (s *FirestoreStore) Probe(ctx context.Context) error {
	iter := s.client.Collection(ProfilesCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	_, err := iter.Next()
	if err != nil && err != iterator.Done {
		return s.classify(err)
	}
	return nil
}

func (s *FirestoreStore) classify(err error) *StoreError {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return NewStoreError(s.Name(), KindUnavailable, err)
	case codes.PermissionDenied, codes.Unauthenticated:
		s.logger.Warn("Firestore denied access; check service account rules", zap.Error(err))
		return NewStoreError(s.Name(), KindPermissionDenied, err)
	case codes.InvalidArgument, codes.FailedPrecondition:
		return NewStoreError(s.Name(), KindInvalid, err)
	default:
		return NewStoreError(s.Name(), KindUnavailable, err)
	}
}
