// File: internal/role/directory.go
package role

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

const (
	// DoctorsCollection holds doctor-type records keyed by registration.
	DoctorsCollection = "doctors"
	// UsersCollection holds user-type records.
	UsersCollection = "users"
)

// FirestoreDirectory looks up the doctor-type and user-type collections in
// the remote store.
type FirestoreDirectory struct {
	client *firestore.Client
}

var _ Directory = (*FirestoreDirectory)(nil)

// NewFirestoreDirectory creates the remote directory.
func NewFirestoreDirectory(client *firestore.Client) *FirestoreDirectory {
	return &FirestoreDirectory{client: client}
}

func (d *FirestoreDirectory) IsDoctor(ctx context.Context, email string) (bool, error) {
	return d.exists(ctx, DoctorsCollection, email)
}

func (d *FirestoreDirectory) IsUser(ctx context.Context, email string) (bool, error) {
	return d.exists(ctx, UsersCollection, email)
}

func (d *FirestoreDirectory) exists(ctx context.Context, collection, email string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	iter := d.client.Collection(collection).
		Where("email", "==", normalized).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	_, err := iter.Next()
	if err == iterator.Done {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
