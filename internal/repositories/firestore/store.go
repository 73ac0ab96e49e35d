// Package firestore stores each collection as one Firestore document.
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/forsage-shop/pos/internal/platform/firestore"
)

// maxPayloadBytes stays under Firestore's 1 MiB document limit.
const maxPayloadBytes = 1000 * 1024

// ErrPayloadTooLarge is returned when a collection outgrows a single document.
var ErrPayloadTooLarge = errors.New("firestore store: payload exceeds document limit")

type kvDocument struct {
	Value     string    `firestore:"value"`
	Revision  int64     `firestore:"revision"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// Store is a Firestore backed KVStore. Document ids are the collection keys.
type Store struct {
	provider *pfirestore.Provider
	docs     *pfirestore.Collection[kvDocument]
	now      func() time.Time
}

// NewStore binds the store to collection.
func NewStore(provider *pfirestore.Provider, collection string) (*Store, error) {
	if provider == nil {
		return nil, errors.New("firestore store: provider is required")
	}
	if strings.TrimSpace(collection) == "" {
		return nil, errors.New("firestore store: collection is required")
	}
	return &Store{
		provider: provider,
		docs:     pfirestore.NewCollection[kvDocument](provider, collection),
		now:      time.Now,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	doc, err := s.docs.Get(ctx, key)
	if err != nil {
		var fsErr *pfirestore.Error
		if errors.As(err, &fsErr) && fsErr.IsNotFound() {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(doc.Value), true, nil
}

// Put replaces the document inside a transaction and bumps its revision.
// TODO: shard payloads across documents once a collection outgrows maxPayloadBytes.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if len(value) > maxPayloadBytes {
		return pfirestore.WrapError("kv.put", ErrPayloadTooLarge)
	}
	ref, err := s.docs.DocumentRef(ctx, key)
	if err != nil {
		return err
	}
	return s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var revision int64
		snap, err := tx.Get(ref)
		switch {
		case err == nil:
			var current kvDocument
			if decodeErr := snap.DataTo(&current); decodeErr == nil {
				revision = current.Revision
			}
		case status.Code(err) == codes.NotFound:
		default:
			return err
		}
		return tx.Set(ref, kvDocument{
			Value:     string(value),
			Revision:  revision + 1,
			UpdatedAt: s.now().UTC(),
		})
	})
}

// Ping checks the client can be created.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.provider.Client(ctx)
	return err
}

// Close releases the Firestore client.
func (s *Store) Close(ctx context.Context) error {
	return s.provider.Close(ctx)
}
