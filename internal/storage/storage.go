//go:generate mockgen -destination=mocks/storage_mock.go -package=mocks . DocumentStore,Subscription

package storage

import (
	"context"
	"time"
)

// Collections used by the portal.
const (
	CollectionContacts      = "contacts"
	CollectionNotifications = "notifications"
)

type serverTimestamp struct{}

// ServerTimestamp is a field value placeholder. The store replaces it with
// its own clock reading when the document is written.
var ServerTimestamp any = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp placeholder.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Query selects a collection and an optional server-side ordering.
// Documents lacking the OrderBy field are excluded from ordered results.
type Query struct {
	Collection string
	OrderBy    string
	Descending bool
}

// Snapshot is the full content of a subscribed query at one point in time.
type Snapshot struct {
	Collection string
	Documents  []Document
	ReadAt     time.Time
}

// Subscription delivers snapshots of a query until closed. Snapshots is
// closed when the subscription ends; Err then reports why (nil after Close).
type Subscription interface {
	Snapshots() <-chan Snapshot
	Err() error
	Close() error
}

// DocumentStore abstracts the collection-oriented document database.
type DocumentStore interface {
	Subscribe(ctx context.Context, q Query) (Subscription, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Delete(ctx context.Context, collection, id string) error
}

// SettingsStore keeps small process-wide preferences.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error
}

// RevocationStore remembers signed-out session ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// Store is everything the portal persists.
type Store interface {
	DocumentStore
	SettingsStore
	RevocationStore
	Close() error
}
