package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var _ storage.Store = (*Store)(nil)

var (
	bucketSettings = []byte("_settings")
	bucketRevoked  = []byte("_revoked")
)

// Store is a BoltDB-backed document store. Each collection lives in its own
// bucket keyed by document id; subscribers are notified in-process after
// every committed write.
type Store struct {
	db  *bolt.DB
	log *zap.Logger
	now func() time.Time

	// pubMu orders snapshot reads with their delivery so a subscriber never
	// receives an older snapshot after a newer one.
	pubMu  sync.Mutex
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	closed bool
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithClock overrides the server clock used for ServerTimestamp fields.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New initialises the Bolt store.
func New(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{
			bucketSettings,
			bucketRevoked,
			[]byte(storage.CollectionContacts),
			[]byte(storage.CollectionNotifications),
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &Store{
		db:   db,
		log:  zap.NewNop(),
		now:  func() time.Time { return time.Now().UTC() },
		subs: make(map[string]map[*subscription]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("store")
	return s, nil
}

// Close ends every live subscription and closes the underlying Bolt DB.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var live []*subscription
	for _, set := range s.subs {
		for sub := range set {
			live = append(live, sub)
		}
	}
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range live {
		sub.fail(storage.ErrClosed)
	}
	return s.db.Close()
}

// Add stores a new document under a generated id and returns the id.
func (s *Store) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := s.check(ctx, collection); err != nil {
		return "", err
	}
	id := uuid.NewString()
	payload, err := encodeDocument(data, s.now())
	if err != nil {
		return "", err
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return bkt.Put([]byte(id), payload)
	}); err != nil {
		return "", err
	}
	s.publish(collection)
	return id, nil
}

// Delete removes a document. Deleting an absent document is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.check(ctx, collection); err != nil {
		return err
	}
	existed := false
	if err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil || bkt.Get([]byte(id)) == nil {
			return nil
		}
		existed = true
		return bkt.Delete([]byte(id))
	}); err != nil {
		return err
	}
	if existed {
		s.publish(collection)
	}
	return nil
}

// get fetches one document.
func (s *Store) get(ctx context.Context, collection, id string) (storage.Document, error) {
	if err := s.check(ctx, collection); err != nil {
		return storage.Document{}, err
	}
	var doc storage.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(collection))
		if bkt == nil {
			return storage.ErrNotFound
		}
		raw := bkt.Get([]byte(id))
		if raw == nil {
			return storage.ErrNotFound
		}
		data, err := decodeDocument(raw)
		if err != nil {
			return err
		}
		doc = storage.Document{ID: id, Data: data}
		return nil
	})
	return doc, err
}

// Query reads the current snapshot of q once.
func (s *Store) Query(ctx context.Context, q storage.Query) (storage.Snapshot, error) {
	if err := s.check(ctx, q.Collection); err != nil {
		return storage.Snapshot{}, err
	}
	return s.read(q)
}

func (s *Store) read(q storage.Query) (storage.Snapshot, error) {
	var docs []storage.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(q.Collection))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, v []byte) error {
			data, err := decodeDocument(v)
			if err != nil {
				s.log.Warn("skipping undecodable document",
					zap.String("collection", q.Collection),
					zap.String("id", string(k)),
					zap.Error(err))
				return nil
			}
			if q.OrderBy != "" {
				if _, ok := data[q.OrderBy]; !ok {
					return nil
				}
			}
			docs = append(docs, storage.Document{ID: string(k), Data: data})
			return nil
		})
	})
	if err != nil {
		return storage.Snapshot{}, err
	}
	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			c := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	}
	return storage.Snapshot{Collection: q.Collection, Documents: docs, ReadAt: s.now()}, nil
}

// GetSetting returns a stored preference or storage.ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	if err := s.alive(ctx); err != nil {
		return "", err
	}
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketSettings).Get([]byte(key))
		if raw == nil {
			return storage.ErrNotFound
		}
		value = string(raw)
		return nil
	})
	return value, err
}

// PutSetting stores a preference.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	if err := s.alive(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSettings).Put([]byte(key), []byte(value))
	})
}

// Revoke records a signed-out session id until its natural expiry.
func (s *Store) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	if err := s.alive(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRevoked).Put([]byte(sessionID), []byte(until.UTC().Format(time.RFC3339)))
	})
}

// IsRevoked reports whether a session id has been signed out.
func (s *Store) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if err := s.alive(ctx); err != nil {
		return false, err
	}
	revoked := false
	err := s.db.View(func(tx *bolt.Tx) error {
		revoked = tx.Bucket(bucketRevoked).Get([]byte(sessionID)) != nil
		return nil
	})
	return revoked, err
}

// PurgeRevocations drops revocations whose tokens have expired anyway.
func (s *Store) PurgeRevocations(ctx context.Context) (int, error) {
	if err := s.alive(ctx); err != nil {
		return 0, err
	}
	now := s.now()
	purged := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketRevoked)
		var expired [][]byte
		if err := bkt.ForEach(func(k, v []byte) error {
			until, err := time.Parse(time.RFC3339, string(v))
			if err != nil || until.Before(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range expired {
			if err := bkt.Delete(k); err != nil {
				return err
			}
		}
		purged = len(expired)
		return nil
	})
	return purged, err
}

func (s *Store) check(ctx context.Context, collection string) error {
	if collection == "" || strings.HasPrefix(collection, "_") {
		return fmt.Errorf("%w: %q", storage.ErrInvalidCollection, collection)
	}
	return s.alive(ctx)
}

func (s *Store) alive(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	return nil
}
