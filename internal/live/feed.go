// Package live keeps an in-memory, ordered copy of a subscribed collection.
package live

import (
	"context"
	"sort"
	"sync"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"go.uber.org/zap"
)

// Decoder turns a raw document into a record, rejecting malformed ones.
type Decoder[T model.Record] func(storage.Document) (T, error)

// State mirrors the last snapshot pushed by the store.
type State[T model.Record] struct {
	Records []T
	Loading bool
	Err     error
	// Version counts applied pushes and failures.
	Version uint64
	// Dropped counts malformed documents in the last push.
	Dropped int
}

// Feed wraps a live query. Every push replaces the whole record list.
type Feed[T model.Record] struct {
	log    *zap.Logger
	query  storage.Query
	decode Decoder[T]
	sub    storage.Subscription
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    State[T]
	updates  chan State[T]
	ready    chan struct{}
	isReady  bool
	released bool
	once     sync.Once
}

// Open subscribes to q. When q has no OrderBy the records are sorted
// locally by timestamp, newest first. A failed subscribe yields a feed
// already in its terminal error state.
func Open[T model.Record](ctx context.Context, store storage.DocumentStore, q storage.Query, decode Decoder[T], log *zap.Logger) *Feed[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Feed[T]{
		log:     log.Named("feed").With(zap.String("collection", q.Collection)),
		query:   q,
		decode:  decode,
		cancel:  cancel,
		done:    make(chan struct{}),
		state:   State[T]{Loading: true},
		updates: make(chan State[T], 1),
		ready:   make(chan struct{}),
	}
	sub, err := store.Subscribe(ctx, q)
	if err != nil {
		f.fail(err)
		close(f.done)
		return f
	}
	f.sub = sub
	go f.run(ctx)
	return f
}

func (f *Feed[T]) run(ctx context.Context) {
	defer close(f.done)
	snapshots := f.sub.Snapshots()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				if err := f.sub.Err(); err != nil {
					f.fail(err)
				}
				return
			}
			f.apply(snap)
		}
	}
}

func (f *Feed[T]) apply(snap storage.Snapshot) {
	records := make([]T, 0, len(snap.Documents))
	dropped := 0
	for _, doc := range snap.Documents {
		rec, err := f.decode(doc)
		if err != nil {
			dropped++
			f.log.Warn("dropping malformed document", zap.String("id", doc.ID), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	if f.query.OrderBy == "" {
		SortNewestFirst(records)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = State[T]{
		Records: records,
		Version: f.state.Version + 1,
		Dropped: dropped,
	}
	f.publishLocked()
}

func (f *Feed[T]) fail(err error) {
	f.log.Error("subscription failed", zap.Error(err))
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = State[T]{
		Records: f.state.Records,
		Err:     err,
		Version: f.state.Version + 1,
	}
	f.publishLocked()
}

func (f *Feed[T]) publishLocked() {
	if !f.isReady {
		f.isReady = true
		close(f.ready)
	}
	if f.released {
		return
	}
	select {
	case <-f.updates:
	default:
	}
	f.updates <- f.state
}

// Current returns the latest state.
func (f *Feed[T]) Current() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Updates yields states as pushes arrive; an unread state is replaced by a
// newer one. The channel is closed once the feed is released.
func (f *Feed[T]) Updates() <-chan State[T] {
	return f.updates
}

// Wait blocks until the first snapshot or failure, or until ctx is done.
func (f *Feed[T]) Wait(ctx context.Context) (State[T], error) {
	select {
	case <-f.ready:
		return f.Current(), nil
	case <-ctx.Done():
		return f.Current(), ctx.Err()
	}
}

// Failed reports whether the feed reached its terminal error state.
func (f *Feed[T]) Failed() bool {
	return f.Current().Err != nil
}

// Release closes the subscription. Only the first call has an effect and
// returns true.
func (f *Feed[T]) Release() bool {
	released := false
	f.once.Do(func() {
		released = true
		f.cancel()
		if f.sub != nil {
			if err := f.sub.Close(); err != nil {
				f.log.Warn("closing subscription", zap.Error(err))
			}
		}
		<-f.done
		f.mu.Lock()
		f.released = true
		close(f.updates)
		f.mu.Unlock()
	})
	return released
}

// SortNewestFirst orders records by timestamp, newest first. Unstamped
// records (pending server acknowledgement) compare equal to each other only;
// against a stamped record they always sort first, since equality with every
// record would not be a consistent ordering. Ties keep their snapshot order.
func SortNewestFirst[T model.Record](records []T) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := records[i].Stamp()
		tj, okJ := records[j].Stamp()
		switch {
		case !okI && !okJ:
			return false
		case !okI:
			return true
		case !okJ:
			return false
		}
		return ti.After(tj)
	})
}
