package bolt

import (
	"context"
	"sync"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"go.uber.org/zap"
)

// Subscribe opens a live query. The current snapshot is delivered
// immediately, then a fresh snapshot after every write to the collection.
// The subscription ends when ctx is done or Close is called.
func (s *Store) Subscribe(ctx context.Context, q storage.Query) (storage.Subscription, error) {
	if err := s.check(ctx, q.Collection); err != nil {
		return nil, err
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	snap, err := s.read(q)
	if err != nil {
		return nil, err
	}
	sub := &subscription{
		query: q,
		store: s,
		ch:    make(chan storage.Snapshot, 1),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, storage.ErrClosed
	}
	set, ok := s.subs[q.Collection]
	if !ok {
		set = make(map[*subscription]struct{})
		s.subs[q.Collection] = set
	}
	set[sub] = struct{}{}
	s.mu.Unlock()

	sub.deliver(snap)
	stop := context.AfterFunc(ctx, func() { _ = sub.Close() })
	sub.mu.Lock()
	sub.stop = stop
	sub.mu.Unlock()
	s.log.Debug("subscription opened", zap.String("collection", q.Collection))
	return sub, nil
}

// publish pushes a fresh snapshot to every subscriber of collection.
func (s *Store) publish(collection string) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs[collection]))
	for sub := range s.subs[collection] {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	byQuery := make(map[storage.Query][]*subscription)
	for _, sub := range subs {
		byQuery[sub.query] = append(byQuery[sub.query], sub)
	}
	for q, group := range byQuery {
		snap, err := s.read(q)
		for _, sub := range group {
			if err != nil {
				s.log.Error("snapshot read failed", zap.String("collection", collection), zap.Error(err))
				sub.fail(err)
				continue
			}
			sub.deliver(snap)
		}
	}
}

func (s *Store) unregister(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.subs[sub.query.Collection]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(s.subs, sub.query.Collection)
		}
	}
}

type subscription struct {
	query storage.Query
	store *Store
	stop  func() bool

	mu     sync.Mutex
	ch     chan storage.Snapshot
	done   bool
	err    error
	closer sync.Once
}

func (sub *subscription) Snapshots() <-chan storage.Snapshot {
	return sub.ch
}

func (sub *subscription) Err() error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.err
}

func (sub *subscription) Close() error {
	sub.closer.Do(func() {
		sub.mu.Lock()
		stop := sub.stop
		sub.mu.Unlock()
		if stop != nil {
			stop()
		}
		sub.store.unregister(sub)
		sub.finish(nil)
	})
	return nil
}

// deliver replaces any undelivered snapshot with snap.
func (sub *subscription) deliver(snap storage.Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.done {
		return
	}
	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- snap
}

func (sub *subscription) fail(err error) {
	sub.store.unregister(sub)
	sub.finish(err)
}

func (sub *subscription) finish(err error) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.done {
		return
	}
	sub.done = true
	sub.err = err
	close(sub.ch)
}
