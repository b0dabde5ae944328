// Package confirm guards destructive deletes behind an explicit confirmation.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
)

// ErrClosed is returned by Confirm when no deletion is pending.
var ErrClosed = errors.New("no deletion pending")

// Deleter removes a document from a collection.
type Deleter interface {
	Delete(ctx context.Context, collection, id string) error
}

// Gate holds at most one record awaiting confirmation. It is either closed
// or open for exactly one record.
type Gate[T model.Record] struct {
	store      Deleter
	collection string
	prompt     func(T) string

	mu      sync.Mutex
	pending *T
}

// New returns a closed gate deleting from collection.
func New[T model.Record](store Deleter, collection string, prompt func(T) string) *Gate[T] {
	return &Gate[T]{store: store, collection: collection, prompt: prompt}
}

// Request opens the gate for rec, replacing any pending record.
func (g *Gate[T]) Request(rec T) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = &rec
}

// Pending returns the record awaiting confirmation.
func (g *Gate[T]) Pending() (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		var zero T
		return zero, false
	}
	return *g.pending, true
}

// Open reports whether a deletion is pending.
func (g *Gate[T]) Open() bool {
	_, ok := g.Pending()
	return ok
}

// Prompt is the question shown while the gate is open, empty when closed.
func (g *Gate[T]) Prompt() string {
	rec, ok := g.Pending()
	if !ok {
		return ""
	}
	return g.prompt(rec)
}

// Cancel closes the gate without touching the store.
func (g *Gate[T]) Cancel() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = nil
}

// Confirm deletes the pending record and closes the gate. The gate closes
// even when the delete fails; the error is returned for display.
func (g *Gate[T]) Confirm(ctx context.Context) (T, error) {
	g.mu.Lock()
	if g.pending == nil {
		g.mu.Unlock()
		var zero T
		return zero, ErrClosed
	}
	rec := *g.pending
	g.pending = nil
	g.mu.Unlock()

	if err := g.store.Delete(ctx, g.collection, rec.RecordID()); err != nil {
		return rec, fmt.Errorf("delete %s/%s: %w", g.collection, rec.RecordID(), err)
	}
	return rec, nil
}

// MessagePrompt asks about deleting a contact message.
func MessagePrompt(m model.Message) string {
	return fmt.Sprintf("Are you sure you want to delete the message from \"%s\"?", m.Name)
}

// NotificationPrompt asks about deleting a notification.
func NotificationPrompt(n model.Notification) string {
	return fmt.Sprintf("Are you sure you want to delete the notification titled \"%s\"?", n.Title)
}
