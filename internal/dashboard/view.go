// Package dashboard holds the admin's live view: the active tab, its
// subscription, pending deletions and the notification form.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/confirm"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/export"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/form"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/live"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	// ErrViewClosed is returned once the view has been closed.
	ErrViewClosed = errors.New("view closed")
	// ErrUnknownRecord means the record is not in the active list.
	ErrUnknownRecord = errors.New("record not in list")
	// ErrInactiveTab means an action targeted a tab that is not shown.
	ErrInactiveTab = errors.New("tab not active")
)

// NotificationMessages are the texts of the notification form.
var NotificationMessages = form.Messages{
	Required: "Title and message cannot be empty.",
	Success:  "Notification sent.",
	Failure:  "Failed to send notification. Please try again.",
}

// Snapshot is everything needed to render the dashboard once.
type Snapshot struct {
	Tab           Tab
	Loading       bool
	ListError     string
	ActionError   string
	Messages      []model.Message
	Notifications []model.Notification
	Prompt        string
	Form          form.State[model.NotificationDraft]
	CanExport     bool
}

// View is one admin session's dashboard. Exactly one collection feed is
// live at a time.
type View struct {
	id    string
	store storage.DocumentStore
	loc   *time.Location
	log   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	msgGate  *confirm.Gate[model.Message]
	noteGate *confirm.Gate[model.Notification]
	notify   *form.Form[model.NotificationDraft]

	mu            sync.Mutex
	tab           Tab
	messages      *live.Feed[model.Message]
	notifications *live.Feed[model.Notification]
	lastMessages  []model.Message
	actionErr     string
	watchers      map[chan struct{}]struct{}
	closed        bool
}

// NewView opens a view on the messages tab.
func NewView(id string, store storage.DocumentStore, loc *time.Location, log *zap.Logger) *View {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		id:       id,
		store:    store,
		loc:      loc,
		log:      log.Named("dashboard").With(zap.String("view", id)),
		ctx:      ctx,
		cancel:   cancel,
		msgGate:  confirm.New(store, storage.CollectionContacts, confirm.MessagePrompt),
		noteGate: confirm.New(store, storage.CollectionNotifications, confirm.NotificationPrompt),
		watchers: make(map[chan struct{}]struct{}),
	}
	v.notify = form.New(v.addNotification, NotificationMessages, log)
	v.mu.Lock()
	v.openLocked(TabMessages)
	v.mu.Unlock()
	return v
}

// ID identifies the view in its registry.
func (v *View) ID() string { return v.id }

// Tab returns the active tab.
func (v *View) Tab() Tab {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tab
}

// SwitchTab makes tab active. The prior feed is released before the next
// one opens. Switching to the active tab reopens its feed only when it has
// failed, which is how a user retries.
func (v *View) SwitchTab(tab Tab) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	if tab == v.tab && !v.failedLocked() {
		return nil
	}
	v.releaseLocked()
	v.msgGate.Cancel()
	v.noteGate.Cancel()
	v.actionErr = ""
	v.openLocked(tab)
	v.changedLocked()
	return nil
}

// RequestDelete opens the confirmation gate for a record of the active tab.
func (v *View) RequestDelete(tab Tab, id string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewClosed
	}
	if tab != v.tab {
		return fmt.Errorf("%w: %s", ErrInactiveTab, tab)
	}
	var found bool
	switch tab {
	case TabMessages:
		var rec model.Message
		rec, found = lo.Find(v.messages.Current().Records, func(m model.Message) bool { return m.ID == id })
		if found {
			v.noteGate.Cancel()
			v.msgGate.Request(rec)
		}
	case TabNotifications:
		var rec model.Notification
		rec, found = lo.Find(v.notifications.Current().Records, func(n model.Notification) bool { return n.ID == id })
		if found {
			v.msgGate.Cancel()
			v.noteGate.Request(rec)
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	v.changedLocked()
	return nil
}

// ConfirmDelete deletes the pending record. The gate closes either way; a
// failure also sets the view's error message.
func (v *View) ConfirmDelete(ctx context.Context) error {
	var (
		tab Tab
		err error
	)
	switch {
	case v.msgGate.Open():
		tab = TabMessages
		_, err = v.msgGate.Confirm(ctx)
	case v.noteGate.Open():
		tab = TabNotifications
		_, err = v.noteGate.Confirm(ctx)
	default:
		return confirm.ErrClosed
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.log.Error("delete failed", zap.String("tab", string(tab)), zap.Error(err))
		v.actionErr = tab.deleteError()
	}
	v.changedLocked()
	return err
}

// CancelDelete closes any open gate without touching the store.
func (v *View) CancelDelete() {
	v.msgGate.Cancel()
	v.noteGate.Cancel()
	v.mu.Lock()
	defer v.mu.Unlock()
	v.changedLocked()
}

// SendNotification submits the notification form.
func (v *View) SendNotification(ctx context.Context, draft model.NotificationDraft) error {
	if v.isClosed() {
		return ErrViewClosed
	}
	v.signal()
	err := v.notify.Submit(ctx, draft)
	v.signal()
	return err
}

func (v *View) addNotification(ctx context.Context, d model.NotificationDraft) error {
	_, err := v.store.Add(ctx, storage.CollectionNotifications, d.Fields())
	return err
}

// Export renders the last messages list as CSV; false when it is empty.
func (v *View) Export() ([]byte, bool) {
	v.mu.Lock()
	records := v.exportableLocked()
	v.mu.Unlock()
	return export.Messages(records, v.loc)
}

// exportableLocked prefers the live messages list over the retained one.
func (v *View) exportableLocked() []model.Message {
	if v.messages != nil {
		if st := v.messages.Current(); !st.Loading && st.Err == nil {
			return st.Records
		}
	}
	return v.lastMessages
}

// Snapshot returns the current render state. With flash set, one-shot
// form messages are consumed.
func (v *View) Snapshot(flash bool) Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := Snapshot{
		Tab:         v.tab,
		ActionError: v.actionErr,
		CanExport:   len(v.exportableLocked()) > 0,
	}
	if v.closed {
		return snap
	}
	switch v.tab {
	case TabMessages:
		st := v.messages.Current()
		snap.Loading = st.Loading
		snap.Messages = st.Records
		if st.Err != nil {
			snap.ListError = v.tab.listError()
		}
		snap.Prompt = v.msgGate.Prompt()
	case TabNotifications:
		st := v.notifications.Current()
		snap.Loading = st.Loading
		snap.Notifications = st.Records
		if st.Err != nil {
			snap.ListError = v.tab.listError()
		}
		snap.Prompt = v.noteGate.Prompt()
	}
	if flash {
		snap.Form = v.notify.Flash()
	} else {
		snap.Form = v.notify.State()
	}
	return snap
}

// Wait blocks until the active feed has its first result or ctx is done.
func (v *View) Wait(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrViewClosed
	}
	var wait func(context.Context) error
	switch v.tab {
	case TabMessages:
		f := v.messages
		wait = func(ctx context.Context) error { _, err := f.Wait(ctx); return err }
	default:
		f := v.notifications
		wait = func(ctx context.Context) error { _, err := f.Wait(ctx); return err }
	}
	v.mu.Unlock()
	return wait(ctx)
}

// Watch signals whenever the rendered state may have changed, starting
// with one signal right away. The channel closes when ctx is done or the
// view closes.
func (v *View) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		close(ch)
		return ch
	}
	v.watchers[ch] = struct{}{}
	ch <- struct{}{}
	context.AfterFunc(ctx, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if _, ok := v.watchers[ch]; ok {
			delete(v.watchers, ch)
			close(ch)
		}
	})
	return ch
}

// Close releases the live feed and ends every watcher. Later calls do nothing.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.releaseLocked()
	v.cancel()
	for ch := range v.watchers {
		close(ch)
	}
	v.watchers = nil
	v.log.Debug("view closed")
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *View) signal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.changedLocked()
}

func (v *View) openLocked(tab Tab) {
	v.tab = tab
	switch tab {
	case TabMessages:
		f := live.Open(v.ctx, v.store, tab.Query(), model.DecodeMessage, v.log)
		v.messages = f
		go forward(v, f, func(st live.State[model.Message]) {
			if v.messages == f && st.Err == nil {
				v.lastMessages = st.Records
			}
		})
	case TabNotifications:
		f := live.Open(v.ctx, v.store, tab.Query(), model.DecodeNotification, v.log)
		v.notifications = f
		go forward(v, f, nil)
	}
}

func (v *View) releaseLocked() {
	if v.messages != nil {
		v.messages.Release()
		v.messages = nil
	}
	if v.notifications != nil {
		v.notifications.Release()
		v.notifications = nil
	}
}

func (v *View) failedLocked() bool {
	switch v.tab {
	case TabMessages:
		return v.messages == nil || v.messages.Failed()
	default:
		return v.notifications == nil || v.notifications.Failed()
	}
}

func (v *View) changedLocked() {
	for ch := range v.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// forward applies feed updates to the view until the feed is released.
func forward[T model.Record](v *View, f *live.Feed[T], apply func(live.State[T])) {
	for st := range f.Updates() {
		v.mu.Lock()
		if apply != nil {
			apply(st)
		}
		v.changedLocked()
		v.mu.Unlock()
	}
}
