package dashboard

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/confirm"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/form"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage/bolt"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage/mocks"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

const eventually = 2 * time.Second
const tick = 5 * time.Millisecond

func newStore(t *testing.T) *bolt.Store {
	t.Helper()
	store, err := bolt.New(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func stored(t *testing.T, store *bolt.Store, id string) bool {
	t.Helper()
	snap, err := store.Query(context.Background(), storage.Query{Collection: storage.CollectionContacts})
	require.NoError(t, err)
	return lo.ContainsBy(snap.Documents, func(doc storage.Document) bool { return doc.ID == id })
}

func addMessage(t *testing.T, store storage.DocumentStore, name string) string {
	t.Helper()
	id, err := store.Add(context.Background(), storage.CollectionContacts,
		model.ContactDraft{Name: name, Email: strings.ToLower(name) + "@x.com", Message: "hi"}.Fields())
	require.NoError(t, err)
	return id
}

func messageIDs(s Snapshot) []string {
	return lo.Map(s.Messages, func(m model.Message, _ int) string { return m.ID })
}

func TestView_ListsLiveMessages(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	first := addMessage(t, store, "Al")

	view := NewView("s1", store, time.UTC, zap.NewNop())
	defer view.Close()
	req.NoError(view.Wait(context.Background()))

	snap := view.Snapshot(false)
	req.Equal(TabMessages, snap.Tab)
	req.False(snap.Loading)
	req.Equal([]string{first}, messageIDs(snap))

	changes := view.Watch(context.Background())
	<-changes

	second := addMessage(t, store, "Bo")
	req.Eventually(func() bool {
		return len(view.Snapshot(false).Messages) == 2
	}, eventually, tick)
	req.Contains(messageIDs(view.Snapshot(false)), second)

	select {
	case <-changes:
	case <-time.After(eventually):
		t.Fatal("watcher was not signalled")
	}
}

func TestView_SwitchTabReleasesPriorFeedFirst(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	msgSub := mocks.NewMockSubscription(ctrl)
	noteSub := mocks.NewMockSubscription(ctrl)
	msgCh := make(chan storage.Snapshot, 1)
	noteCh := make(chan storage.Snapshot, 1)

	msgSub.EXPECT().Snapshots().Return((<-chan storage.Snapshot)(msgCh)).AnyTimes()
	noteSub.EXPECT().Snapshots().Return((<-chan storage.Snapshot)(noteCh)).AnyTimes()
	gomock.InOrder(
		store.EXPECT().Subscribe(gomock.Any(), TabMessages.Query()).Return(msgSub, nil),
		msgSub.EXPECT().Close().Return(nil).Times(1),
		store.EXPECT().Subscribe(gomock.Any(), TabNotifications.Query()).Return(noteSub, nil),
		noteSub.EXPECT().Close().Return(nil).Times(1),
	)

	view := NewView("s1", store, time.UTC, zap.NewNop())
	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	msgCh <- storage.Snapshot{Documents: []storage.Document{
		{ID: "a", Data: map[string]any{"name": "Al", "submittedAt": stamp}},
	}}
	req.Eventually(func() bool { return view.Snapshot(false).CanExport }, eventually, tick)

	req.NoError(view.SwitchTab(TabNotifications))
	req.NoError(view.SwitchTab(TabNotifications))
	req.Equal(TabNotifications, view.Tab())

	out, ok := view.Export()
	req.True(ok)
	req.Contains(string(out), `"a","Al"`)

	view.Close()
	view.Close()
	req.ErrorIs(view.SwitchTab(TabMessages), ErrViewClosed)
}

func TestView_ReopensFailedFeedOnSameTab(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	sub := mocks.NewMockSubscription(ctrl)
	ch := make(chan storage.Snapshot)
	close(ch)

	sub.EXPECT().Snapshots().Return((<-chan storage.Snapshot)(ch)).AnyTimes()
	sub.EXPECT().Err().Return(errors.New("permission denied")).AnyTimes()
	sub.EXPECT().Close().Return(nil).AnyTimes()
	store.EXPECT().Subscribe(gomock.Any(), TabMessages.Query()).Return(sub, nil).Times(2)

	view := NewView("s1", store, time.UTC, zap.NewNop())
	defer view.Close()
	req.NoError(view.Wait(context.Background()))
	req.Equal("Failed to fetch messages. Please try again later.", view.Snapshot(false).ListError)

	req.NoError(view.SwitchTab(TabMessages))
}

func TestView_DeleteGoesThroughConfirmation(t *testing.T) {
	store := newStore(t)

	t.Run("should leave the store unchanged on cancel", func(t *testing.T) {
		req := require.New(t)
		id := addMessage(t, store, "Cy")
		view := NewView("s1", store, time.UTC, zap.NewNop())
		defer view.Close()
		req.NoError(view.Wait(context.Background()))

		req.NoError(view.RequestDelete(TabMessages, id))
		req.Equal(`Are you sure you want to delete the message from "Cy"?`, view.Snapshot(false).Prompt)
		view.CancelDelete()
		req.Empty(view.Snapshot(false).Prompt)

		req.True(stored(t, store, id))
		req.ErrorIs(view.ConfirmDelete(context.Background()), confirm.ErrClosed)
	})

	t.Run("should delete the record once confirmed", func(t *testing.T) {
		req := require.New(t)
		id := addMessage(t, store, "Di")
		view := NewView("s2", store, time.UTC, zap.NewNop())
		defer view.Close()
		req.NoError(view.Wait(context.Background()))
		req.Eventually(func() bool { return lo.Contains(messageIDs(view.Snapshot(false)), id) }, eventually, tick)

		req.NoError(view.RequestDelete(TabMessages, id))
		req.NoError(view.ConfirmDelete(context.Background()))
		req.Empty(view.Snapshot(false).Prompt)

		req.False(stored(t, store, id))
		req.Eventually(func() bool { return !lo.Contains(messageIDs(view.Snapshot(false)), id) }, eventually, tick)
	})

	t.Run("should refuse records outside the active list", func(t *testing.T) {
		req := require.New(t)
		view := NewView("s3", store, time.UTC, zap.NewNop())
		defer view.Close()
		req.NoError(view.Wait(context.Background()))
		req.ErrorIs(view.RequestDelete(TabMessages, "missing"), ErrUnknownRecord)
		req.ErrorIs(view.RequestDelete(TabNotifications, "missing"), ErrInactiveTab)
	})
}

func TestView_DeleteFailureSurfacesMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockDocumentStore(ctrl)
	msgSub := mocks.NewMockSubscription(ctrl)
	noteSub := mocks.NewMockSubscription(ctrl)
	msgCh := make(chan storage.Snapshot, 1)
	noteCh := make(chan storage.Snapshot, 1)
	noteCh <- storage.Snapshot{Documents: []storage.Document{{ID: "n1", Data: map[string]any{"title": "Launch"}}}}

	msgSub.EXPECT().Snapshots().Return((<-chan storage.Snapshot)(msgCh)).AnyTimes()
	msgSub.EXPECT().Close().Return(nil).Times(1)
	noteSub.EXPECT().Snapshots().Return((<-chan storage.Snapshot)(noteCh)).AnyTimes()
	noteSub.EXPECT().Close().Return(nil).Times(1)
	store.EXPECT().Subscribe(gomock.Any(), TabMessages.Query()).Return(msgSub, nil)
	store.EXPECT().Subscribe(gomock.Any(), TabNotifications.Query()).Return(noteSub, nil)
	store.EXPECT().Delete(gomock.Any(), storage.CollectionNotifications, "n1").Return(errors.New("denied")).Times(1)

	view := NewView("s1", store, time.UTC, zap.NewNop())
	defer view.Close()
	req.NoError(view.SwitchTab(TabNotifications))
	req.Eventually(func() bool { return len(view.Snapshot(false).Notifications) == 1 }, eventually, tick)

	req.NoError(view.RequestDelete(TabNotifications, "n1"))
	req.Error(view.ConfirmDelete(context.Background()))

	snap := view.Snapshot(false)
	req.Empty(snap.Prompt)
	req.Equal("Failed to delete notification.", snap.ActionError)
}

func TestView_SendNotification(t *testing.T) {
	req := require.New(t)
	store := newStore(t)
	view := NewView("s1", store, time.UTC, zap.NewNop())
	defer view.Close()
	req.NoError(view.SwitchTab(TabNotifications))

	err := view.SendNotification(context.Background(), model.NotificationDraft{Title: "  ", Message: "body"})
	req.ErrorIs(err, form.ErrInvalid)
	snap, err := store.Query(context.Background(), TabNotifications.Query())
	req.NoError(err)
	req.Empty(snap.Documents)

	req.NoError(view.SendNotification(context.Background(), model.NotificationDraft{Title: "Launch", Message: "Today"}))
	req.Eventually(func() bool { return len(view.Snapshot(false).Notifications) == 1 }, eventually, tick)

	flashed := view.Snapshot(true)
	req.Equal(NotificationMessages.Success, flashed.Form.Success)
	req.Empty(view.Snapshot(false).Form.Success)
}

func TestView_ExportIsEmptyWithoutMessages(t *testing.T) {
	req := require.New(t)
	view := NewView("s1", newStore(t), time.UTC, zap.NewNop())
	defer view.Close()
	req.NoError(view.Wait(context.Background()))

	out, ok := view.Export()
	req.False(ok)
	req.Nil(out)
}
