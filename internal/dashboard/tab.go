package dashboard

import (
	"errors"
	"fmt"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
)

// ErrUnknownTab is returned for a tab name the dashboard does not have.
var ErrUnknownTab = errors.New("unknown tab")

// Tab selects which collection the dashboard lists.
type Tab string

const (
	TabMessages      Tab = "messages"
	TabNotifications Tab = "notifications"
)

// ParseTab maps a request value to a Tab. Empty means messages.
func ParseTab(raw string) (Tab, error) {
	switch Tab(raw) {
	case "", TabMessages:
		return TabMessages, nil
	case TabNotifications:
		return TabNotifications, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, raw)
	}
}

// Query is the live query backing the tab. Messages carry no server
// ordering and are sorted locally; notifications are ordered by the store.
func (t Tab) Query() storage.Query {
	if t == TabNotifications {
		return storage.Query{Collection: storage.CollectionNotifications, OrderBy: "timestamp", Descending: true}
	}
	return storage.Query{Collection: storage.CollectionContacts}
}

func (t Tab) listError() string {
	if t == TabNotifications {
		return "Failed to fetch notifications. Please try again later."
	}
	return "Failed to fetch messages. Please try again later."
}

func (t Tab) deleteError() string {
	if t == TabNotifications {
		return "Failed to delete notification."
	}
	return "Failed to delete message."
}
