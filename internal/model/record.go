package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
)

// ErrMalformedDocument marks a stored document that does not fit a record variant.
var ErrMalformedDocument = errors.New("malformed document")

// Record is a Message or Notification held in the document store.
type Record interface {
	RecordID() string
	// Stamp returns the server-assigned timestamp, ok=false while the
	// document has not been stamped yet.
	Stamp() (time.Time, bool)
}

// Message is a contact form submission (collection "contacts").
type Message struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Message     string     `json:"message"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

func (m Message) RecordID() string { return m.ID }

func (m Message) Stamp() (time.Time, bool) {
	if m.SubmittedAt == nil {
		return time.Time{}, false
	}
	return *m.SubmittedAt, true
}

// Notification is an announcement written by the admin (collection "notifications").
type Notification struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (n Notification) RecordID() string { return n.ID }

func (n Notification) Stamp() (time.Time, bool) {
	if n.Timestamp == nil {
		return time.Time{}, false
	}
	return *n.Timestamp, true
}

// DecodeMessage coerces a raw document into a Message. Text fields must be
// strings when present; the timestamp may be absent but not mistyped.
func DecodeMessage(doc storage.Document) (Message, error) {
	msg := Message{ID: doc.ID}
	var err error
	if msg.Name, err = textField(doc, "name"); err != nil {
		return Message{}, err
	}
	if msg.Email, err = textField(doc, "email"); err != nil {
		return Message{}, err
	}
	if msg.Message, err = textField(doc, "message"); err != nil {
		return Message{}, err
	}
	if msg.SubmittedAt, err = stampField(doc, "submittedAt"); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// DecodeNotification coerces a raw document into a Notification.
func DecodeNotification(doc storage.Document) (Notification, error) {
	n := Notification{ID: doc.ID}
	var err error
	if n.Title, err = textField(doc, "title"); err != nil {
		return Notification{}, err
	}
	if n.Message, err = textField(doc, "message"); err != nil {
		return Notification{}, err
	}
	if n.Timestamp, err = stampField(doc, "timestamp"); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func textField(doc storage.Document, field string) (string, error) {
	if doc.ID == "" {
		return "", fmt.Errorf("%w: missing id", ErrMalformedDocument)
	}
	value, _, err := doc.String(field)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformedDocument, doc.ID, err)
	}
	return value, nil
}

func stampField(doc storage.Document, field string) (*time.Time, error) {
	value, ok, err := doc.Time(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, doc.ID, err)
	}
	if !ok {
		return nil, nil
	}
	return &value, nil
}
