package model

import "github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"

// ContactDraft is what a visitor types into the public contact form.
type ContactDraft struct {
	Name    string `form:"name" json:"name" validate:"notblank"`
	Email   string `form:"email" json:"email" validate:"notblank,email"`
	Message string `form:"message" json:"message" validate:"notblank"`
}

// Fields returns the document written to the contacts collection.
func (d ContactDraft) Fields() map[string]any {
	return map[string]any{
		"name":        d.Name,
		"email":       d.Email,
		"message":     d.Message,
		"submittedAt": storage.ServerTimestamp,
	}
}

// NotificationDraft is the admin's notification form.
type NotificationDraft struct {
	Title   string `form:"title" json:"title" validate:"notblank"`
	Message string `form:"message" json:"message" validate:"notblank"`
}

// Fields returns the document written to the notifications collection.
func (d NotificationDraft) Fields() map[string]any {
	return map[string]any{
		"title":     d.Title,
		"message":   d.Message,
		"timestamp": storage.ServerTimestamp,
	}
}
