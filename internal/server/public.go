package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/form"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/live"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	updatesError = "Could not load updates at this time. Please check back later."
	firstLoad    = 2 * time.Second
)

var contactMessages = form.Messages{
	Required: "Please fill out all fields.",
	Success:  "Your message has been sent successfully! Thank you.",
	Failure:  "Failed to send message. Please try again later.",
}

var updatesQuery = storage.Query{
	Collection: storage.CollectionNotifications,
	OrderBy:    "timestamp",
	Descending: true,
}

func (s *Server) handleContact(c *fiber.Ctx) error {
	var draft model.ContactDraft
	if err := c.BodyParser(&draft); err != nil {
		return fiber.ErrBadRequest
	}
	contact := form.New(s.writeContact, contactMessages, s.log)
	status := http.StatusOK
	if err := contact.Submit(c.UserContext(), draft); err != nil {
		if errors.Is(err, form.ErrInvalid) {
			status = http.StatusUnprocessableEntity
		} else {
			status = http.StatusServiceUnavailable
		}
	}
	st := contact.State()
	return s.renderPublic(c, status, &st)
}

func (s *Server) writeContact(ctx context.Context, d model.ContactDraft) error {
	if _, err := s.store.Add(ctx, storage.CollectionContacts, d.Fields()); err != nil {
		return err
	}
	s.notifier.MessageReceived(d)
	return nil
}

// renderPublic renders the public page. The updates list is read once
// here and kept live by the page's event stream.
func (s *Server) renderPublic(c *fiber.Ctx, status int, st *form.State[model.ContactDraft]) error {
	if st == nil {
		st = &form.State[model.ContactDraft]{}
	}
	feed := s.openUpdates(c.UserContext())
	ctx, cancel := context.WithTimeout(c.UserContext(), firstLoad)
	updates, _ := feed.Wait(ctx)
	cancel()
	feed.Release()

	return s.page(c, status, "public", fiber.Map{
		"Title":   "Contact Me",
		"Form":    st,
		"Updates": toUpdates(updates),
	})
}

func (s *Server) handleUpdatesStream(c *fiber.Ctx) error {
	feed := s.openUpdates(context.Background())
	updates := feed.Updates()
	return s.streamEvents(c, eventSource{
		next: func() ([]byte, bool) {
			st, ok := <-updates
			if !ok {
				return nil, false
			}
			frag, err := s.renderFragment("partials/updates", toUpdates(st))
			if err != nil {
				s.log.Error("render updates", zap.Error(err))
				return nil, false
			}
			return frag, true
		},
		close: func() { feed.Release() },
	})
}

func (s *Server) openUpdates(ctx context.Context) *live.Feed[model.Notification] {
	return live.Open(ctx, s.store, updatesQuery, model.DecodeNotification, s.log)
}

func toUpdates(st live.State[model.Notification]) updatesData {
	data := updatesData{Loading: st.Loading, Notifications: st.Records}
	if st.Err != nil {
		data.Error = updatesError
	}
	return data
}
