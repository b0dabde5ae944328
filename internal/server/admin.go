package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/confirm"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/dashboard"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/export"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/form"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/live"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) view(c *fiber.Ctx) *dashboard.View {
	return s.views.Acquire(viewID(s.claims(c)))
}

func (s *Server) handleDashboard(c *fiber.Ctx) error {
	view := s.view(c)
	if raw := c.Query("tab"); raw != "" {
		tab, err := dashboard.ParseTab(raw)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if err := view.SwitchTab(tab); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), firstLoad)
	_ = view.Wait(ctx)
	cancel()

	return s.page(c, http.StatusOK, "dashboard", fiber.Map{
		"Title":    "Admin Dashboard",
		"SignedIn": s.authSvc.Enabled(),
		"View":     view.Snapshot(true),
	})
}

func (s *Server) handleDashboardStream(c *fiber.Ctx) error {
	id := viewID(s.claims(c))
	view := s.views.Acquire(id)
	ctx, cancel := context.WithCancel(context.Background())
	changes := view.Watch(ctx)
	return s.streamEvents(c, eventSource{
		next: func() ([]byte, bool) {
			if _, ok := <-changes; !ok {
				return nil, false
			}
			frag, err := s.renderFragment("partials/dashboard", view.Snapshot(false))
			if err != nil {
				s.log.Error("render dashboard", zap.Error(err))
				return nil, false
			}
			return frag, true
		},
		beat:  func() { s.views.Touch(id) },
		close: cancel,
	})
}

func (s *Server) handleRequestDelete(c *fiber.Ctx) error {
	tab, err := dashboard.ParseTab(c.Params("tab"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := s.view(c).RequestDelete(tab, c.Params("id")); err != nil {
		switch {
		case errors.Is(err, dashboard.ErrUnknownRecord):
			return fiber.NewError(http.StatusNotFound, err.Error())
		case errors.Is(err, dashboard.ErrInactiveTab):
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		return err
	}
	return s.backToTab(c, tab)
}

func (s *Server) handleConfirmDelete(c *fiber.Ctx) error {
	view := s.view(c)
	// a failed delete is shown on the dashboard, not as an HTTP error
	if err := view.ConfirmDelete(c.UserContext()); err != nil && !errors.Is(err, confirm.ErrClosed) {
		s.log.Warn("confirm delete", zap.Error(err))
	}
	return s.backToTab(c, view.Tab())
}

func (s *Server) handleCancelDelete(c *fiber.Ctx) error {
	view := s.view(c)
	view.CancelDelete()
	return s.backToTab(c, view.Tab())
}

func (s *Server) handleSendNotification(c *fiber.Ctx) error {
	var draft model.NotificationDraft
	if err := c.BodyParser(&draft); err != nil {
		return fiber.ErrBadRequest
	}
	view := s.view(c)
	if err := view.SendNotification(c.UserContext(), draft); err != nil {
		switch {
		case errors.Is(err, form.ErrBusy):
			return fiber.NewError(http.StatusTooManyRequests, err.Error())
		case errors.Is(err, dashboard.ErrViewClosed):
			return err
		}
	}
	return s.backToTab(c, dashboard.TabNotifications)
}

// handleExport downloads the last messages list. Nothing is sent when the
// list is empty.
func (s *Server) handleExport(c *fiber.Ctx) error {
	view := s.view(c)
	ctx, cancel := context.WithTimeout(c.UserContext(), firstLoad)
	_ = view.Wait(ctx)
	cancel()
	out, ok := view.Export()
	if !ok {
		return c.SendStatus(http.StatusNoContent)
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+export.Filename+`"`)
	return c.Send(out)
}

// handleAPIList returns the current contents of a tab's collection.
func (s *Server) handleAPIList(c *fiber.Ctx) error {
	tab, err := dashboard.ParseTab(c.Params("tab"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(model.ErrorWithCode(model.UnknownTabCode, err.Error()))
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), firstLoad)
	defer cancel()

	var (
		records any
		listErr error
	)
	switch tab {
	case dashboard.TabMessages:
		feed := live.Open(ctx, s.store, tab.Query(), model.DecodeMessage, s.log)
		st, err := feed.Wait(ctx)
		feed.Release()
		records, listErr = st.Records, firstErr(err, st.Err)
	default:
		feed := live.Open(ctx, s.store, tab.Query(), model.DecodeNotification, s.log)
		st, err := feed.Wait(ctx)
		feed.Release()
		records, listErr = st.Records, firstErr(err, st.Err)
	}
	if listErr != nil {
		s.log.Error("api list", zap.String("tab", string(tab)), zap.Error(listErr))
		return c.Status(http.StatusServiceUnavailable).JSON(model.ErrorWithCode(model.ListUnavailableCode, "list unavailable"))
	}
	return c.JSON(model.Success("ok", fiber.Map{
		"tab":     tab,
		"records": records,
	}))
}

func (s *Server) backToTab(c *fiber.Ctx, tab dashboard.Tab) error {
	return c.Redirect("/admin?tab="+string(tab), http.StatusSeeOther)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
