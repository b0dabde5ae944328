package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/alert"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/config"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/dashboard"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/session"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/theme"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"
)

// Server wires HTTP handlers.
type Server struct {
	app      *fiber.App
	engine   *html.Engine
	cfg      *config.Config
	store    storage.DocumentStore
	authSvc  *session.AuthService
	gate     *session.Gate
	views    *dashboard.Registry
	theme    *theme.Preference
	notifier alert.Notifier
	loc      *time.Location
	log      *zap.Logger
	done     chan struct{}
}

// New builds a server instance. Dashboard views are created per session
// on first use and closed when idle, on sign out or on shutdown.
func New(cfg *config.Config, store storage.DocumentStore, authSvc *session.AuthService, pref *theme.Preference, notifier alert.Notifier, log *zap.Logger) *Server {
	loc := cfg.Location()
	engine := newEngine(loc)
	log = log.Named("http")
	app := fiber.New(fiber.Config{
		IdleTimeout:           cfg.HTTP.ReadTimeout,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		AppName:               "contact-admin",
		Views:                 engine,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	s := &Server{
		app:      app,
		engine:   engine,
		cfg:      cfg,
		store:    store,
		authSvc:  authSvc,
		gate:     session.NewGate(authSvc, cfg.Auth.ResolveTimeout, log),
		theme:    pref,
		notifier: notifier,
		loc:      loc,
		log:      log,
		done:     make(chan struct{}),
	}
	s.views = dashboard.NewRegistry(cfg.Views.IdleTTL, func(id string) *dashboard.View {
		return dashboard.NewView(id, store, loc, log)
	}, log)
	s.registerRoutes()
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens and serves HTTP traffic.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("addr", s.cfg.HTTP.Addr))
	return s.app.Listen(s.cfg.HTTP.Addr)
}

// Shutdown ends open event streams, closes every dashboard view and stops
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.views.Close()
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Use(recover.New())
	s.app.Use(requestLogger(s.log))

	s.app.Get("/healthz", s.handleHealth)

	s.app.Get("/", s.handleHome)
	s.app.Get("/login", s.handleLoginPage)
	s.app.Post("/auth/login", s.handleLogin)
	s.app.Post("/auth/logout", s.handleLogout)
	s.app.Post("/theme/toggle", s.handleThemeToggle)

	s.app.Post("/contact", s.handleContact)
	s.app.Get("/updates/stream", s.handleUpdatesStream)

	admin := s.app.Group("/admin", s.requireSession)
	admin.Get("/", s.handleDashboard)
	admin.Get("/stream", s.handleDashboardStream)
	admin.Get("/messages/export", s.handleExport)
	admin.Post("/notifications", s.handleSendNotification)
	admin.Post("/confirm", s.handleConfirmDelete)
	admin.Post("/cancel", s.handleCancelDelete)
	admin.Post("/:tab/:id/delete", s.handleRequestDelete)

	api := s.app.Group("/api/admin", s.requireSession)
	api.Get("/:tab", s.handleAPIList)

	s.serveFrontend()
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{"status": "ok", "views": s.views.Len()}
	if _, disabled := s.notifier.(alert.Nop); disabled {
		resp["alert"] = fiber.Map{"status": "disabled"}
		return c.Status(http.StatusOK).JSON(resp)
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()
	if err := s.notifier.Ping(ctx); err != nil {
		resp["alert"] = fiber.Map{"status": "degraded", "error": err.Error()}
	} else {
		resp["alert"] = fiber.Map{"status": "up"}
	}
	return c.Status(http.StatusOK).JSON(resp)
}

func (s *Server) handleThemeToggle(c *fiber.Ctx) error {
	if _, err := s.theme.Toggle(c.UserContext()); err != nil {
		s.log.Warn("theme not saved", zap.Error(err))
	}
	back := c.Get(fiber.HeaderReferer)
	if back == "" || !sameOrigin(c, back) {
		back = "/"
	}
	return c.Redirect(back, http.StatusSeeOther)
}

// page renders a full page with the shared layout.
func (s *Server) page(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	data["Theme"] = s.theme.Current()
	if _, ok := data["Title"]; !ok {
		data["Title"] = "Contact"
	}
	return c.Status(status).Render(name, data, layoutMain)
}

func (s *Server) serveFrontend() {
	dir := strings.TrimSpace(s.cfg.Frontend.Dir)
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return
	}
	s.app.Static("/static", dir, fiber.Static{
		Compress: true,
	})
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}
		log.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		)
		return err
	}
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		} else {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(code).JSON(model.Error(http.StatusText(code)))
		}
		return c.Status(code).SendString(http.StatusText(code))
	}
}

func sameOrigin(c *fiber.Ctx, ref string) bool {
	return strings.HasPrefix(ref, c.BaseURL()+"/")
}
