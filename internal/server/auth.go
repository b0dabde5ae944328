package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/model"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/session"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	localsClaims = "claims"
	anonymousID  = "anonymous"
	loadingDelay = 1
)

func (s *Server) handleHome(c *fiber.Ctx) error {
	res := s.gate.Resolve(c.UserContext(), s.sessionToken(c))
	switch s.gate.Route(res) {
	case session.RouteDashboard:
		return c.Redirect("/admin", http.StatusSeeOther)
	case session.RoutePublic:
		return s.renderPublic(c, http.StatusOK, nil)
	default:
		return s.renderLoading(c)
	}
}

func (s *Server) handleLoginPage(c *fiber.Ctx) error {
	if !s.authSvc.Enabled() {
		return c.Redirect("/admin", http.StatusSeeOther)
	}
	res := s.gate.Resolve(c.UserContext(), s.sessionToken(c))
	if res.Status == session.StatusSignedIn {
		return c.Redirect("/admin", http.StatusSeeOther)
	}
	return s.page(c, http.StatusOK, "login", fiber.Map{"Title": "Admin Login"})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `form:"username" json:"username"`
		Password string `form:"password" json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if !s.authSvc.Enabled() {
		return c.Redirect("/admin", http.StatusSeeOther)
	}
	token, err := s.authSvc.Authenticate(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, session.ErrInvalidCredentials) {
			s.log.Error("login failed", zap.Error(err))
		}
		return s.page(c, http.StatusUnauthorized, "login", fiber.Map{
			"Title": "Admin Login",
			"Error": "Invalid username or password.",
		})
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cfg.Auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.authSvc.TTL()),
		HTTPOnly: true,
		Secure:   s.cfg.Auth.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/admin", http.StatusSeeOther)
}

// handleLogout signs out and always lands on the home page; a failed sign
// out is only logged.
func (s *Server) handleLogout(c *fiber.Ctx) error {
	token := s.sessionToken(c)
	res := s.gate.Resolve(c.UserContext(), token)
	if res.Status == session.StatusSignedIn {
		s.views.Drop(viewID(res.Claims))
	}
	s.gate.SignOut(c.UserContext(), token)
	c.ClearCookie(s.cfg.Auth.CookieName)
	return c.Redirect("/", http.StatusSeeOther)
}

// requireSession lets signed-in requests through. Others are sent to the
// login page, or shown the loading page while the session is unresolved.
func (s *Server) requireSession(c *fiber.Ctx) error {
	res := s.gate.Resolve(c.UserContext(), s.sessionToken(c))
	api := strings.HasPrefix(c.Path(), "/api/")
	switch s.gate.Route(res) {
	case session.RouteDashboard:
		c.Locals(localsClaims, res.Claims)
		return c.Next()
	case session.RoutePublic:
		if api {
			return c.Status(http.StatusUnauthorized).JSON(model.ErrorWithCode(model.NoSessionCode, "not signed in"))
		}
		return c.Redirect("/login", http.StatusSeeOther)
	default:
		if api {
			return c.Status(http.StatusServiceUnavailable).JSON(model.ErrorWithCode(model.UnresolvedCode, "session could not be verified"))
		}
		return s.renderLoading(c)
	}
}

func (s *Server) renderLoading(c *fiber.Ctx) error {
	return s.page(c, http.StatusServiceUnavailable, "loading", fiber.Map{"Refresh": loadingDelay})
}

// sessionToken reads the session cookie, falling back to a bearer token.
func (s *Server) sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(s.cfg.Auth.CookieName); token != "" {
		return token
	}
	return extractBearerToken(c.Get(fiber.HeaderAuthorization))
}

func (s *Server) claims(c *fiber.Ctx) *session.Claims {
	claims, _ := c.Locals(localsClaims).(*session.Claims)
	return claims
}

func viewID(claims *session.Claims) string {
	if claims == nil || claims.ID == "" {
		return anonymousID
	}
	return claims.ID
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
