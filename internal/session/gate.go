// Package session decides which page a request sees based on its sign-in state.
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Status is the resolved sign-in state of a request.
type Status int

const (
	// StatusUnresolved means the auth service could not answer in time.
	StatusUnresolved Status = iota
	StatusSignedIn
	StatusSignedOut
)

func (s Status) String() string {
	switch s {
	case StatusSignedIn:
		return "signed-in"
	case StatusSignedOut:
		return "signed-out"
	default:
		return "unresolved"
	}
}

// Route is the page a resolution leads to.
type Route int

const (
	RouteLoading Route = iota
	RouteDashboard
	RoutePublic
)

// Resolution carries the status and, when signed in, the claims.
type Resolution struct {
	Status Status
	Claims *Claims
}

// Gate resolves sessions through an Authenticator.
type Gate struct {
	auth    Authenticator
	timeout time.Duration
	log     *zap.Logger
}

// NewGate builds a gate that waits at most timeout for the auth service.
func NewGate(auth Authenticator, timeout time.Duration, log *zap.Logger) *Gate {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Gate{auth: auth, timeout: timeout, log: log.Named("session")}
}

// Resolve asks the auth service about token.
func (g *Gate) Resolve(ctx context.Context, token string) Resolution {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	claims, err := g.auth.Validate(ctx, token)
	switch {
	case err == nil:
		return Resolution{Status: StatusSignedIn, Claims: claims}
	case errors.Is(err, ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		g.log.Warn("session unresolved", zap.Error(err))
		return Resolution{Status: StatusUnresolved}
	default:
		if !errors.Is(err, ErrNoSession) {
			g.log.Debug("session rejected", zap.Error(err))
		}
		return Resolution{Status: StatusSignedOut}
	}
}

// Route maps a resolution to the page to render.
func (g *Gate) Route(res Resolution) Route {
	switch res.Status {
	case StatusSignedIn:
		return RouteDashboard
	case StatusSignedOut:
		return RoutePublic
	default:
		return RouteLoading
	}
}

// SignOut ends the session. Failures are logged and otherwise ignored.
func (g *Gate) SignOut(ctx context.Context, token string) {
	if err := g.auth.SignOut(ctx, token); err != nil {
		g.log.Error("sign out failed", zap.Error(err))
	}
}
