package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func (f *fakeRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[id] = until
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	_, ok := f.revoked[id]
	return ok, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.Username = "admin"
	cfg.Auth.Password = "s3cret"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.SessionTTL = time.Hour
	return cfg
}

func newAuth(t *testing.T, cfg *config.Config, rev *fakeRevocations) *AuthService {
	t.Helper()
	auth, err := NewAuthService(cfg, rev, zap.NewNop())
	require.NoError(t, err)
	return auth
}

func TestAuthService(t *testing.T) {
	t.Run("should reject bad credentials", func(t *testing.T) {
		req := require.New(t)
		auth := newAuth(t, testConfig(), &fakeRevocations{})
		_, err := auth.Authenticate("admin", "nope")
		req.ErrorIs(err, ErrInvalidCredentials)
		_, err = auth.Authenticate("root", "s3cret")
		req.ErrorIs(err, ErrInvalidCredentials)
	})

	t.Run("should accept a bcrypt hashed password", func(t *testing.T) {
		req := require.New(t)
		hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
		req.NoError(err)
		cfg := testConfig()
		cfg.Auth.Password = string(hash)
		auth := newAuth(t, cfg, &fakeRevocations{})

		token, err := auth.Authenticate(" admin ", "hunter2")
		req.NoError(err)
		claims, err := auth.Validate(context.Background(), token)
		req.NoError(err)
		req.Equal("admin", claims.Username)
		req.NotEmpty(claims.ID)
	})

	t.Run("should refuse a token after sign out", func(t *testing.T) {
		req := require.New(t)
		rev := &fakeRevocations{}
		auth := newAuth(t, testConfig(), rev)
		token, err := auth.Authenticate("admin", "s3cret")
		req.NoError(err)

		req.NoError(auth.SignOut(context.Background(), token))
		_, err = auth.Validate(context.Background(), token)
		req.ErrorIs(err, ErrRevoked)
		req.Len(rev.revoked, 1)
	})

	t.Run("should refuse expired and forged tokens", func(t *testing.T) {
		req := require.New(t)
		auth := newAuth(t, testConfig(), &fakeRevocations{})
		token, err := auth.Authenticate("admin", "s3cret")
		req.NoError(err)

		auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err = auth.Validate(context.Background(), token)
		req.ErrorIs(err, ErrInvalidToken)

		other := testConfig()
		other.Auth.JWTSecret = "different"
		_, err = newAuth(t, other, &fakeRevocations{}).Validate(context.Background(), token)
		req.ErrorIs(err, ErrInvalidToken)
	})

	t.Run("should report the revocation list being unreachable", func(t *testing.T) {
		req := require.New(t)
		rev := &fakeRevocations{}
		auth := newAuth(t, testConfig(), rev)
		token, err := auth.Authenticate("admin", "s3cret")
		req.NoError(err)

		rev.err = errors.New("disk gone")
		_, err = auth.Validate(context.Background(), token)
		req.ErrorIs(err, ErrUnavailable)
	})

	t.Run("should let everyone in when disabled", func(t *testing.T) {
		req := require.New(t)
		cfg := testConfig()
		cfg.Auth.Enabled = false
		auth := newAuth(t, cfg, &fakeRevocations{})
		claims, err := auth.Validate(context.Background(), "")
		req.NoError(err)
		req.Equal("anonymous", claims.Username)
	})

	t.Run("should generate a secret when none is configured", func(t *testing.T) {
		req := require.New(t)
		cfg := testConfig()
		cfg.Auth.JWTSecret = ""
		auth := newAuth(t, cfg, &fakeRevocations{})
		req.Len(auth.secret, 48)
	})
}

func TestGate(t *testing.T) {
	rev := &fakeRevocations{}
	auth := newAuth(t, testConfig(), rev)
	gate := NewGate(auth, time.Second, zap.NewNop())
	token, err := auth.Authenticate("admin", "s3cret")
	require.NoError(t, err)

	t.Run("should route a valid session to the dashboard", func(t *testing.T) {
		req := require.New(t)
		res := gate.Resolve(context.Background(), token)
		req.Equal(StatusSignedIn, res.Status)
		req.Equal(RouteDashboard, gate.Route(res))
	})

	t.Run("should route a missing or bad session to the public page", func(t *testing.T) {
		req := require.New(t)
		req.Equal(RoutePublic, gate.Route(gate.Resolve(context.Background(), "")))
		req.Equal(RoutePublic, gate.Route(gate.Resolve(context.Background(), "garbage")))
	})

	t.Run("should show loading while the auth service cannot answer", func(t *testing.T) {
		req := require.New(t)
		rev.err = errors.New("timeout")
		defer func() { rev.err = nil }()
		res := gate.Resolve(context.Background(), token)
		req.Equal(StatusUnresolved, res.Status)
		req.Equal(RouteLoading, gate.Route(res))
	})

	t.Run("should swallow sign out failures", func(t *testing.T) {
		req := require.New(t)
		rev.err = errors.New("read only")
		gate.SignOut(context.Background(), token)
		rev.err = nil
		req.Equal(StatusSignedIn, gate.Resolve(context.Background(), token).Status)

		gate.SignOut(context.Background(), token)
		req.Equal(StatusSignedOut, gate.Resolve(context.Background(), token).Status)
	})
}
