package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/config"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/crypto"
	"github.com/ajithkumarpatel/ADMIN-PORTAL/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned by Authenticate on a bad username or password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNoSession means the request carried no token.
	ErrNoSession = errors.New("no session")
	// ErrInvalidToken means the token is malformed, forged or expired.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrRevoked means the session was signed out.
	ErrRevoked = errors.New("session signed out")
	// ErrUnavailable means the revocation list could not be consulted.
	ErrUnavailable = errors.New("auth service unavailable")
)

// Authenticator is the auth service as seen by the session gate.
type Authenticator interface {
	Validate(ctx context.Context, token string) (*Claims, error)
	SignOut(ctx context.Context, token string) error
}

// Claims represents JWT payload.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService handles admin authentication and JWT issuance. Signed-out
// token ids are kept in the store until the token would have expired.
type AuthService struct {
	enabled     bool
	username    string
	password    string
	secret      []byte
	ttl         time.Duration
	revocations storage.RevocationStore
	now         func() time.Time
}

// NewAuthService builds AuthService from config. Without a configured
// secret a random one is generated, so sessions do not survive a restart.
func NewAuthService(cfg *config.Config, revocations storage.RevocationStore, log *zap.Logger) (*AuthService, error) {
	authCfg := cfg.Auth
	username := strings.TrimSpace(authCfg.Username)
	if username == "" {
		username = "admin"
	}
	password := strings.TrimSpace(authCfg.Password)
	if password == "" {
		password = "admin123"
	}
	secret := strings.TrimSpace(authCfg.JWTSecret)
	if secret == "" {
		generated, err := crypto.GenerateString(48)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		secret = generated
		log.Named("auth").Warn("auth.jwt_secret not set, using a random secret for this process")
	}
	ttl := authCfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthService{
		enabled:     authCfg.Enabled,
		username:    username,
		password:    password,
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
		now:         time.Now,
	}, nil
}

// Enabled reports whether authentication is enforced.
func (a *AuthService) Enabled() bool {
	return a != nil && a.enabled
}

// Username returns configured admin username.
func (a *AuthService) Username() string {
	if a == nil {
		return ""
	}
	return a.username
}

// TTL is the lifetime of issued tokens.
func (a *AuthService) TTL() time.Duration {
	return a.ttl
}

// Authenticate validates user credentials and returns a signed JWT.
func (a *AuthService) Authenticate(username, password string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}
	if !a.matchUsername(username) || !a.matchPassword(password) {
		return "", ErrInvalidCredentials
	}
	now := a.now()
	claims := Claims{
		Username: a.username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a token and returns its claims if it is valid and not
// signed out.
func (a *AuthService) Validate(ctx context.Context, token string) (*Claims, error) {
	if !a.Enabled() {
		return &Claims{Username: "anonymous"}, nil
	}
	if token == "" {
		return nil, ErrNoSession
	}
	claims, err := a.parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := a.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// SignOut revokes the token until its expiry. Invalid tokens are ignored.
func (a *AuthService) SignOut(ctx context.Context, token string) error {
	if !a.Enabled() || token == "" {
		return nil
	}
	claims, err := a.parse(token)
	if err != nil {
		return nil
	}
	until := a.now().Add(a.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := a.revocations.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (a *AuthService) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (a *AuthService) matchUsername(input string) bool {
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(input)), []byte(a.username)) == 1
}

func (a *AuthService) matchPassword(input string) bool {
	if strings.HasPrefix(a.password, "$2a$") || strings.HasPrefix(a.password, "$2b$") || strings.HasPrefix(a.password, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(a.password), []byte(input)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(input), []byte(a.password)) == 1
}
