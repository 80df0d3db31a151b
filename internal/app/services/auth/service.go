package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainuser "villabook/internal/domain/user"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrSessionNotFound    = errors.New("auth: session not found")
	ErrTokenInvalid       = errors.New("auth: token invalid")
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// AdminSession is an opaque-token admin login.
type AdminSession struct {
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s AdminSession) Expired(at time.Time) bool {
	return !s.ExpiresAt.After(at.UTC())
}

type SessionStore interface {
	Save(ctx context.Context, session AdminSession) error
	Get(ctx context.Context, token string) (AdminSession, error)
	Delete(ctx context.Context, token string) error
}

// GuestClaims is the signed identity carried by a LINE-login token.
type GuestClaims struct {
	UserID      string `json:"userId"`
	LineID      string `json:"lineId"`
	DisplayName string `json:"displayName"`
	jwt.RegisteredClaims
}

// Service covers both halves of the site's authentication: an
// env-configured admin account with opaque session tokens, and guest
// identities minted from LINE login profiles as signed JWTs.
type Service struct {
	Users         domainuser.Repository
	Sessions      SessionStore
	Passwords     PasswordHasher
	Tokens        TokenGenerator
	AdminUsername string
	AdminPassHash string
	JWTSecret     []byte
	SessionTTL    time.Duration
	GuestTokenTTL time.Duration
	Logger        *slog.Logger
}

func (s *Service) AdminLogin(ctx context.Context, username, password string) (AdminSession, error) {
	username = strings.TrimSpace(username)
	if username == "" || username != s.AdminUsername {
		return AdminSession{}, ErrInvalidCredentials
	}
	if err := s.Passwords.Compare(s.AdminPassHash, password); err != nil {
		return AdminSession{}, ErrInvalidCredentials
	}
	token, err := s.Tokens.NewToken()
	if err != nil {
		return AdminSession{}, err
	}
	now := time.Now().UTC()
	ttl := s.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	session := AdminSession{
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return AdminSession{}, err
	}
	if s.Logger != nil {
		s.Logger.Info("admin logged in", "username", username)
	}
	return session, nil
}

func (s *Service) ResolveAdmin(ctx context.Context, token string) (AdminSession, error) {
	if token == "" {
		return AdminSession{}, ErrSessionNotFound
	}
	session, err := s.Sessions.Get(ctx, token)
	if err != nil {
		return AdminSession{}, err
	}
	if session.Expired(time.Now()) {
		_ = s.Sessions.Delete(ctx, token)
		return AdminSession{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) AdminLogout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, token)
}

// LineLogin upserts the guest from a LINE profile and issues a signed
// guest token.
func (s *Service) LineLogin(ctx context.Context, profile domainuser.LineProfile) (*domainuser.User, string, error) {
	existing, err := s.Users.ByLineID(ctx, profile.UserID)
	if err != nil && !errors.Is(err, domainuser.ErrNotFound) {
		return nil, "", err
	}
	u, err := domainuser.UpsertFromLine(existing, profile, domainuser.ID(uuid.NewString()), time.Now())
	if err != nil {
		return nil, "", err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.issueGuestToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) issueGuestToken(u *domainuser.User) (string, error) {
	ttl := s.GuestTokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	now := time.Now().UTC()
	claims := GuestClaims{
		UserID:      string(u.ID),
		LineID:      u.LineID,
		DisplayName: u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.JWTSecret)
}

// VerifyGuest parses and validates a guest token.
func (s *Service) VerifyGuest(tokenString string) (*GuestClaims, error) {
	claims := &GuestClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
