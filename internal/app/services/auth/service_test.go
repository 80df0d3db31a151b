package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/app/services/auth"
	domainuser "villabook/internal/domain/user"
	"villabook/internal/infra/security"
	"villabook/internal/infra/storage/memory"
)

func newService(t *testing.T) *auth.Service {
	t.Helper()
	hasher := security.BcryptHasher{}
	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	return &auth.Service{
		Users:         memory.NewUserRepository(),
		Sessions:      memory.NewSessionStore(),
		Passwords:     hasher,
		Tokens:        security.RandomTokenGenerator{},
		AdminUsername: "admin",
		AdminPassHash: hash,
		JWTSecret:     []byte("test-secret"),
	}
}

func TestAdminLoginAndResolve(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.AdminLogin(ctx, "admin", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	resolved, err := svc.ResolveAdmin(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", resolved.Username)
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.AdminLogin(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.AdminLogin(ctx, "root", "s3cret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAdminLogoutInvalidatesSession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.AdminLogin(ctx, "admin", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.AdminLogout(ctx, session.Token))

	_, err = svc.ResolveAdmin(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestExpiredSessionIsRejected(t *testing.T) {
	svc := newService(t)
	svc.SessionTTL = -time.Minute
	ctx := context.Background()

	session, err := svc.AdminLogin(ctx, "admin", "s3cret")
	require.NoError(t, err)

	_, err = svc.ResolveAdmin(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestLineLoginIssuesVerifiableToken(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	isFriend := true

	user, token, err := svc.LineLogin(ctx, domainuser.LineProfile{
		UserID:      "U123",
		DisplayName: "Somchai",
		IsFriend:    &isFriend,
	})
	require.NoError(t, err)
	assert.Equal(t, "U123", user.LineID)
	assert.True(t, user.IsFriend)

	claims, err := svc.VerifyGuest(token)
	require.NoError(t, err)
	assert.Equal(t, string(user.ID), claims.UserID)
	assert.Equal(t, "U123", claims.LineID)
	assert.Equal(t, "Somchai", claims.DisplayName)
}

func TestLineLoginUpsertsExistingUser(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, _, err := svc.LineLogin(ctx, domainuser.LineProfile{UserID: "U123", DisplayName: "Somchai"})
	require.NoError(t, err)

	second, _, err := svc.LineLogin(ctx, domainuser.LineProfile{UserID: "U123", DisplayName: "Somchai P."})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Somchai P.", second.DisplayName)
}

func TestLineLoginRequiresUserID(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.LineLogin(context.Background(), domainuser.LineProfile{DisplayName: "ghost"})
	assert.ErrorIs(t, err, domainuser.ErrLineIDRequired)
}

func TestVerifyGuestRejectsForeignToken(t *testing.T) {
	svc := newService(t)
	other := newService(t)
	other.JWTSecret = []byte("different-secret")

	_, token, err := other.LineLogin(context.Background(), domainuser.LineProfile{UserID: "U999"})
	require.NoError(t, err)

	_, err = svc.VerifyGuest(token)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)

	_, err = svc.VerifyGuest("not-a-token")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}
