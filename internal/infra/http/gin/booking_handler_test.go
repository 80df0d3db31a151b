package ginserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authsvc "villabook/internal/app/services/auth"
	bookingsvc "villabook/internal/app/services/booking"
	calendarsvc "villabook/internal/app/services/calendar"
	domainbooking "villabook/internal/domain/booking"
	domainuser "villabook/internal/domain/user"
	"villabook/internal/infra/config"
	"villabook/internal/infra/obs"
	"villabook/internal/infra/storage/memory"
)

type bookingServerFixture struct {
	handler  http.Handler
	auth     *authsvc.Service
	bookings *memory.BookingRepository
}

func newBookingServerFixture(t *testing.T) *bookingServerFixture {
	t.Helper()
	houses := memory.NewHouseRepository()
	bookings := memory.NewBookingRepository()
	events := memory.NewOutbox()

	authService := &authsvc.Service{
		Users:     memory.NewUserRepository(),
		Sessions:  memory.NewSessionStore(),
		JWTSecret: []byte("handler-test-secret"),
	}
	calendarService := &calendarsvc.Service{Houses: houses, Outbox: events}
	bookingService := &bookingsvc.Service{
		Bookings: bookings,
		Calendar: calendarService,
		Outbox:   events,
	}

	srv := NewServer(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:        BookingHandler{Service: bookingService},
		AuthMiddleware: AuthMiddleware{Service: authService}.Handle,
		AdminRequired:  RequireAdmin,
	})
	return &bookingServerFixture{handler: srv.Handler, auth: authService, bookings: bookings}
}

func (f *bookingServerFixture) post(body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

const createBookingBody = `{
	"villaId": "v1",
	"villaName": "Baan Talay",
	"villaCode": "A1",
	"checkIn": "2026-01-10",
	"checkOut": "2026-01-12",
	"nights": 2,
	"guests": 2,
	"totalPrice": 9000,
	"userName": "Walk In",
	"userPhone": "0812345678"
}`

func TestCreateBookingRejectsAnonymous(t *testing.T) {
	f := newBookingServerFixture(t)

	rec := f.post(createBookingBody, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	stored, err := f.bookings.List(context.Background(), domainbooking.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCreateBookingWithGuestToken(t *testing.T) {
	f := newBookingServerFixture(t)
	user, token, err := f.auth.LineLogin(context.Background(), domainuser.LineProfile{
		UserID:      "U1234567890",
		DisplayName: "Mali",
	})
	require.NoError(t, err)

	rec := f.post(createBookingBody, token)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Booking struct {
			ID         string `json:"id"`
			UserID     string `json:"userId"`
			UserLineID string `json:"userLineId"`
			Status     string `json:"status"`
		} `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(user.ID), resp.Booking.UserID)
	assert.Equal(t, "U1234567890", resp.Booking.UserLineID)
	assert.Equal(t, "pending", resp.Booking.Status)
}

func TestCreateBookingWithAdminSession(t *testing.T) {
	f := newBookingServerFixture(t)
	session := authsvc.AdminSession{
		Token:     "admin-session-token",
		Username:  "admin",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, f.auth.Sessions.Save(context.Background(), session))

	rec := f.post(createBookingBody, session.Token)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Booking struct {
			UserID   string `json:"userId"`
			UserName string `json:"userName"`
		} `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Booking.UserID)
	assert.Equal(t, "Walk In", resp.Booking.UserName)
}
