package line

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"villabook/internal/app/policies"
	"villabook/internal/domain/booking"
)

func testBooking() *booking.Booking {
	return &booking.Booking{
		ID:         "bk-1",
		VillaName:  "Baan Talay",
		CheckIn:    "2026-04-10",
		CheckOut:   "2026-04-13",
		Nights:     3,
		Guests:     2,
		TotalPrice: 13500,
	}
}

func TestPushBookingReceived(t *testing.T) {
	var captured struct {
		To       string `json:"to"`
		Messages []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("x-line-request-id", "req-42")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), ChannelToken: "token-1", PushURL: srv.URL}
	res := c.PushBookingReceived(context.Background(), "U123", testBooking())

	assert.True(t, res.Success)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "req-42", res.RequestID)

	assert.Equal(t, "U123", captured.To)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "text", captured.Messages[0].Type)
	assert.Contains(t, captured.Messages[0].Text, "Baan Talay")
	assert.Contains(t, captured.Messages[0].Text, "2026-04-10")
	assert.Contains(t, captured.Messages[0].Text, "฿13,500")
}

func TestPushReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-line-request-id", "req-err")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid user"}`))
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), ChannelToken: "token-1", PushURL: srv.URL}
	res := c.PushStatusUpdate(context.Background(), "U123", testBooking(), booking.StatusConfirmed)

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "req-err", res.RequestID)
	assert.Contains(t, res.Error, "status 400")
}

func TestPushWithoutConfiguration(t *testing.T) {
	c := &Client{}
	res := c.PushBookingReceived(context.Background(), "U123", testBooking())
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)

	c = &Client{HTTP: http.DefaultClient}
	res = c.PushBookingReceived(context.Background(), "U123", testBooking())
	assert.Contains(t, res.Error, "channel token")
}

func TestFriendStatus(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   string
	}{
		{"friend", http.StatusOK, policies.FriendStatusFriend},
		{"not friend", http.StatusNotFound, policies.FriendStatusNotFriend},
		{"api error", http.StatusInternalServerError, policies.FriendStatusUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/U123", r.URL.Path)
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := &Client{HTTP: srv.Client(), ChannelToken: "token-1", ProfileURL: srv.URL + "/"}
			assert.Equal(t, tc.want, c.FriendStatus(context.Background(), "U123"))
		})
	}
}

func TestFriendStatusUnknownWithoutClient(t *testing.T) {
	c := &Client{}
	assert.Equal(t, policies.FriendStatusUnknown, c.FriendStatus(context.Background(), "U123"))
}

func TestStatusUpdateTexts(t *testing.T) {
	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Text string `json:"text"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		text = req.Messages[0].Text
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), ChannelToken: "token-1", PushURL: srv.URL}

	c.PushStatusUpdate(context.Background(), "U123", testBooking(), booking.StatusConfirmed)
	assert.Contains(t, text, "ยืนยันการจอง")

	c.PushStatusUpdate(context.Background(), "U123", testBooking(), booking.StatusCancelled)
	assert.Contains(t, text, "ยกเลิก")
}

func TestFormatBaht(t *testing.T) {
	assert.Equal(t, "฿900", formatBaht(900))
	assert.Equal(t, "฿13,500", formatBaht(13500))
	assert.Equal(t, "฿1,250,000", formatBaht(1250000))
}
