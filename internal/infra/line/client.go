package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"villabook/internal/app/policies"
	"villabook/internal/domain/booking"
)

const (
	defaultPushURL    = "https://api.line.me/v2/bot/message/push"
	defaultProfileURL = "https://api.line.me/v2/bot/profile/"
)

// Client talks to the LINE Messaging API. Push returns 200 even when the
// recipient never added the official account, so delivery checks go
// through FriendStatus.
type Client struct {
	HTTP         *http.Client
	ChannelToken string
	PushURL      string
	ProfileURL   string
	Logger       *slog.Logger
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []textMessage `json:"messages"`
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *Client) FriendStatus(ctx context.Context, lineID string) string {
	if c == nil || c.HTTP == nil || c.ChannelToken == "" || lineID == "" {
		return policies.FriendStatusUnknown
	}
	url := c.ProfileURL
	if url == "" {
		url = defaultProfileURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+lineID, nil)
	if err != nil {
		return policies.FriendStatusUnknown
	}
	req.Header.Set("Authorization", "Bearer "+c.ChannelToken)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logError("line profile check failed", lineID, err)
		return policies.FriendStatusUnknown
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	switch {
	case resp.StatusCode == http.StatusOK:
		return policies.FriendStatusFriend
	case resp.StatusCode == http.StatusNotFound:
		if c.Logger != nil {
			c.Logger.Warn("user is not a friend of the official account", "line_id", lineID)
		}
		return policies.FriendStatusNotFriend
	default:
		return policies.FriendStatusUnknown
	}
}

func (c *Client) PushBookingReceived(ctx context.Context, lineID string, b *booking.Booking) policies.DeliveryResult {
	lines := []string{
		"✅ ได้รับการจองเรียบร้อยแล้ว",
		"",
		"🏠 " + b.VillaName,
		"📅 เช็คอิน: " + b.CheckIn,
		"📅 เช็คเอาท์: " + b.CheckOut,
		fmt.Sprintf("🌙 จำนวน %d คืน", b.Nights),
		fmt.Sprintf("👥 ผู้เข้าพัก %d คน", b.Guests),
		"💰 ราคารวม: " + formatBaht(b.TotalPrice),
		"",
		"📌 สถานะ: รอชำระเงิน",
		"กรุณาชำระเงินเพื่อยืนยันการจอง",
		"เจ้าหน้าที่จะติดต่อกลับเร็วที่สุด",
	}
	return c.push(ctx, lineID, strings.Join(lines, "\n"))
}

func (c *Client) PushStatusUpdate(ctx context.Context, lineID string, b *booking.Booking, status booking.Status) policies.DeliveryResult {
	var head, detail string
	if status == booking.StatusConfirmed {
		head = "✅ ยืนยันการจองแล้ว"
		detail = "การจองของคุณได้รับการยืนยันเรียบร้อยแล้ว ขอบคุณที่ใช้บริการ"
	} else {
		head = "❌ การจองถูกยกเลิก"
		detail = "การจองของคุณถูกยกเลิก หากมีข้อสงสัยกรุณาติดต่อเจ้าหน้าที่"
	}
	lines := []string{
		head,
		"",
		"🏠 " + b.VillaName,
		"📅 เช็คอิน: " + b.CheckIn,
		"📅 เช็คเอาท์: " + b.CheckOut,
		fmt.Sprintf("🌙 จำนวน %d คืน", b.Nights),
		"",
		detail,
	}
	return c.push(ctx, lineID, strings.Join(lines, "\n"))
}

func (c *Client) push(ctx context.Context, lineID, text string) policies.DeliveryResult {
	if c == nil || c.HTTP == nil {
		return policies.DeliveryResult{Error: "line: http client not configured"}
	}
	if c.ChannelToken == "" {
		return policies.DeliveryResult{Error: "line: channel token not configured"}
	}
	if lineID == "" {
		return policies.DeliveryResult{Error: "line: recipient missing"}
	}

	body, err := json.Marshal(pushRequest{
		To:       lineID,
		Messages: []textMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return policies.DeliveryResult{Error: err.Error()}
	}
	url := c.PushURL
	if url == "" {
		url = defaultPushURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return policies.DeliveryResult{Error: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.ChannelToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logError("line push request failed", lineID, err)
		return policies.DeliveryResult{Error: err.Error()}
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get("x-line-request-id")
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("line push returned status %d: %s", resp.StatusCode, string(snippet))
		c.logError("line push rejected", lineID, err)
		return policies.DeliveryResult{
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			Error:      err.Error(),
		}
	}
	io.Copy(io.Discard, resp.Body)
	return policies.DeliveryResult{
		Success:    true,
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
	}
}

func (c *Client) logError(msg, lineID string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "line_id", lineID, "error", err)
}

func formatBaht(amount int64) string {
	digits := fmt.Sprintf("%d", amount)
	var sb strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return "฿" + sb.String()
}

var _ policies.Notifier = (*Client)(nil)
