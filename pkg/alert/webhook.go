package alert

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	// EventTopicLaunch is posted when a topic crosses the alert threshold.
	EventTopicLaunch = "topic.launch"

	webhookVersion = 1
)

// Webhook delivery headers.
const (
	HeaderEvent     = "X-Pulse-Event"
	HeaderDelivery  = "X-Pulse-Delivery"
	HeaderTimestamp = "X-Pulse-Timestamp"
	HeaderSignature = "X-Pulse-Signature"
)

// WebhookEvent is the body posted to generic webhook endpoints.
type WebhookEvent struct {
	Event      string        `json:"event"`
	Version    int           `json:"version"`
	DeliveryID string        `json:"deliveryId"`
	SentAt     string        `json:"sentAt"`
	RunID      string        `json:"runId,omitempty"`
	Topic      *Notification `json:"topic"`
}

// Webhook posts launch events to a generic HTTP endpoint.
type Webhook struct {
	client    *http.Client
	url       string
	secret    string
	userAgent string
	now       func() time.Time
}

// NewWebhook creates a new generic webhook notifier. When secret is set every
// delivery carries a signature over its timestamp and body.
func NewWebhook(url, secret, userAgent string) *Webhook {
	if userAgent == "" {
		userAgent = "pulse/1.0"
	}
	return &Webhook{
		client:    &http.Client{Timeout: 10 * time.Second},
		url:       url,
		secret:    secret,
		userAgent: userAgent,
		now:       time.Now,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, n *Notification) error {
	sentAt := w.now().UTC()
	event := WebhookEvent{
		Event:      EventTopicLaunch,
		Version:    webhookVersion,
		DeliveryID: uuid.NewString(),
		SentAt:     sentAt.Format(time.RFC3339),
		RunID:      n.RunID,
		Topic:      n,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal webhook event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	ts := strconv.FormatInt(sentAt.Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set(HeaderEvent, event.Event)
	req.Header.Set(HeaderDelivery, event.DeliveryID)
	req.Header.Set(HeaderTimestamp, ts)
	if w.secret != "" {
		req.Header.Set(HeaderSignature, Sign(w.secret, ts, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook %s: %w", event.DeliveryID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s status %d", event.DeliveryID, resp.StatusCode)
	}
	return nil
}

// Sign returns the signature header value for a delivery: HMAC-SHA256 over
// "<timestamp>.<body>", hex encoded and prefixed with "sha256=".
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches the delivery, for
// receivers written in Go.
func VerifySignature(secret, timestamp string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, timestamp, body)), []byte(signature))
}
