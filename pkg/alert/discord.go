package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Discord sends notifications via Discord webhook.
type Discord struct {
	client     *http.Client
	webhookURL string
}

// NewDiscord creates a new Discord notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		client:     &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *Notification) error {
	var links []string
	for _, l := range n.Links {
		links = append(links, fmt.Sprintf("• [%s](%s) [%s]", l.Title, l.URL, l.Source))
	}

	embed := map[string]any{
		"title": fmt.Sprintf("🚀 %s %s", n.Topic, n.Ticker),
		"description": fmt.Sprintf("**%s** | **Score:** %d | **Velocity:** %d\n**Sources:** %s\n\n%s",
			n.Label, n.LaunchScore, n.Velocity, strings.Join(n.Sources, ", "), strings.Join(links, "\n")),
		"color":     0xDC2626,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"footer":    map[string]any{"text": n.Category + " | " + strconv.Itoa(len(n.Sources)) + " sources"},
	}

	payload := map[string]any{
		"embeds": []map[string]any{embed},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}

	return nil
}
