package alert

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/elonfeng/pulse/internal/metrics"
	"github.com/elonfeng/pulse/pkg/source"
	"github.com/elonfeng/pulse/pkg/trend"
)

const maxLinks = 5

// Notification is the data sent to alert destinations.
type Notification struct {
	Topic       string   `json:"topic"`
	Ticker      string   `json:"ticker"`
	Category    string   `json:"category"`
	LaunchScore int      `json:"launchScore"`
	Label       string   `json:"launchLabel"`
	Velocity    int      `json:"velocity"`
	Sources     []string `json:"sources"`
	Links       []Link   `json:"links,omitempty"`

	// RunID identifies the aggregation that produced the alert.
	RunID string `json:"-"`
}

// Link is an example story or post behind a topic.
type Link struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Summary is a one-line description used by the chat notifiers.
func (n *Notification) Summary() string {
	return fmt.Sprintf("%s %s | score %d | velocity %d | %d sources (%s)",
		n.Label, n.Ticker, n.LaunchScore, n.Velocity, len(n.Sources), n.Category)
}

// FromTopic builds a notification for a scored topic.
func FromTopic(t *trend.Topic) *Notification {
	n := &Notification{
		Topic:       t.Name,
		Ticker:      t.Ticker,
		Category:    t.Category,
		LaunchScore: t.LaunchScore,
		Label:       t.Label.Text,
		Velocity:    t.Velocity,
	}
	for _, id := range source.AllSourceIDs() {
		if t.Sources.Has(id) {
			n.Sources = append(n.Sources, string(id))
		}
	}

	var examples []source.RawItem
	if t.Sources.HackerNews != nil {
		examples = append(examples, t.Sources.HackerNews.Items...)
	}
	if t.Sources.Lemmy != nil {
		examples = append(examples, t.Sources.Lemmy.Items...)
	}
	if t.Sources.Wikipedia != nil {
		examples = append(examples, t.Sources.Wikipedia.Articles...)
	}
	for _, it := range examples {
		if len(n.Links) == maxLinks {
			break
		}
		if it.URL == "" {
			continue
		}
		n.Links = append(n.Links, Link{Title: it.Title, URL: it.URL, Source: string(it.Source)})
	}
	return n
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
	logger    zerolog.Logger
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier, logger zerolog.Logger) *Manager {
	return &Manager{notifiers: notifiers, logger: logger}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		err := notifier.Send(ctx, n)
		metrics.RecordAlert(notifier.Name(), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		m.logger.Debug().Str("notifier", notifier.Name()).Str("topic", n.Topic).Msg("alert delivered")
	}
	return errors.Join(errs...)
}
