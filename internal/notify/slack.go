// internal/notify/slack.go
package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// SlackSink posts alert events to a Slack incoming webhook.
type SlackSink struct {
	webhookURL string
	channel    string
	client     *http.Client
}

// NewSlackSink creates a Slack sink. channel may be empty to use the
// webhook's default. client may be nil.
func NewSlackSink(webhookURL, channel string, client *http.Client) *SlackSink {
	if client == nil {
		client = &http.Client{}
	}
	return &SlackSink{webhookURL: webhookURL, channel: channel, client: client}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Send(ctx context.Context, e Event) error {
	if !e.Kind.Alert() {
		return nil
	}

	msg := &slack.WebhookMessage{
		Channel: s.channel,
		Text:    fmt.Sprintf("%s %s", slackIcon(e.Kind), e.Summary()),
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.client, msg); err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	return nil
}

func slackIcon(k EventKind) string {
	switch k {
	case KindRecoveredToHealthy:
		return ":white_check_mark:"
	case KindRecoveryEscalated:
		return ":rotating_light:"
	case KindRecoveryFailed:
		return ":x:"
	case KindRecoveryTriggered:
		return ":arrows_counterclockwise:"
	default:
		return ":warning:"
	}
}
