package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hopper/internal/config"
)

const userAgent = "Hopper-Go/0.1.0"

// Event identifies a notifiable lifecycle moment.
type Event string

const (
	EventQueueStarted   Event = "queue_started"
	EventQueueCompleted Event = "queue_completed"
	EventEncodeFailed   Event = "encode_failed"
	EventError          Event = "error"
)

// Payload carries event-specific values keyed by name.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:       topic,
		client:         &http.Client{Timeout: timeout},
		queueStarted:   cfg.Notifications.QueueStarted,
		queueCompleted: cfg.Notifications.QueueCompleted,
		errors:         cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint       string
	client         *http.Client
	queueStarted   bool
	queueCompleted bool
	errors         bool
}

// Publish formats the event as an ntfy message and posts it. Events whose
// toggle is off in config are dropped without error.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	switch event {
	case EventQueueStarted:
		if !n.queueStarted {
			return nil
		}
		return n.send(ctx, message{
			title: "Hopper - Queue Started",
			body:  fmt.Sprintf("Started processing queue with %d videos", payload.intValue("count")),
			tags:  []string{"hopper", "queue", "started"},
		})
	case EventQueueCompleted:
		if !n.queueCompleted {
			return nil
		}
		return n.send(ctx, queueCompletedMessage(payload))
	case EventEncodeFailed:
		if !n.errors {
			return nil
		}
		label := payload.stringValue("title")
		if label == "" {
			label = payload.stringValue("source")
		}
		reason := payload.stringValue("reason")
		if reason == "" {
			reason = "unknown"
		}
		return n.send(ctx, message{
			title:    "Hopper - Encode Failed",
			body:     fmt.Sprintf("❌ Encode failed: %s: %s", label, reason),
			tags:     []string{"hopper", "encode", "failed"},
			priority: "high",
		})
	case EventError:
		if !n.errors {
			return nil
		}
		return n.send(ctx, errorMessage(payload))
	default:
		return nil
	}
}

func queueCompletedMessage(payload Payload) message {
	processed := payload.intValue("processed")
	failed := payload.intValue("failed")
	duration := payload.durationValue("duration").Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	if failed == 0 {
		return message{
			title: "Hopper - Queue Complete",
			body:  fmt.Sprintf("Queue processing complete: %d videos processed in %s", processed, durationText),
			tags:  []string{"hopper", "queue", "completed"},
		}
	}
	return message{
		title: "Hopper - Queue Complete (with errors)",
		body:  fmt.Sprintf("Queue processing complete: %d succeeded, %d failed in %s", processed, failed, durationText),
		tags:  []string{"hopper", "queue", "completed"},
	}
}

func errorMessage(payload Payload) message {
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel := payload.stringValue("context"); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if errText := payload.stringValue("error"); errText != "" {
		builder.WriteString(errText)
	} else {
		builder.WriteString("unknown")
	}
	return message{
		title:    "Hopper - Error",
		body:     builder.String(),
		tags:     []string{"hopper", "error", "alert"},
		priority: "high",
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p Payload) stringValue(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case error:
		if v != nil {
			return strings.TrimSpace(v.Error())
		}
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return ""
}

func (p Payload) intValue(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func (p Payload) durationValue(key string) time.Duration {
	if v, ok := p[key].(time.Duration); ok {
		return v
	}
	return 0
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
