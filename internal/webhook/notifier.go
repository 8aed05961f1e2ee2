package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	URL         string
	Secret      string
	Timeout     time.Duration
	MaxAttempts int
	// BaseDelay is doubled after every failed attempt
	BaseDelay time.Duration
}

func DefaultConfig(url, secret string) Config {
	return Config{
		URL:         url,
		Secret:      secret,
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Notifier posts signed authentication events to a single endpoint
type Notifier struct {
	cfg     Config
	client  *http.Client
	logger  *slog.Logger
	station string
	now     func() time.Time
}

func NewNotifier(cfg Config, logger *slog.Logger) *Notifier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	station, _ := os.Hostname()

	return &Notifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:  logger.With("component", "webhook"),
		station: station,
		now:     time.Now,
	}
}

// Authenticated delivers an authentication event for identity. Its signature
// matches the session's post-authentication hook.
func (n *Notifier) Authenticated(ctx context.Context, identity string) error {
	return n.Send(ctx, Event{
		ID:        uuid.NewString(),
		Type:      EventAuthenticated,
		Identity:  identity,
		Station:   n.station,
		Timestamp: n.now().UTC(),
	})
}

// Send delivers event, retrying failed attempts with exponential backoff
func (n *Notifier) Send(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < n.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := n.cfg.BaseDelay * time.Duration(1<<(attempt-1))
			n.logger.Info("webhook delivery scheduled for retry",
				"event_id", event.ID,
				"attempts", attempt,
				"delay", delay,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = n.deliver(ctx, event.Type, payload)
		if lastErr == nil {
			n.logger.Info("webhook delivered", "event_id", event.ID, "type", event.Type)
			return nil
		}
	}

	n.logger.Warn("webhook delivery failed", "event_id", event.ID, "error", lastErr)
	return fmt.Errorf("deliver webhook after %d attempts: %w", n.cfg.MaxAttempts, lastErr)
}

func (n *Notifier) deliver(ctx context.Context, eventType string, payload []byte) error {
	timestamp := n.now().Unix()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, Sign(n.cfg.Secret, timestamp, payload))
	req.Header.Set(TimestampHeader, strconv.FormatInt(timestamp, 10))
	req.Header.Set(EventHeader, eventType)
	req.Header.Set("User-Agent", "Facegate-Webhook/1.0")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil
}
