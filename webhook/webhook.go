// Package webhook delivers scrape lifecycle events to registered HTTP
// endpoints, signing each payload so receivers can verify origin.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the scrape pipeline.
const (
	EventScrapeCompleted = "scrape.completed"
	EventScrapeFailed    = "scrape.failed"
	EventSnapshotChanged = "snapshot.changed"
	EventBatchCompleted  = "batch.completed"
)

// Event is one lifecycle notification.
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Subject   string `json:"subject"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// Registration is one subscribed endpoint. An empty Events list
// subscribes to everything.
type Registration struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r Registration) wants(eventType string) bool {
	if len(r.Events) == 0 {
		return true
	}
	for _, e := range r.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// Manager holds endpoint registrations and fans events out to them.
type Manager struct {
	mu      sync.RWMutex
	hooks   map[string]Registration
	secret  string
	client  *http.Client
	retries int
}

// NewManager creates a Manager. secret signs outgoing payloads; an
// empty secret disables signing.
func NewManager(secret string, timeout time.Duration, retries int) *Manager {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Manager{
		hooks:   make(map[string]Registration),
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

// Register subscribes an endpoint and returns its registration.
func (m *Manager) Register(url string, events []string) Registration {
	reg := Registration{
		ID:        uuid.NewString(),
		URL:       url,
		Events:    events,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.hooks[reg.ID] = reg
	m.mu.Unlock()
	return reg
}

// Unregister removes a registration, reporting whether it existed.
func (m *Manager) Unregister(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hooks[id]; !ok {
		return false
	}
	delete(m.hooks, id)
	return true
}

// List returns all registrations.
func (m *Manager) List() []Registration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Registration, 0, len(m.hooks))
	for _, reg := range m.hooks {
		out = append(out, reg)
	}
	return out
}

// Notify delivers an event to every matching registration. Delivery is
// asynchronous; scrapes never block on a slow receiver.
func (m *Manager) Notify(eventType, subject string, data any) {
	m.mu.RLock()
	var targets []Registration
	for _, reg := range m.hooks {
		if reg.wants(eventType) {
			targets = append(targets, reg)
		}
	}
	m.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	for _, reg := range targets {
		go m.deliverWithRetry(reg, event)
	}
}

func (m *Manager) deliverWithRetry(reg Registration, event Event) {
	var lastErr error
	for attempt := 0; attempt <= m.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 2 * time.Second)
		}
		if lastErr = m.deliver(reg, event); lastErr == nil {
			return
		}
	}
	slog.Warn("webhook delivery failed",
		"webhook_id", reg.ID, "url", reg.URL, "event", event.Type, "error", lastErr)
}

func (m *Manager) deliver(reg Registration, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reg.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Reelscout-Event", event.Type)
	req.Header.Set("X-Reelscout-Delivery", event.ID)
	if m.secret != "" {
		req.Header.Set("X-Reelscout-Signature", Sign(m.secret, payload))
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of payload under secret. Receivers
// recompute it to verify the delivery.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
