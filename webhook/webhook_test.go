package webhook

import (
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// capture records deliveries to an httptest endpoint.
type capture struct {
	mu     sync.Mutex
	bodies [][]byte
	sigs   []string
	types  []string
}

func (c *capture) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, body)
		c.sigs = append(c.sigs, r.Header.Get("X-Reelscout-Signature"))
		c.types = append(c.types, r.Header.Get("X-Reelscout-Event"))
		c.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *capture) waitFor(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		got := len(c.bodies)
		c.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d deliveries", n)
}

func TestRegisterListUnregister(t *testing.T) {
	m := NewManager("", time.Second, 0)

	reg := m.Register("http://example.test/hook", []string{EventScrapeCompleted})
	if reg.ID == "" {
		t.Fatal("registration has no ID")
	}
	if got := m.List(); len(got) != 1 || got[0].URL != "http://example.test/hook" {
		t.Errorf("List = %+v", got)
	}
	if !m.Unregister(reg.ID) {
		t.Error("Unregister returned false for an existing hook")
	}
	if m.Unregister(reg.ID) {
		t.Error("Unregister returned true for a removed hook")
	}
	if got := m.List(); len(got) != 0 {
		t.Errorf("List after Unregister = %+v", got)
	}
}

func TestNotifyDeliversSignedEvent(t *testing.T) {
	rec := &capture{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	m := NewManager("topsecret", time.Second, 0)
	m.Register(srv.URL, nil)

	m.Notify(EventScrapeCompleted, "alice", map[string]string{"detail": "ok"})
	rec.waitFor(t, 1)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.types[0] != EventScrapeCompleted {
		t.Errorf("event header = %q", rec.types[0])
	}
	if want := Sign("topsecret", rec.bodies[0]); !hmac.Equal([]byte(rec.sigs[0]), []byte(want)) {
		t.Errorf("signature = %q, want %q", rec.sigs[0], want)
	}

	var ev Event
	if err := json.Unmarshal(rec.bodies[0], &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev.Subject != "alice" || ev.Type != EventScrapeCompleted || ev.ID == "" {
		t.Errorf("event = %+v", ev)
	}
}

func TestNotifyRespectsEventFilter(t *testing.T) {
	rec := &capture{}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	m := NewManager("", time.Second, 0)
	m.Register(srv.URL, []string{EventSnapshotChanged})

	m.Notify(EventScrapeCompleted, "alice", nil)
	m.Notify(EventSnapshotChanged, "alice", nil)
	rec.waitFor(t, 1)

	// Give a stray scrape.completed delivery a moment to show up.
	time.Sleep(50 * time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.bodies) != 1 || rec.types[0] != EventSnapshotChanged {
		t.Errorf("deliveries = %v, want only snapshot.changed", rec.types)
	}
}
