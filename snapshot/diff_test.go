package snapshot

import (
	"encoding/json"
	"testing"
	"time"
)

func snap(t *testing.T, subject string, payload any) *Snapshot {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &Snapshot{SubjectID: subject, Timestamp: time.Now().UTC(), Payload: raw}
}

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	payload := map[string]any{
		"name":      "alice",
		"watchlist": []string{"dune", "heat"},
	}
	d, err := Diff(snap(t, "alice", payload), snap(t, "alice", payload))
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.HasChanges {
		t.Errorf("HasChanges = true for identical payloads: %+v", d)
	}
}

func TestDiffListMembership(t *testing.T) {
	oldS := snap(t, "alice", map[string]any{"watchlist": []string{"a", "b"}})
	newS := snap(t, "alice", map[string]any{"watchlist": []string{"b", "c"}})

	d, err := Diff(oldS, newS)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !d.HasChanges {
		t.Fatal("HasChanges = false")
	}
	if len(d.Added) != 1 || d.Added[0].Value != "c" || d.Added[0].Path != "watchlist" {
		t.Errorf("Added = %+v, want [watchlist: c]", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].Value != "a" {
		t.Errorf("Removed = %+v, want [watchlist: a]", d.Removed)
	}
	if len(d.Changed) != 0 {
		t.Errorf("Changed = %+v, want empty", d.Changed)
	}
}

func TestDiffListOrderIsNotAChange(t *testing.T) {
	oldS := snap(t, "alice", map[string]any{"watchlist": []string{"a", "b", "c"}})
	newS := snap(t, "alice", map[string]any{"watchlist": []string{"c", "a", "b"}})

	d, err := Diff(oldS, newS)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if d.HasChanges {
		t.Errorf("reordering reported as change: %+v", d)
	}
}

func TestDiffScalarAndNestedFields(t *testing.T) {
	oldS := snap(t, "alice", map[string]any{
		"bio":   "old bio",
		"stats": map[string]any{"films": 100, "followers": 5},
	})
	newS := snap(t, "alice", map[string]any{
		"bio":   "new bio",
		"stats": map[string]any{"films": 120, "followers": 5},
	})

	d, err := Diff(oldS, newS)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if _, ok := d.Changed["bio"]; !ok {
		t.Errorf("bio change missing: %+v", d.Changed)
	}
	if fc, ok := d.Changed["stats.films"]; !ok {
		t.Errorf("stats.films change missing: %+v", d.Changed)
	} else if fc.Old != float64(100) || fc.New != float64(120) {
		t.Errorf("stats.films = %+v, want 100 -> 120", fc)
	}
	if _, ok := d.Changed["stats.followers"]; ok {
		t.Error("unchanged stats.followers reported as changed")
	}
}

func TestDiffAddedAndRemovedKeys(t *testing.T) {
	oldS := snap(t, "alice", map[string]any{"bio": "hi", "pro": true})
	newS := snap(t, "alice", map[string]any{"bio": "hi", "patron": true})

	d, err := Diff(oldS, newS)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(d.Added) != 1 || d.Added[0].Path != "patron" {
		t.Errorf("Added = %+v, want [patron]", d.Added)
	}
	if len(d.Removed) != 1 || d.Removed[0].Path != "pro" {
		t.Errorf("Removed = %+v, want [pro]", d.Removed)
	}
}

func TestDiffObjectListMembership(t *testing.T) {
	film := func(name string) map[string]any {
		return map[string]any{"film_name": name, "film_slug": name}
	}
	oldS := snap(t, "alice", map[string]any{"films": []any{film("dune"), film("heat")}})
	newS := snap(t, "alice", map[string]any{"films": []any{film("heat"), film("tar")}})

	d, err := Diff(oldS, newS)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(d.Added) != 1 || len(d.Removed) != 1 {
		t.Fatalf("Added/Removed = %d/%d, want 1/1", len(d.Added), len(d.Removed))
	}
}
