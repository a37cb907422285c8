package snapshot

import "sync"

// MemoryBackend keeps snapshots in process memory. Used in tests and
// cache-only deployments.
type MemoryBackend struct {
	mu    sync.Mutex
	store map[string][]Snapshot // subject -> snapshots, append order
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{store: make(map[string][]Snapshot)}
}

func (m *MemoryBackend) Append(snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[snap.SubjectID] = append(m.store[snap.SubjectID], snap)
	return nil
}

func (m *MemoryBackend) Latest(subjectID string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.store[subjectID]
	if len(snaps) == 0 {
		return nil, nil
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	return &latest, nil
}

func (m *MemoryBackend) List(subjectID string) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := m.store[subjectID]
	out := make([]Snapshot, len(snaps))
	copy(out, snaps)
	// Newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (m *MemoryBackend) Close() error { return nil }
