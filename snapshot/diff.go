package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/use-agent/reelscout/models"
)

// Change is one item that appeared in or vanished from a list-valued
// field, or a key added to / removed from an object.
type Change struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// FieldChange is a scalar field whose value differs between snapshots.
type FieldChange struct {
	Old any `json:"old_value"`
	New any `json:"new_value"`
}

// DiffResult is the structural difference between two snapshots.
// Added/Removed are directional (old -> new); it is derived on demand
// and never persisted.
type DiffResult struct {
	HasChanges bool                   `json:"has_changes"`
	Added      []Change               `json:"added"`
	Removed    []Change               `json:"removed"`
	Changed    map[string]FieldChange `json:"changed_fields"`
}

// Diff compares two snapshots structurally: set comparison over
// list-valued fields, field-by-field equality over scalars, recursing
// into nested objects with dotted paths.
func Diff(oldSnap, newSnap *Snapshot) (*DiffResult, error) {
	var oldV, newV any
	if err := json.Unmarshal(oldSnap.Payload, &oldV); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			"old snapshot payload is not valid JSON", err)
	}
	if err := json.Unmarshal(newSnap.Payload, &newV); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			"new snapshot payload is not valid JSON", err)
	}
	return DiffValues(oldV, newV), nil
}

// DiffValues diffs two already-decoded JSON values.
func DiffValues(oldV, newV any) *DiffResult {
	res := &DiffResult{Changed: make(map[string]FieldChange)}
	diffValue("", oldV, newV, res)
	res.HasChanges = len(res.Added) > 0 || len(res.Removed) > 0 || len(res.Changed) > 0
	return res
}

func diffValue(path string, oldV, newV any, res *DiffResult) {
	oldMap, oldIsMap := oldV.(map[string]any)
	newMap, newIsMap := newV.(map[string]any)
	if oldIsMap && newIsMap {
		diffMaps(path, oldMap, newMap, res)
		return
	}

	oldList, oldIsList := oldV.([]any)
	newList, newIsList := newV.([]any)
	if oldIsList && newIsList {
		diffLists(path, oldList, newList, res)
		return
	}

	if canonical(oldV) != canonical(newV) {
		res.Changed[path] = FieldChange{Old: oldV, New: newV}
	}
}

func diffMaps(path string, oldMap, newMap map[string]any, res *DiffResult) {
	for key, newVal := range newMap {
		if _, ok := oldMap[key]; !ok {
			res.Added = append(res.Added, Change{Path: join(path, key), Value: newVal})
		}
	}
	for key, oldVal := range oldMap {
		if _, ok := newMap[key]; !ok {
			res.Removed = append(res.Removed, Change{Path: join(path, key), Value: oldVal})
			continue
		}
		diffValue(join(path, key), oldVal, newMap[key], res)
	}
}

// diffLists treats lists as sets: element order and duplicates are not
// changes, membership is.
func diffLists(path string, oldList, newList []any, res *DiffResult) {
	oldSet := make(map[string]any, len(oldList))
	for _, v := range oldList {
		oldSet[canonical(v)] = v
	}
	newSet := make(map[string]any, len(newList))
	for _, v := range newList {
		newSet[canonical(v)] = v
	}

	for key, v := range newSet {
		if _, ok := oldSet[key]; !ok {
			res.Added = append(res.Added, Change{Path: path, Value: v})
		}
	}
	for key, v := range oldSet {
		if _, ok := newSet[key]; !ok {
			res.Removed = append(res.Removed, Change{Path: path, Value: v})
		}
	}
}

// canonical renders a decoded JSON value as a comparable key. Map key
// order is stable because encoding/json sorts keys when marshalling maps.
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
