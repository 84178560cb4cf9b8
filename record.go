package gitas

import (
	"fmt"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/gopasspw/gopass/pkg/set"
)

// AppliedRecord is the bookkeeping for one applied preset. It is stored as
// as.applied.<name> = <key>\n<key>... listing the keys the preset wrote.
// Values that were overwritten are kept in as.applied.<name>.<key> so that
// clearing the preset can put them back.
type AppliedRecord struct {
	Name  string            `json:"name" yaml:"name"`
	Keys  []string          `json:"keys" yaml:"keys"`
	Saved map[string]string `json:"saved,omitempty" yaml:"saved,omitempty"`
}

// loadRecords reads all applied records. Saved values without a record are
// leftovers of an interrupted operation and are ignored.
func loadRecords(store Store) (map[string]*AppliedRecord, error) {
	entries, err := store.List(appliedPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied presets: %w", err)
	}

	records := make(map[string]*AppliedRecord, 8)
	saved := make(map[string]map[string]string, 8)
	for _, e := range entries {
		rest := strings.TrimPrefix(e.Key, appliedPrefix)
		name, key, isSaved := strings.Cut(rest, ".")
		if isSaved {
			if saved[name] == nil {
				saved[name] = make(map[string]string, 4)
			}
			saved[name][key] = e.Value

			continue
		}

		records[name] = &AppliedRecord{
			Name: name,
			Keys: decodeKeys(e.Value),
		}
	}

	for name, vs := range saved {
		rec, found := records[name]
		if !found {
			debug.V(1).Log("ignoring saved values of %q without applied record", name)

			continue
		}
		rec.Saved = vs
	}

	return records, nil
}

func sortedRecords(records map[string]*AppliedRecord) []*AppliedRecord {
	out := make([]*AppliedRecord, 0, len(records))
	for _, name := range set.SortedKeys(records) {
		out = append(out, records[name])
	}

	return out
}

// dropSaved removes every saved value of the named preset.
func (m *Manager) dropSaved(name string) error {
	entries, err := m.store.List(savedPrefix(name))
	if err != nil {
		return &StoreError{Op: "list", Preset: name, Key: savedPrefix(name), Err: err}
	}

	for _, e := range entries {
		if err := m.unset(e.Key); err != nil {
			return &StoreError{Op: "unset", Preset: name, Key: e.Key, Err: err}
		}
		debug.V(2).Log("dropped saved value %q", e.Key)
	}

	return nil
}
