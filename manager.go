package gitas

import (
	"errors"
	"fmt"

	"github.com/gopasspw/gopass/pkg/debug"
)

// Manager applies and clears presets on a Store.
type Manager struct {
	store    Store
	registry *Registry
}

// New creates a Manager working on store.
func New(store Store) *Manager {
	return &Manager{
		store:    store,
		registry: NewRegistry(store),
	}
}

// Registry returns the preset registry of the store.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Applied returns the records of all applied presets, sorted by name.
func (m *Manager) Applied() ([]*AppliedRecord, error) {
	records, err := loadRecords(m.store)
	if err != nil {
		return nil, err
	}

	return sortedRecords(records), nil
}

// Record returns the applied record of name or a NotAppliedError.
func (m *Manager) Record(name string) (*AppliedRecord, error) {
	norm, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	records, err := loadRecords(m.store)
	if err != nil {
		return nil, err
	}

	rec, found := records[norm]
	if !found {
		return nil, &NotAppliedError{Name: norm}
	}

	return rec, nil
}

// unset removes key and treats a missing key as success.
func (m *Manager) unset(key string) error {
	if err := m.store.Unset(key); err != nil && !errors.Is(err, ErrKeyNotSet) {
		return err
	}

	return nil
}

// resolve maps the requested names to presets. Duplicates are dropped and
// the first unknown name aborts.
func (m *Manager) resolve(names []string) ([]Preset, error) {
	if len(names) == 0 {
		return nil, ErrNoPresets
	}

	seen := make(map[string]struct{}, len(names))
	presets := make([]Preset, 0, len(names))
	for _, name := range names {
		p, err := m.registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		if _, found := seen[p.Name]; found {
			debug.V(1).Log("preset %q requested more than once", p.Name)

			continue
		}
		seen[p.Name] = struct{}{}
		presets = append(presets, p)
	}

	return presets, nil
}

func describe(names []string) string {
	if len(names) == 1 {
		return fmt.Sprintf("preset %q", names[0])
	}

	return fmt.Sprintf("%d presets", len(names))
}
