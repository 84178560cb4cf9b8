package gitas

import (
	"github.com/gopasspw/gopass/pkg/debug"
)

// ApplyResult lists the presets that were applied, in request order.
type ApplyResult struct {
	Applied []*AppliedRecord `json:"applied" yaml:"applied"`
}

// Apply writes the named presets into the live config and records what was
// written.
//
// All presets are resolved and validated before the store is touched:
//   - every name must resolve (UnknownPresetError)
//   - no two presets may write the same key (ConflictError)
//   - no preset may be applied already (AlreadyAppliedError)
//   - no preset may write a key owned by an applied preset (ConflictError)
//   - no preset may write a key that has several values (MultiValueError)
//
// If writing fails part way a StoreError names the preset and key. The
// presets before it are fully applied and returned in the result, the failing
// one is recorded as far as it got and can be cleared.
func (m *Manager) Apply(names ...string) (*ApplyResult, error) {
	presets, err := m.resolve(names)
	if err != nil {
		return nil, err
	}

	if err := CheckConflicts(presets); err != nil {
		return nil, err
	}

	records, err := loadRecords(m.store)
	if err != nil {
		return nil, err
	}

	for _, p := range presets {
		if _, found := records[p.Name]; found {
			return nil, &AlreadyAppliedError{Name: p.Name}
		}
	}

	if err := checkOwned(presets, sortedRecords(records)); err != nil {
		return nil, err
	}

	if err := m.checkMultiValued(presets); err != nil {
		return nil, err
	}

	res := &ApplyResult{
		Applied: make([]*AppliedRecord, 0, len(presets)),
	}
	for _, p := range presets {
		rec, err := m.applyOne(p)
		if err != nil {
			return res, err
		}
		res.Applied = append(res.Applied, rec)
	}

	debug.Log("applied %s", describe(names))

	return res, nil
}

// checkMultiValued rejects presets writing a key with more than one value.
// Set collapses such a key and only the last value could be saved.
func (m *Manager) checkMultiValued(presets []Preset) error {
	ms, ok := m.store.(MultiStore)
	if !ok {
		return nil
	}

	for _, p := range presets {
		for _, e := range p.Entries {
			vs, err := ms.GetAll(e.Key)
			if err != nil {
				return &StoreError{Op: "get", Preset: p.Name, Key: e.Key, Err: err}
			}
			if len(vs) > 1 {
				return &MultiValueError{Preset: p.Name, Key: e.Key, Count: len(vs)}
			}
		}
	}

	return nil
}

// applyOne writes a single preset. For every key the previous value is saved
// first, then the key is added to the record and finally the key is set. An
// interruption at any point leaves a record that clear can undo.
func (m *Manager) applyOne(p Preset) (*AppliedRecord, error) {
	// leftovers of an interrupted clear must not be restored later
	if err := m.dropSaved(p.Name); err != nil {
		return nil, err
	}

	rec := &AppliedRecord{
		Name:  p.Name,
		Keys:  make([]string, 0, len(p.Entries)),
		Saved: make(map[string]string, len(p.Entries)),
	}
	recKey := appliedKey(p.Name)

	for _, e := range p.Entries {
		prev, found, err := m.store.Get(e.Key)
		if err != nil {
			return rec, &StoreError{Op: "get", Preset: p.Name, Key: e.Key, Err: err}
		}

		if found {
			if err := m.store.Set(savedKey(p.Name, e.Key), prev); err != nil {
				return rec, &StoreError{Op: "save", Preset: p.Name, Key: e.Key, Err: err}
			}
			rec.Saved[e.Key] = prev
			debug.V(2).Log("saved previous value of %q", e.Key)
		}

		rec.Keys = append(rec.Keys, e.Key)
		if err := m.store.Set(recKey, encodeKeys(rec.Keys)); err != nil {
			return rec, &StoreError{Op: "record", Preset: p.Name, Key: e.Key, Err: err}
		}

		if err := m.store.Set(e.Key, e.Value); err != nil {
			return rec, &StoreError{Op: "set", Preset: p.Name, Key: e.Key, Err: err}
		}
		debug.V(2).Log("[%s] set %q", p.Name, e.Key)
	}

	debug.V(1).Log("applied preset %q (%d keys, %d saved)", p.Name, len(rec.Keys), len(rec.Saved))

	return rec, nil
}
