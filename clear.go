package gitas

import (
	"fmt"

	"github.com/gopasspw/gopass/pkg/debug"
)

// AllPresets selects every applied preset in Clear.
const AllPresets = "*"

// ClearResult lists the presets that were cleared.
type ClearResult struct {
	Cleared []string `json:"cleared" yaml:"cleared"`
}

// Clear undoes applied presets. A target is a preset name, a glob pattern
// over preset names or AllPresets. Every target is matched against the
// applied records before anything is changed. A name or pattern that matches
// nothing yields a NotAppliedError, except AllPresets which then clears
// nothing.
//
// Clearing a preset restores the values it overwrote and removes the keys
// that did not exist before. Presets are cleared one after another. If the
// store fails a ClearError lists what was cleared and what is still applied.
func (m *Manager) Clear(targets ...string) (*ClearResult, error) {
	if len(targets) == 0 {
		return nil, ErrNoPresets
	}

	records, err := loadRecords(m.store)
	if err != nil {
		return nil, err
	}

	names, err := selectRecords(records, targets)
	if err != nil {
		return nil, err
	}

	res := &ClearResult{
		Cleared: make([]string, 0, len(names)),
	}
	for i, name := range names {
		if err := m.clearOne(records[name]); err != nil {
			return res, &ClearError{
				Cleared:   res.Cleared,
				Remaining: names[i:],
				Err:       err,
			}
		}
		res.Cleared = append(res.Cleared, name)
	}

	if len(names) > 0 {
		debug.Log("cleared %s", describe(names))
	}

	return res, nil
}

// ClearAll clears every applied preset.
func (m *Manager) ClearAll() (*ClearResult, error) {
	return m.Clear(AllPresets)
}

// selectRecords resolves clear targets to record names, keeping the order of
// the targets and dropping duplicates.
func selectRecords(records map[string]*AppliedRecord, targets []string) ([]string, error) {
	all := sortedRecords(records)
	seen := make(map[string]struct{}, len(records))
	names := make([]string, 0, len(records))

	add := func(name string) {
		if _, found := seen[name]; found {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, target := range targets {
		switch {
		case target == AllPresets:
			for _, rec := range all {
				add(rec.Name)
			}
		case isPattern(target):
			var matched bool
			for _, rec := range all {
				ok, err := globMatch(target, rec.Name)
				if err != nil {
					return nil, fmt.Errorf("%w: bad pattern %q: %w", ErrInvalidName, target, err)
				}
				if ok {
					matched = true
					add(rec.Name)
				}
			}
			if !matched {
				return nil, &NotAppliedError{Name: target}
			}
		default:
			norm, err := normalizeName(target)
			if err != nil {
				return nil, err
			}
			if _, found := records[norm]; !found {
				return nil, &NotAppliedError{Name: norm}
			}
			add(norm)
		}
	}

	return names, nil
}

// clearOne undoes a single preset. For every key the live value is restored
// (or removed), then the key is dropped from the record and finally its saved
// value is removed. Repeating an interrupted clear is safe.
func (m *Manager) clearOne(rec *AppliedRecord) error {
	recKey := appliedKey(rec.Name)

	for i, k := range rec.Keys {
		prev, saved := rec.Saved[k]
		if saved {
			if err := m.store.Set(k, prev); err != nil {
				return &StoreError{Op: "restore", Preset: rec.Name, Key: k, Err: err}
			}
			debug.V(2).Log("[%s] restored %q", rec.Name, k)
		} else {
			// the user may have removed the key already
			if err := m.unset(k); err != nil {
				return &StoreError{Op: "unset", Preset: rec.Name, Key: k, Err: err}
			}
			debug.V(2).Log("[%s] unset %q", rec.Name, k)
		}

		var err error
		if rest := rec.Keys[i+1:]; len(rest) > 0 {
			err = m.store.Set(recKey, encodeKeys(rest))
		} else {
			err = m.unset(recKey)
		}
		if err != nil {
			return &StoreError{Op: "record", Preset: rec.Name, Key: k, Err: err}
		}

		if saved {
			if err := m.unset(savedKey(rec.Name, k)); err != nil {
				return &StoreError{Op: "unset", Preset: rec.Name, Key: savedKey(rec.Name, k), Err: err}
			}
		}
	}

	if len(rec.Keys) == 0 {
		if err := m.unset(recKey); err != nil {
			return &StoreError{Op: "unset", Preset: rec.Name, Key: recKey, Err: err}
		}
	}

	if err := m.dropSaved(rec.Name); err != nil {
		return err
	}

	debug.V(1).Log("cleared preset %q (%d keys)", rec.Name, len(rec.Keys))

	return nil
}
