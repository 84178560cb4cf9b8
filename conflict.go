package gitas

import "github.com/gopasspw/gopass/pkg/debug"

// CheckConflicts makes sure no two presets write the same key. It reports the
// first collision in preset and entry order.
func CheckConflicts(presets []Preset) error {
	owner := make(map[string]string, 32)

	for _, p := range presets {
		for _, e := range p.Entries {
			first, found := owner[e.Key]
			if found && first != p.Name {
				debug.V(1).Log("key %q is written by %q and %q", e.Key, first, p.Name)

				return &ConflictError{
					Key:    e.Key,
					First:  first,
					Second: p.Name,
				}
			}
			owner[e.Key] = p.Name
		}
	}

	return nil
}

// checkOwned makes sure none of the presets writes a key that an applied
// preset already owns.
func checkOwned(presets []Preset, applied []*AppliedRecord) error {
	owner := make(map[string]string, 32)
	for _, rec := range applied {
		for _, k := range rec.Keys {
			owner[k] = rec.Name
		}
	}

	for _, p := range presets {
		for _, e := range p.Entries {
			if first, found := owner[e.Key]; found {
				return &ConflictError{
					Key:     e.Key,
					First:   first,
					Second:  p.Name,
					Applied: true,
				}
			}
		}
	}

	return nil
}
