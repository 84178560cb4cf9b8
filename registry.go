package gitas

import (
	"fmt"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/gopasspw/gopass/pkg/set"
)

// Preset is a named, flat set of config entries. Keys are canonical and
// unprefixed, i.e. as they are written to the live config.
type Preset struct {
	Name    string  `json:"name" yaml:"name"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Keys returns the keys the preset writes, in order.
func (p Preset) Keys() []string {
	keys := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		keys = append(keys, e.Key)
	}

	return keys
}

// Registry reads preset definitions stored as as.preset.<name>.<key> = value.
type Registry struct {
	store Store
}

// NewRegistry creates a Registry on top of store.
func NewRegistry(store Store) *Registry {
	return &Registry{store: store}
}

// Resolve returns the preset called name. A name without any entries yields
// an UnknownPresetError. Entries whose key would land in the reserved "as"
// section make the whole preset invalid.
func (r *Registry) Resolve(name string) (Preset, error) {
	norm, err := normalizeName(name)
	if err != nil {
		return Preset{}, err
	}

	entries, err := r.store.List(presetPrefix)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to list presets: %w", err)
	}

	p := Preset{Name: norm}
	idx := make(map[string]int, 8)
	for _, e := range entries {
		pn, key, ok := splitPresetKey(e.Key)
		if !ok || !strings.EqualFold(pn, norm) {
			continue
		}

		if isReserved(key) {
			return Preset{}, fmt.Errorf("%w: preset %q writes reserved key %q", ErrInvalidKey, norm, key)
		}

		// Section.key and section.key are the same target. The later
		// definition wins.
		if i, found := idx[key]; found {
			debug.Log("preset %q defines %q more than once, using %q", norm, key, e.Value)
			p.Entries[i].Value = e.Value

			continue
		}

		idx[key] = len(p.Entries)
		p.Entries = append(p.Entries, Entry{Key: key, Value: e.Value})
	}

	if len(p.Entries) == 0 {
		return Preset{}, &UnknownPresetError{Name: norm}
	}

	debug.V(1).Log("resolved preset %q to %d keys", norm, len(p.Entries))

	return p, nil
}

// Names returns the names of all defined presets, sorted and lower-cased.
func (r *Registry) Names() ([]string, error) {
	entries, err := r.store.List(presetPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		pn, _, ok := splitPresetKey(e.Key)
		if !ok {
			continue
		}
		if norm, err := normalizeName(pn); err == nil {
			names = append(names, norm)
		}
	}

	return set.Sorted(names), nil
}

// splitPresetKey splits as.preset.<name>.<key> into name and the canonical
// target key.
func splitPresetKey(k string) (string, string, bool) {
	rest, found := strings.CutPrefix(k, presetPrefix)
	if !found {
		return "", "", false
	}

	name, key, found := strings.Cut(rest, ".")
	if !found {
		debug.V(3).Log("ignoring preset entry without key: %q", k)

		return "", "", false
	}

	ck := canonicalizeKey(key)
	if ck == "" {
		debug.V(3).Log("ignoring preset entry with invalid key: %q", k)

		return "", "", false
	}

	return name, ck, true
}
