package gitas

import (
	"fmt"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/gopasspw/gopass/pkg/set"
)

// Store is the flat key-value view of a repository's local configuration.
// Keys are dotted and are canonicalized by the store (see CanonicalKey).
//
// Implementations are expected to apply every Set and Unset atomically.
// Nothing in this package serializes concurrent callers.
type Store interface {
	// Get returns the value of key and whether it is set.
	Get(key string) (string, bool, error)
	// Set creates or replaces key.
	Set(key, value string) error
	// Unset removes key. It returns an error wrapping ErrKeyNotSet if the
	// key is not present.
	Unset(key string) error
	// List returns all entries whose canonical key starts with prefix,
	// sorted by key.
	List(prefix string) ([]Entry, error)
}

// MultiStore is a Store whose keys can hold several values, like a git
// config file. Get and List report the last value.
type MultiStore interface {
	Store
	// GetAll returns every value of key in file order.
	GetAll(key string) ([]string, error)
}

// Entry is a single key-value pair.
type Entry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// MemStore is an in-memory Store. The zero value is ready to use.
type MemStore struct {
	vars map[string]string
}

// NewMemStore creates a MemStore pre-populated with the given entries.
func NewMemStore(data map[string]string) (*MemStore, error) {
	m := &MemStore{
		vars: make(map[string]string, len(data)),
	}

	for k, v := range data {
		if err := m.Set(k, v); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Get implements Store.
func (m *MemStore) Get(key string) (string, bool, error) {
	v, found := m.vars[canonicalizeKey(key)]

	return v, found, nil
}

// Set implements Store.
func (m *MemStore) Set(key, value string) error {
	ck, err := CanonicalKey(key)
	if err != nil {
		return err
	}

	if m.vars == nil {
		m.vars = make(map[string]string, 16)
	}

	debug.V(3).Log("set %q to %q", ck, value)
	m.vars[ck] = value

	return nil
}

// Unset implements Store.
func (m *MemStore) Unset(key string) error {
	ck := canonicalizeKey(key)
	if _, found := m.vars[ck]; !found {
		return fmt.Errorf("%w: %s", ErrKeyNotSet, key)
	}

	debug.V(3).Log("unset %q", ck)
	delete(m.vars, ck)

	return nil
}

// List implements Store.
func (m *MemStore) List(prefix string) ([]Entry, error) {
	keys := make([]string, 0, len(m.vars))
	for k := range m.vars {
		keys = append(keys, k)
	}

	keys = set.SortedFiltered(keys, func(k string) bool {
		return strings.HasPrefix(k, prefix)
	})

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k, Value: m.vars[k]})
	}

	return out, nil
}

// Len returns the number of keys set.
func (m *MemStore) Len() int {
	return len(m.vars)
}
