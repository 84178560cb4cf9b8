package gitas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	r := NewRegistry(newMemStore(t, map[string]string{
		"as.preset.simpletest.section.abcd": "dbca",
		"as.preset.Work.User.Email":         "me@work.example",
		"as.preset.work.user.signingkey":    "ABCD",
		"as.preset.worker.user.name":        "Not Work",
		"user.name":                         "someone",
	}))

	p, err := r.Resolve("simpletest")
	require.NoError(t, err)
	assert.Equal(t, Preset{
		Name:    "simpletest",
		Entries: []Entry{{Key: "section.abcd", Value: "dbca"}},
	}, p)

	p, err = r.Resolve("WORK")
	require.NoError(t, err)
	assert.Equal(t, "work", p.Name)
	assert.Equal(t, []string{"user.email", "user.signingkey"}, p.Keys())
	assert.Equal(t, "me@work.example", p.Entries[0].Value)
}

func TestRegistryUnknown(t *testing.T) {
	t.Parallel()

	r := NewRegistry(newMemStore(t, map[string]string{
		"as.preset.simpletest.section.abcd": "dbca",
		"as.preset.nokey":                   "x",
	}))

	for _, name := range []string{"missing", "simple", "nokey"} {
		_, err := r.Resolve(name)
		require.ErrorIs(t, err, ErrUnknownPreset, name)

		var upe *UnknownPresetError
		require.True(t, errors.As(err, &upe), name)
		assert.Equal(t, name, upe.Name)
	}

	_, err := r.Resolve("bad.name")
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestRegistryReservedKey(t *testing.T) {
	t.Parallel()

	r := NewRegistry(newMemStore(t, map[string]string{
		"as.preset.evil.as.applied.other": "user.name",
	}))

	_, err := r.Resolve("evil")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestRegistryDuplicateTarget(t *testing.T) {
	t.Parallel()

	// both define the target key section.k, the subsection differs only by case
	r := NewRegistry(newMemStore(t, map[string]string{
		"as.preset.dup.Section.k": "1",
		"as.preset.dup.section.k": "2",
	}))

	p, err := r.Resolve("dup")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Key: "section.k", Value: "2"}}, p.Entries)
}

func TestRegistryNames(t *testing.T) {
	t.Parallel()

	r := NewRegistry(newMemStore(t, map[string]string{
		"as.preset.second.section.name": "value",
		"as.preset.first.section.name":  "value",
		"as.preset.first.section.other": "value",
		"as.preset.Third.a.b":           "c",
		"as.preset.nokey":               "x",
		"as.applied.first":              "section.name",
	}))

	names, err := r.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, names)

	names, err = NewRegistry(&MemStore{}).Names()
	require.NoError(t, err)
	assert.Empty(t, names)
}
