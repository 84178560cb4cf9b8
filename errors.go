package gitas

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidKey indicates a config key missing section or key name.
	ErrInvalidKey = errors.New("invalid key")
	// ErrInvalidName indicates a preset name that can not be stored.
	ErrInvalidName = errors.New("invalid preset name")
	// ErrNoPresets indicates an apply or clear without any target.
	ErrNoPresets = errors.New("no presets given")
	// ErrUnknownPreset indicates a requested preset has no definition.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrConflict indicates two presets would write the same key.
	ErrConflict = errors.New("conflicting presets")
	// ErrAlreadyApplied indicates a preset is applied and was not cleared since.
	ErrAlreadyApplied = errors.New("preset already applied")
	// ErrNotApplied indicates a clear for a preset without an applied record.
	ErrNotApplied = errors.New("preset not applied")
	// ErrMultiValue indicates a preset targets a key holding several values.
	ErrMultiValue = errors.New("key has multiple values")
	// ErrKeyNotSet indicates an unset of a key that is not present.
	ErrKeyNotSet = errors.New("key not set")
	// ErrLocked indicates another process holds the config lock file.
	ErrLocked = errors.New("config file is locked")
	// ErrWriteConfig indicates a config file could not be written.
	ErrWriteConfig = errors.New("failed to write config")
	// ErrNotInRepo indicates no git directory was found.
	ErrNotInRepo = errors.New("not in a git repository")
)

// UnknownPresetError is returned when a requested preset has no entries
// under as.preset.<name>.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("unknown preset %q", e.Name)
}

// Is makes errors.Is(err, ErrUnknownPreset) work.
func (e *UnknownPresetError) Is(target error) bool {
	return target == ErrUnknownPreset
}

// ConflictError names the key two presets would both write. If Applied is
// set, First is a preset that is already applied and owns the key.
type ConflictError struct {
	Key     string
	First   string
	Second  string
	Applied bool
}

func (e *ConflictError) Error() string {
	if e.Applied {
		return fmt.Sprintf("preset %q writes %q which is owned by applied preset %q", e.Second, e.Key, e.First)
	}

	return fmt.Sprintf("presets %q and %q both write %q", e.First, e.Second, e.Key)
}

// Is makes errors.Is(err, ErrConflict) work.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// AlreadyAppliedError is returned when applying a preset that has an
// applied record.
type AlreadyAppliedError struct {
	Name string
}

func (e *AlreadyAppliedError) Error() string {
	return fmt.Sprintf("preset %q is already applied, clear it first", e.Name)
}

// Is makes errors.Is(err, ErrAlreadyApplied) work.
func (e *AlreadyAppliedError) Is(target error) bool {
	return target == ErrAlreadyApplied
}

// MultiValueError is returned when a preset writes a key that currently has
// more than one value. Such a key can not be restored by clear.
type MultiValueError struct {
	Preset string
	Key    string
	Count  int
}

func (e *MultiValueError) Error() string {
	return fmt.Sprintf("preset %q writes %q which has %d values", e.Preset, e.Key, e.Count)
}

// Is makes errors.Is(err, ErrMultiValue) work.
func (e *MultiValueError) Is(target error) bool {
	return target == ErrMultiValue
}

// NotAppliedError is returned when clearing a name or pattern that matches
// no applied record.
type NotAppliedError struct {
	Name string
}

func (e *NotAppliedError) Error() string {
	return fmt.Sprintf("preset %q is not applied", e.Name)
}

// Is makes errors.Is(err, ErrNotApplied) work.
func (e *NotAppliedError) Is(target error) bool {
	return target == ErrNotApplied
}

// StoreError wraps a failed store operation together with the preset and key
// that were being processed.
type StoreError struct {
	Op     string
	Preset string
	Key    string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("preset %q: failed to %s %q: %s", e.Preset, e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ClearError reports a clear that stopped part way. Cleared lists the presets
// that were fully cleared, Remaining the ones still (partially) applied.
type ClearError struct {
	Cleared   []string
	Remaining []string
	Err       error
}

func (e *ClearError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())
	if len(e.Cleared) > 0 {
		fmt.Fprintf(&sb, " (cleared: %s)", strings.Join(e.Cleared, ", "))
	}
	fmt.Fprintf(&sb, " (still applied: %s)", strings.Join(e.Remaining, ", "))

	return sb.String()
}

func (e *ClearError) Unwrap() error {
	return e.Err
}
