// Package gitas manages named bundles of git config entries ("presets") and
// applies them to, and clears them from, a repository's local configuration.
//
// Presets are themselves stored in the config, under the reserved "as" section:
//
//	[as "preset.work.user"]
//		email = me@work.example
//		signingkey = ABCD1234
//
// defines the preset "work" with the keys user.email and user.signingkey.
//
// # Usage
//
// Open a Store, wrap it in a Manager and apply or clear presets:
//
//	store, _ := gitas.OpenLocal(".")
//	m := gitas.New(store)
//	m.Apply("work")
//	m.Clear("work")
//
// Applying writes every key of the preset and records the written keys in
// as.applied.<name>. Clearing uses that record to remove exactly those keys
// again. Values a preset overwrote are saved under as.applied.<name>.<key>
// and put back on clear, so apply followed by clear leaves the config as it
// was.
//
// # Validation
//
// All requested presets are checked before anything is written. Apply fails
// without side effects if
//
//   - a name has no definition (UnknownPresetError)
//   - two presets write the same key (ConflictError)
//   - a preset is applied already (AlreadyAppliedError)
//   - a preset writes a key owned by an applied preset (ConflictError)
//   - a preset writes a key that holds several values (MultiValueError)
//
// Clear fails without side effects if a target is not applied
// (NotAppliedError). Failures of the underlying store are reported as
// StoreError naming the preset and key. Use errors.Is with the Err* sentinels
// or errors.As with the typed errors.
//
// # Stores
//
// The Store interface is the only dependency of the Manager. This package
// provides
//
//   - FileStore - a pure Go reader and writer of a single git config file,
//     using git's lockfile protocol for every change
//   - GitStore - runs git config --local
//   - MemStore - an in-memory map, e.g. for tests
//
// # Known limitations
//
// * FileStore does not support includes or line continuations
// * Concurrent invocations against the same repository are not coordinated
// beyond the per-write lock file
package gitas
