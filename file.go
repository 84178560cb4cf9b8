package gitas

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/gopasspw/gopass/pkg/set"
)

var reValidSection = regexp.MustCompile(`^[a-z0-9-]+$`)

// FileStore is a Store backed by a single git config file, usually the
// repository local config in .git/config.
//
// FileStore keeps the file as a list of lines so that comments, ordering and
// unrelated sections survive a rewrite. Every Set and Unset follows git's
// lockfile protocol: <file>.lock is created exclusively, the file is re-read
// while the lock is held, the change is applied and the lock file is renamed
// over the config. A concurrent git (or git-as) process therefore either sees
// the old or the new file, never a mix.
//
// Note: FileStore is not safe for concurrent use by multiple goroutines.
type FileStore struct {
	path string
	// NoWrites keeps all changes in memory (e.g. for tests).
	NoWrites bool

	lines []string
	vars  map[string][]string
}

// OpenFile loads the config file at path. A missing file is not an error,
// the store starts empty and the file is created on the first write.
func OpenFile(path string) (*FileStore, error) {
	f := &FileStore{
		path: path,
	}

	if err := f.load(); err != nil {
		return nil, err
	}

	return f, nil
}

// ParseFile reads a config from r. The result is not connected to any file
// and never written.
func ParseFile(r io.Reader) *FileStore {
	f := &FileStore{
		NoWrites: true,
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		debug.Log("failed to read config: %s", err)
	}
	f.parse(buf)

	return f
}

// Path returns the config file path.
func (f *FileStore) Path() string {
	return f.path
}

// String implements fmt.Stringer for debugging.
func (f *FileStore) String() string {
	return fmt.Sprintf("FileStore{Path: %s - NoWrites: %t - Keys: %d}", f.path, f.NoWrites, len(f.vars))
}

// Reload discards the in-memory state and reads the file again.
func (f *FileStore) Reload() error {
	if f.path == "" {
		return nil
	}

	return f.load()
}

// Bytes returns the config file contents as they would be written.
func (f *FileStore) Bytes() []byte {
	if len(f.lines) == 0 {
		return nil
	}

	return []byte(strings.Join(f.lines, "\n") + "\n")
}

// Get implements Store. For keys with multiple values the last one wins, as
// with git config --get.
func (f *FileStore) Get(key string) (string, bool, error) {
	vs, found := f.vars[canonicalizeKey(key)]
	if !found || len(vs) < 1 {
		return "", false, nil
	}

	return vs[len(vs)-1], true, nil
}

// GetAll implements MultiStore.
func (f *FileStore) GetAll(key string) ([]string, error) {
	return slices.Clone(f.vars[canonicalizeKey(key)]), nil
}

// List implements Store.
func (f *FileStore) List(prefix string) ([]Entry, error) {
	keys := make([]string, 0, len(f.vars))
	for k := range f.vars {
		keys = append(keys, k)
	}

	keys = set.SortedFiltered(keys, func(k string) bool {
		return strings.HasPrefix(k, prefix)
	})

	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		vs := f.vars[k]
		out = append(out, Entry{Key: k, Value: vs[len(vs)-1]})
	}

	return out, nil
}

// Set implements Store. An existing key is replaced in place, all other
// occurrences of a multi-valued key are dropped. A new key is appended to the
// last matching section or to a new section at the end of the file.
func (f *FileStore) Set(key, value string) error {
	ck, err := CanonicalKey(key)
	if err != nil {
		return err
	}

	return f.update(func() (bool, error) {
		return f.setVar(ck, value), nil
	})
}

// Unset implements Store. A section header left without entries is removed
// as well.
func (f *FileStore) Unset(key string) error {
	ck := canonicalizeKey(key)

	return f.update(func() (bool, error) {
		if !f.unsetVar(ck) {
			return false, fmt.Errorf("%w: %s", ErrKeyNotSet, key)
		}

		return true, nil
	})
}

// update runs fn against the current file contents and persists the result.
// fn reports whether it changed anything.
func (f *FileStore) update(fn func() (bool, error)) error {
	if f.NoWrites || f.path == "" {
		debug.V(3).Log("not writing changes to disk (noWrites %t, path %q)", f.NoWrites, f.path)
		_, err := fn()

		return err
	}

	lock, err := acquireLock(f.path)
	if err != nil {
		return err
	}
	defer lock.release()

	// pick up changes other processes made since we loaded the file
	if err := f.load(); err != nil {
		return err
	}

	changed, err := fn()
	if err != nil || !changed {
		return err
	}

	debug.V(3).Log("writing config to %s: \n--------------\n%s\n--------------", f.path, string(f.Bytes()))

	if err := lock.commit(f.Bytes()); err != nil {
		return err
	}

	debug.V(1).Log("wrote config to %s", f.path)

	return nil
}

func (f *FileStore) load() error {
	buf, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			debug.V(1).Log("config %s does not exist yet", f.path)
			f.parse(nil)

			return nil
		}

		return fmt.Errorf("failed to read config %s: %w", f.path, err)
	}

	f.parse(buf)
	debug.V(1).Log("loaded config from %s (%d keys)", f.path, len(f.vars))

	return nil
}

// parse splits buf into lines. Lines are not length limited, a truncated
// read would be written back over the file on the next change.
func (f *FileStore) parse(buf []byte) {
	f.lines = f.lines[:0]
	if len(buf) > 0 {
		for _, line := range strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n") {
			f.lines = append(f.lines, strings.TrimRight(line, "\r"))
		}
	}

	f.reindex()
}

// reindex rebuilds the key lookup table from the raw lines.
func (f *FileStore) reindex() {
	f.vars = make(map[string][]string, len(f.lines))
	for _, li := range scanLines(f.lines) {
		if li.kind != lineVar {
			continue
		}
		f.vars[li.key] = append(f.vars[li.key], li.value)
	}
}

func (f *FileStore) setVar(ck, value string) bool {
	section, subsection, name := splitKey(ck)
	infos := scanLines(f.lines)

	var idx []int
	for i, li := range infos {
		if li.kind == lineVar && li.key == ck {
			idx = append(idx, i)
		}
	}

	if len(idx) == 1 && infos[idx[0]].value == value {
		debug.V(1).Log("key %q with value %q already present. Not re-writing.", ck, value)

		return false
	}

	if len(idx) > 0 {
		last := idx[len(idx)-1]
		f.lines[last] = formatVar(name, value)
		// drop the other values of a multi-valued key, back to front
		for i := len(idx) - 2; i >= 0; i-- {
			f.lines = slices.Delete(f.lines, idx[i], idx[i]+1)
		}
		debug.V(3).Log("updated %q", ck)
		f.reindex()

		return true
	}

	pos := -1
	for i, li := range infos {
		if li.kind == lineHeader && li.section == section && li.subsection == subsection {
			pos = endOfBlock(infos, i)
		}
	}

	if pos < 0 {
		f.lines = append(f.lines, formatHeader(section, subsection), formatVar(name, value))
		debug.V(3).Log("inserted %q in new section", ck)
	} else {
		f.lines = slices.Insert(f.lines, pos, formatVar(name, value))
		debug.V(3).Log("inserted %q at line %d", ck, pos)
	}

	f.reindex()

	return true
}

func (f *FileStore) unsetVar(ck string) bool {
	section, subsection, _ := splitKey(ck)
	infos := scanLines(f.lines)

	var removed bool
	for i := len(infos) - 1; i >= 0; i-- {
		if infos[i].kind == lineVar && infos[i].key == ck {
			f.lines = slices.Delete(f.lines, i, i+1)
			removed = true
		}
	}

	if !removed {
		return false
	}

	// drop headers of the affected section that no longer hold anything
	infos = scanLines(f.lines)
	for i := len(infos) - 1; i >= 0; i-- {
		li := infos[i]
		if li.kind != lineHeader || li.section != section || li.subsection != subsection {
			continue
		}
		end := blockEnd(infos, i)
		if hasContent(infos[i+1 : end]) {
			continue
		}
		f.lines = slices.Delete(f.lines, i, end)
	}

	f.reindex()

	return true
}

const (
	lineOther = iota
	lineComment
	lineHeader
	lineVar
)

type lineInfo struct {
	kind       int
	section    string
	subsection string
	key        string
	value      string
}

// scanLines implements a simple parser for the gitconfig subset we support.
// It classifies each raw line and resolves variables to their canonical key.
// Lines it does not understand are kept as lineOther.
func scanLines(lines []string) []lineInfo {
	infos := make([]lineInfo, len(lines))

	var section, subsection string
	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			infos[i] = lineInfo{kind: lineOther}
		case strings.HasPrefix(line, "#"), strings.HasPrefix(line, ";"):
			infos[i] = lineInfo{kind: lineComment}
		case strings.HasPrefix(line, "["):
			s, subs, ok := parseSectionHeader(line)
			if !ok {
				debug.V(3).Log("invalid section header: %q", line)
				section, subsection = "", ""
				infos[i] = lineInfo{kind: lineOther}

				continue
			}
			section, subsection = s, subs
			infos[i] = lineInfo{kind: lineHeader, section: s, subsection: subs}
		default:
			if section == "" {
				debug.V(3).Log("variable outside of a section: %q", line)
				infos[i] = lineInfo{kind: lineOther}

				continue
			}

			// Reference: https://git-scm.com/docs/git-config#_syntax.
			// A line without '=' is a bare boolean.
			name, rawValue, _ := strings.Cut(line, "=")
			name = strings.ToLower(strings.TrimSpace(name))
			if !reValidVar.MatchString(name) {
				debug.V(3).Log("invalid key %q in line: %q", name, line)
				infos[i] = lineInfo{kind: lineOther}

				continue
			}

			key := section + "." + name
			if subsection != "" {
				key = section + "." + subsection + "." + name
			}

			infos[i] = lineInfo{
				kind:       lineVar,
				section:    section,
				subsection: subsection,
				key:        key,
				value:      parseValue(rawValue),
			}
		}
	}

	return infos
}

// blockEnd returns the index of the first line after the section started at
// header h.
func blockEnd(infos []lineInfo, h int) int {
	for i := h + 1; i < len(infos); i++ {
		if infos[i].kind == lineHeader {
			return i
		}
	}

	return len(infos)
}

// endOfBlock returns the insert position for a new variable in the section
// started at header h: right after its last non-blank line.
func endOfBlock(infos []lineInfo, h int) int {
	pos := h + 1
	for i := h + 1; i < blockEnd(infos, h); i++ {
		if infos[i].kind != lineOther {
			pos = i + 1
		}
	}

	return pos
}

func hasContent(infos []lineInfo) bool {
	for _, li := range infos {
		if li.kind == lineVar || li.kind == lineComment {
			return true
		}
	}

	return false
}

// parseSectionHeader understands [section], [section "subsection"] and the
// deprecated [section.subsection] form. Anything after the closing bracket is
// ignored.
func parseSectionHeader(line string) (section, subsection string, ok bool) { //nolint:nonamedreturns
	end := -1
	inQuotes := false
	for i := 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '"':
			inQuotes = !inQuotes
		case ']':
			if !inQuotes {
				end = i
			}
		}
		if end > 0 {
			break
		}
	}
	if end < 0 {
		return "", "", false
	}

	inner := strings.TrimSpace(line[1:end])
	if ws := strings.IndexAny(inner, " \t"); ws >= 0 {
		section = inner[:ws]
		quoted := strings.TrimSpace(inner[ws+1:])
		if len(quoted) < 2 || quoted[0] != '"' || quoted[len(quoted)-1] != '"' {
			return "", "", false
		}
		subsection = unescapeSubsection(quoted[1 : len(quoted)-1])
	} else if dot := strings.Index(inner, "."); dot > 0 {
		section = inner[:dot]
		// "the subsection name is lowercased" in the deprecated syntax
		subsection = strings.ToLower(inner[dot+1:])
	} else {
		section = inner
	}

	section = strings.ToLower(section)
	if !reValidSection.MatchString(section) {
		return "", "", false
	}

	return section, subsection, true
}

func unescapeSubsection(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}

	return sb.String()
}

// parseValue decodes the raw right hand side of a variable line. Quotes are
// removed, escape sequences resolved and an unquoted # or ; starts a comment.
// Whitespace around the value is discarded, whitespace inside is kept.
func parseValue(raw string) string {
	var sb, ws strings.Builder
	inQuotes := false
	raw = strings.TrimLeft(raw, " \t")

	flush := func() {
		sb.WriteString(ws.String())
		ws.Reset()
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			flush()
			i++
			// The following escape sequences (beside \" and \\) are recognized:
			// \n for newline character (NL),
			// \t for horizontal tabulation (HT, TAB) and
			// \b for backspace (BS).
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			case '"', '\\':
				sb.WriteByte(raw[i])
			default:
				sb.WriteByte('\\')
				sb.WriteByte(raw[i])
			}
		case c == '"':
			flush()
			inQuotes = !inQuotes
		case !inQuotes && (c == '#' || c == ';'):
			return sb.String()
		case !inQuotes && (c == ' ' || c == '\t'):
			ws.WriteByte(c)
		default:
			flush()
			sb.WriteByte(c)
		}
	}

	return sb.String()
}

// formatValue escapes value so that parseValue returns it unchanged.
func formatValue(value string) string {
	var sb strings.Builder
	for _, r := range value {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		default:
			sb.WriteRune(r)
		}
	}

	if value == "" || value != strings.TrimSpace(value) || strings.ContainsAny(value, "#;") {
		return `"` + sb.String() + `"`
	}

	return sb.String()
}

func formatVar(name, value string) string {
	return fmt.Sprintf("\t%s = %s", name, formatValue(value))
}

func formatHeader(section, subsection string) string {
	if subsection == "" {
		return fmt.Sprintf("[%s]", section)
	}

	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)

	return fmt.Sprintf("[%s \"%s\"]", section, r.Replace(subsection))
}

// lockFile implements git's <file>.lock protocol.
type lockFile struct {
	path   string
	target string
	fh     *os.File
	done   bool
}

func acquireLock(target string) (*lockFile, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %q for %q: %w", filepath.Dir(target), target, err)
	}

	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(target); err == nil {
		mode = fi.Mode().Perm()
	}

	lp := target + ".lock"
	fh, err := os.OpenFile(lp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s exists", ErrLocked, lp)
		}

		return nil, fmt.Errorf("failed to create lock %s: %w", lp, err)
	}

	debug.V(3).Log("acquired lock %s", lp)

	return &lockFile{
		path:   lp,
		target: target,
		fh:     fh,
	}, nil
}

func (l *lockFile) commit(data []byte) error {
	if _, err := l.fh.Write(data); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteConfig, l.target, err)
	}

	err := l.fh.Close()
	l.fh = nil
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteConfig, l.target, err)
	}

	if err := os.Rename(l.path, l.target); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWriteConfig, l.target, err)
	}
	l.done = true

	return nil
}

// release drops the lock without touching the target, unless commit
// already replaced it.
func (l *lockFile) release() {
	if l.fh != nil {
		_ = l.fh.Close()
	}
	if l.done {
		return
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		debug.Log("failed to remove lock %s: %s", l.path, err)
	}
}
