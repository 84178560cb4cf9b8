package gitas

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

const (
	// Section is the config section reserved for preset definitions and
	// bookkeeping.
	Section = "as"

	presetPrefix  = Section + ".preset."
	appliedPrefix = Section + ".applied."
)

var (
	// "The variable names are case-insensitive, allow only alphanumeric characters and -, and must start with an alphabetic character."
	reValidVar = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)
	// preset names end up as the variable name of as.applied.<name>.
	reValidName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9-]*$`)
)

// splitKey splits a fully qualified gitconfig key into two or three parts.
// A valid key consists of either a section and a key separated by a dot
// or section, subsection and key, all separated by a dot. Note that
// the subsection might contain dots itself.
//
// Valid examples:
// - core.push
// - insteadof.git@github.com.push.
func splitKey(key string) (section, subsection, skey string) { //nolint:nonamedreturns
	n := strings.Index(key, ".")
	if n > 0 {
		section = key[:n]
	}

	if m := strings.LastIndex(key, "."); n != m && m > 0 && len(key) > m+1 {
		subsection = key[n+1 : m]
		skey = key[m+1:]

		return
	}

	skey = key[n+1:]

	return
}

// canonicalizeKey lower-cases section and variable name. The subsection is
// case sensitive and kept as is. Invalid keys yield the empty string.
func canonicalizeKey(key string) string {
	if key == "" {
		return ""
	}

	section, subsection, skey := splitKey(key)
	section = strings.ToLower(section)
	skey = strings.ToLower(skey)

	if section == "" || skey == "" {
		return ""
	}
	if !reValidVar.MatchString(skey) {
		return ""
	}

	if subsection == "" {
		return section + "." + skey
	}

	return section + "." + subsection + "." + skey
}

// CanonicalKey returns the normalized form of key or ErrInvalidKey.
func CanonicalKey(key string) (string, error) {
	ck := canonicalizeKey(key)
	if ck == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return ck, nil
}

// normalizeName validates a preset name and returns its lower-cased form.
func normalizeName(name string) (string, error) {
	if !reValidName.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return strings.ToLower(name), nil
}

func isReserved(key string) bool {
	section, _, _ := splitKey(key)

	return strings.EqualFold(section, Section)
}

func appliedKey(name string) string {
	return appliedPrefix + name
}

func savedPrefix(name string) string {
	return appliedPrefix + name + "."
}

func savedKey(name, key string) string {
	return savedPrefix(name) + key
}

// encodeKeys and decodeKeys handle the value of an applied record.
func encodeKeys(keys []string) string {
	return strings.Join(keys, "\n")
}

func decodeKeys(v string) []string {
	keys := make([]string, 0, strings.Count(v, "\n")+1)
	for _, k := range strings.Split(v, "\n") {
		k = strings.TrimRight(k, "\r")
		if k == "" {
			continue
		}
		keys = append(keys, k)
	}

	return keys
}

// isPattern reports whether s uses glob syntax and can not be a plain name.
func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// globMatch matches preset names against a glob pattern, case-insensitively.
func globMatch(pattern, s string) (bool, error) {
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return false, err
	}

	return g.Match(strings.ToLower(s)), nil
}

// MatchNames returns the names matching the glob pattern, keeping their
// order. An empty pattern matches everything.
func MatchNames(pattern string, names []string) ([]string, error) {
	if pattern == "" {
		return names, nil
	}

	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %w", ErrInvalidName, pattern, err)
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if g.Match(strings.ToLower(n)) {
			out = append(out, n)
		}
	}

	return out, nil
}
