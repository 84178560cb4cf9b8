package gitas

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"slices"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
)

// Exit codes of git config, see git-config(1).
const (
	gitExitNotFound  = 1
	gitExitNoSuchKey = 5
)

// GitStore is a Store that runs the git binary (git config --local) in Dir.
// It is slower than FileStore but honours everything git itself supports.
type GitStore struct {
	Dir    string
	Binary string
}

// NewGitStore creates a GitStore for the repository containing dir.
func NewGitStore(dir string) (*GitStore, error) {
	bin, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git binary not found: %w", err)
	}

	return &GitStore{
		Dir:    dir,
		Binary: bin,
	}, nil
}

func (g *GitStore) run(opArgs ...string) ([]byte, int, error) {
	args := append([]string{"-C", g.Dir, "config", "--local"}, opArgs...)
	debug.V(2).Log("running %s %s", g.Binary, strings.Join(args, " "))

	cmd := exec.Command(g.Binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return stdout.Bytes(), ee.ExitCode(), fmt.Errorf("git config %s: %w: %s", strings.Join(opArgs, " "), err, strings.TrimSpace(stderr.String()))
		}

		return nil, -1, fmt.Errorf("failed to run git: %w", err)
	}

	return stdout.Bytes(), 0, nil
}

// Get implements Store.
func (g *GitStore) Get(key string) (string, bool, error) {
	out, code, err := g.run("--null", "--get", key)
	if code == gitExitNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return strings.TrimSuffix(string(out), "\x00"), true, nil
}

// GetAll implements MultiStore.
func (g *GitStore) GetAll(key string) ([]string, error) {
	out, code, err := g.run("--null", "--get-all", key)
	if code == gitExitNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// every value is NUL terminated
	vs := strings.Split(string(out), "\x00")

	return vs[:len(vs)-1], nil
}

// Set implements Store.
func (g *GitStore) Set(key, value string) error {
	if _, err := CanonicalKey(key); err != nil {
		return err
	}

	// --replace-all collapses multi-valued keys like FileStore does
	_, _, err := g.run("--replace-all", key, value)

	return err
}

// Unset implements Store.
func (g *GitStore) Unset(key string) error {
	_, code, err := g.run("--unset-all", key)
	if code == gitExitNoSuchKey {
		return fmt.Errorf("%w: %s", ErrKeyNotSet, key)
	}

	return err
}

// List implements Store.
func (g *GitStore) List(prefix string) ([]Entry, error) {
	out, code, err := g.run("--null", "--get-regexp", "^"+regexp.QuoteMeta(prefix))
	if code == gitExitNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return parseNullList(out), nil
}

// parseNullList parses the output of git config --null --get-regexp:
// records of "key\nvalue" terminated by NUL. The last value of a key wins.
func parseNullList(out []byte) []Entry {
	idx := make(map[string]int, 16)
	entries := make([]Entry, 0, 16)

	for _, rec := range strings.Split(string(out), "\x00") {
		if rec == "" {
			continue
		}
		k, v, _ := strings.Cut(rec, "\n")
		if i, found := idx[k]; found {
			entries[i].Value = v

			continue
		}
		idx[k] = len(entries)
		entries = append(entries, Entry{Key: k, Value: v})
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Key, b.Key)
	})

	return entries
}
