package gitas

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopasspw/gopass/pkg/debug"
)

var (
	// LocalConfig is the name of the repository config file inside the git dir.
	LocalConfig = "config"
	// GitDirEnv overrides discovery of the git directory, as with git itself.
	GitDirEnv = "GIT_DIR"
)

// FindGitDir returns the git directory for workdir. $GIT_DIR takes precedence,
// otherwise workdir and its parents are searched for a .git directory or a
// .git file pointing elsewhere (linked worktrees, submodules).
func FindGitDir(workdir string) (string, error) {
	if gd := os.Getenv(GitDirEnv); gd != "" {
		if !filepath.IsAbs(gd) {
			gd = filepath.Join(workdir, gd)
		}
		debug.V(1).Log("using git dir %s from $%s", gd, GitDirEnv)

		return gd, nil
	}

	dir, err := filepath.Abs(workdir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", workdir, err)
	}

	for {
		candidate := filepath.Join(dir, ".git")
		fi, err := os.Stat(candidate)
		switch {
		case err == nil && fi.IsDir():
			debug.V(1).Log("found git dir %s", candidate)

			return candidate, nil
		case err == nil:
			return readGitFile(candidate)
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("failed to stat %s: %w", candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: %s", ErrNotInRepo, workdir)
		}
		dir = parent
	}
}

// readGitFile follows a "gitdir: <path>" file.
func readGitFile(fn string) (string, error) {
	content, err := os.ReadFile(fn)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", fn, err)
	}

	gd, found := strings.CutPrefix(strings.TrimSpace(string(content)), "gitdir:")
	if !found {
		return "", fmt.Errorf("%w: invalid gitfile format %s", ErrNotInRepo, fn)
	}

	gd = strings.TrimSpace(gd)
	if !filepath.IsAbs(gd) {
		gd = filepath.Join(filepath.Dir(fn), gd)
	}
	debug.V(1).Log("followed %s to git dir %s", fn, gd)

	return filepath.Clean(gd), nil
}

// configDir returns the directory holding the repository config. Linked
// worktrees share the config of the main repository, referenced by the
// commondir file.
func configDir(gitDir string) string {
	content, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if err != nil {
		return gitDir
	}

	common := strings.TrimSpace(string(content))
	if !filepath.IsAbs(common) {
		common = filepath.Join(gitDir, common)
	}
	debug.V(1).Log("using common dir %s for %s", common, gitDir)

	return filepath.Clean(common)
}

// ConfigPath returns the path of the repository config for gitDir.
func ConfigPath(gitDir string) string {
	return filepath.Join(configDir(gitDir), LocalConfig)
}

// LocalConfigPath returns the path of the local config for workdir.
func LocalConfigPath(workdir string) (string, error) {
	gd, err := FindGitDir(workdir)
	if err != nil {
		return "", err
	}

	return ConfigPath(gd), nil
}

// OpenLocal opens the local config of the repository containing workdir.
func OpenLocal(workdir string) (*FileStore, error) {
	p, err := LocalConfigPath(workdir)
	if err != nil {
		return nil, err
	}

	return OpenFile(p)
}
