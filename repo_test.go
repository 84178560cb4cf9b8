package gitas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindGitDir(t *testing.T) {
	t.Setenv(GitDirEnv, "")

	td := t.TempDir()
	gd := filepath.Join(td, ".git")
	sub := filepath.Join(td, "a", "b")
	require.NoError(t, os.MkdirAll(gd, 0o755))
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got, err := FindGitDir(sub)
	require.NoError(t, err)
	assert.Equal(t, gd, got)

	got, err = FindGitDir(td)
	require.NoError(t, err)
	assert.Equal(t, gd, got)

	p, err := LocalConfigPath(sub)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(gd, "config"), p)
}

func TestFindGitDirWorktree(t *testing.T) {
	t.Setenv(GitDirEnv, "")

	td := t.TempDir()
	mainGit := filepath.Join(td, "main", ".git")
	wtGit := filepath.Join(mainGit, "worktrees", "wt")
	wt := filepath.Join(td, "wt")
	require.NoError(t, os.MkdirAll(wtGit, 0o755))
	require.NoError(t, os.MkdirAll(wt, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(wt, ".git"), []byte("gitdir: ../main/.git/worktrees/wt\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(wtGit, "commondir"), []byte("../..\n"), 0o644))

	got, err := FindGitDir(wt)
	require.NoError(t, err)
	assert.Equal(t, wtGit, got)

	p, err := LocalConfigPath(wt)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(mainGit, "config"), p)
	assert.Equal(t, p, ConfigPath(wtGit))
	assert.Equal(t, p, ConfigPath(mainGit))
}

func TestFindGitDirInvalidGitFile(t *testing.T) {
	t.Setenv(GitDirEnv, "")

	td := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(td, ".git"), []byte("garbage"), 0o644))

	_, err := FindGitDir(td)
	require.ErrorIs(t, err, ErrNotInRepo)
}

func TestFindGitDirEnv(t *testing.T) {
	td := t.TempDir()
	t.Setenv(GitDirEnv, filepath.Join(td, "custom.git"))

	got, err := FindGitDir(filepath.Join(td, "elsewhere"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(td, "custom.git"), got)

	t.Setenv(GitDirEnv, "relative.git")
	got, err = FindGitDir(td)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(td, "relative.git"), got)
}

func TestOpenLocal(t *testing.T) {
	t.Setenv(GitDirEnv, "")

	td := t.TempDir()
	gd := filepath.Join(td, ".git")
	require.NoError(t, os.MkdirAll(gd, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gd, "config"), []byte("[as \"preset.simpletest.section\"]\n\tabcd = dbca\n"), 0o644))

	f, err := OpenLocal(td)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(gd, "config"), f.Path())

	v, found, err := f.Get("as.preset.simpletest.section.abcd")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dbca", v)
}
