package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	gitas "github.com/cwahbong/git-as"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testConfig = `[core]
	bare = false
[as "preset.simpletest.section"]
	abcd = dbca
[as "preset.first.section"]
	name = value
[as "preset.second.section"]
	name = value
[as "preset.work.user"]
	email = me@work.example
[user]
	email = me@home.example
`

type testApp struct {
	*App

	path string
	out  *bytes.Buffer
	err  *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	fn := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(fn, []byte(testConfig), 0o644))

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	app := NewApp(out, errOut)

	return &testApp{
		App:  app,
		path: fn,
		out:  out,
		err:  errOut,
	}
}

// run executes git-as with args against the test config file.
func (ta *testApp) run(t *testing.T, args ...string) error {
	t.Helper()

	ta.out.Reset()
	ta.err.Reset()
	// fresh options, and the file is read again
	ta.App = NewApp(ta.out, ta.err)

	cmd := NewRootCmd(ta.App)
	cmd.SetArgs(append([]string{"--file", ta.path}, args...))

	return cmd.Execute()
}

func (ta *testApp) content(t *testing.T) string {
	t.Helper()

	buf, err := os.ReadFile(ta.path)
	require.NoError(t, err)

	return string(buf)
}

func TestPresetAndClear(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "preset", "simpletest"))
	assert.Contains(t, ta.out.String(), "Applied preset simpletest (1 key)")
	assert.Contains(t, ta.content(t), "abcd = dbca")

	s, err := gitas.OpenFile(ta.path)
	require.NoError(t, err)
	v, found, err := s.Get("section.abcd")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "dbca", v)

	require.NoError(t, ta.run(t, "clear", "simpletest"))
	assert.Contains(t, ta.out.String(), "Cleared preset simpletest")
	assert.Equal(t, testConfig, ta.content(t))
}

func TestApplyAlias(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "apply", "work"))
	assert.Contains(t, ta.out.String(), `user.email (was "me@home.example")`)

	require.NoError(t, ta.run(t, "status"))
	assert.Contains(t, ta.out.String(), "work")
	assert.Contains(t, ta.out.String(), "user.email")

	require.NoError(t, ta.run(t, "clear", "--all"))
	assert.Equal(t, testConfig, ta.content(t))
}

func TestPresetErrors(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	err := ta.run(t, "preset", "first", "second")
	require.ErrorIs(t, err, gitas.ErrConflict)
	assert.Contains(t, err.Error(), "section.name")

	err = ta.run(t, "preset", "missing")
	require.ErrorIs(t, err, gitas.ErrUnknownPreset)

	require.Error(t, ta.run(t, "preset"))

	require.NoError(t, ta.run(t, "preset", "first"))
	err = ta.run(t, "preset", "first")
	require.ErrorIs(t, err, gitas.ErrAlreadyApplied)

	require.NoError(t, ta.run(t, "clear", "first"))
	assert.Equal(t, testConfig, ta.content(t))
}

func TestClearErrors(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	require.Error(t, ta.run(t, "clear"))

	require.NoError(t, ta.run(t, "preset", "simpletest"))
	err := ta.run(t, "clear", "--all", "first")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can not be combined")
	require.NoError(t, ta.run(t, "status"))
	assert.Contains(t, ta.out.String(), "simpletest")
	require.NoError(t, ta.run(t, "clear", "simpletest"))

	err = ta.run(t, "clear", "simpletest")
	require.ErrorIs(t, err, gitas.ErrNotApplied)

	require.NoError(t, ta.run(t, "clear", "--all"))
	assert.Contains(t, ta.out.String(), "No presets applied")
	assert.Equal(t, testConfig, ta.content(t))
}

func TestClearPattern(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "preset", "first", "simpletest"))
	require.NoError(t, ta.run(t, "clear", "-o", "json", "*test"))

	var res gitas.ClearResult
	require.NoError(t, json.Unmarshal(ta.out.Bytes(), &res))
	assert.Equal(t, []string{"simpletest"}, res.Cleared)

	require.NoError(t, ta.run(t, "clear", "first"))
	assert.Equal(t, testConfig, ta.content(t))
}

func TestList(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "preset", "work"))

	require.NoError(t, ta.run(t, "list"))
	assert.Contains(t, ta.out.String(), "PRESET")
	assert.Contains(t, ta.out.String(), "simpletest")

	require.NoError(t, ta.run(t, "list", "--output", "json"))
	var infos []presetInfo
	require.NoError(t, json.Unmarshal(ta.out.Bytes(), &infos))
	assert.Equal(t, []presetInfo{
		{Name: "first", Keys: 1},
		{Name: "second", Keys: 1},
		{Name: "simpletest", Keys: 1},
		{Name: "work", Keys: 1, Applied: true},
	}, infos)

	require.NoError(t, ta.run(t, "ls", "-o", "yaml", "s*"))
	infos = nil
	require.NoError(t, yaml.Unmarshal(ta.out.Bytes(), &infos))
	assert.Equal(t, []presetInfo{
		{Name: "second", Keys: 1},
		{Name: "simpletest", Keys: 1},
	}, infos)

	require.NoError(t, ta.run(t, "list", "nothing-*"))
	assert.Contains(t, ta.out.String(), "No presets defined")
}

func TestShow(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "show", "Work"))
	assert.Contains(t, ta.out.String(), "user.email = me@work.example")
	assert.NotContains(t, ta.out.String(), "applied")

	require.NoError(t, ta.run(t, "preset", "work"))
	require.NoError(t, ta.run(t, "show", "work", "-o", "yaml"))

	var detail struct {
		Name    string               `yaml:"name"`
		Entries []gitas.Entry        `yaml:"entries"`
		Applied *gitas.AppliedRecord `yaml:"applied"`
	}
	require.NoError(t, yaml.Unmarshal(ta.out.Bytes(), &detail))
	assert.Equal(t, "work", detail.Name)
	assert.Equal(t, []gitas.Entry{{Key: "user.email", Value: "me@work.example"}}, detail.Entries)
	require.NotNil(t, detail.Applied)
	assert.Equal(t, map[string]string{"user.email": "me@home.example"}, detail.Applied.Saved)

	require.ErrorIs(t, ta.run(t, "show", "missing"), gitas.ErrUnknownPreset)
}

// listFailStore fails listing keys below prefix.
type listFailStore struct {
	gitas.Store
	prefix string
}

func (l *listFailStore) List(prefix string) ([]gitas.Entry, error) {
	if prefix == l.prefix {
		return nil, errors.New("list failed")
	}

	return l.Store.List(prefix)
}

func TestShowStoreError(t *testing.T) {
	t.Parallel()

	s, err := gitas.NewMemStore(map[string]string{
		"as.preset.simpletest.section.abcd": "dbca",
	})
	require.NoError(t, err)

	app := NewApp(&bytes.Buffer{}, &bytes.Buffer{})
	app.Manager = gitas.New(&listFailStore{Store: s, prefix: "as.applied."})

	cmd := NewShowCmd(app)
	cmd.SetArgs([]string{"simpletest"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list failed")
}

func TestStatusEmpty(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	require.NoError(t, ta.run(t, "status"))
	assert.Contains(t, ta.out.String(), "No presets applied")

	require.NoError(t, ta.run(t, "status", "-o", "json"))
	assert.JSONEq(t, "[]", ta.out.String())
}

func TestBadOptions(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	err := ta.run(t, "status", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")

	err = ta.run(t, "status", "--use-git")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can not be combined")
}

func TestGitDirFlag(t *testing.T) {
	t.Parallel()

	gitDir := filepath.Join(t.TempDir(), ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte(testConfig), 0o644))

	out := &bytes.Buffer{}
	app := NewApp(out, &bytes.Buffer{})
	cmd := NewRootCmd(app)
	cmd.SetArgs([]string{"--git-dir", gitDir, "preset", "simpletest"})
	require.NoError(t, cmd.Execute())

	buf, err := os.ReadFile(filepath.Join(gitDir, "config"))
	require.NoError(t, err)
	assert.Contains(t, string(buf), "[as \"applied\"]")

	app = NewApp(out, &bytes.Buffer{})
	cmd = NewRootCmd(app)
	cmd.SetArgs([]string{"--git-dir", filepath.Join(gitDir, "config"), "status"})
	require.ErrorIs(t, cmd.Execute(), gitas.ErrNotInRepo)
}

func TestCommandsWithMemStore(t *testing.T) {
	t.Parallel()

	s, err := gitas.NewMemStore(map[string]string{
		"as.preset.simpletest.section.abcd": "dbca",
	})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	app := NewApp(out, &bytes.Buffer{})
	app.Manager = gitas.New(s)

	cmd := NewPresetCmd(app)
	cmd.SetArgs([]string{"simpletest"})
	require.NoError(t, cmd.Execute())

	v, _, err := s.Get("section.abcd")
	require.NoError(t, err)
	assert.Equal(t, "dbca", v)

	cmd = NewClearCmd(app)
	cmd.SetArgs([]string{"--all"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, 1, s.Len())
}

func TestVersion(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	out := &bytes.Buffer{}
	cmd := NewRootCmd(NewApp(out, &bytes.Buffer{}))
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "1.2.3\n", out.String())

	out.Reset()
	cmd = NewRootCmd(NewApp(out, &bytes.Buffer{}))
	cmd.SetArgs([]string{"--version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "1.2.3\n", out.String())
}

func TestCompletion(t *testing.T) {
	t.Parallel()

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out := &bytes.Buffer{}
		cmd := NewRootCmd(NewApp(out, &bytes.Buffer{}))
		cmd.SetArgs([]string{"completion", shell})
		require.NoError(t, cmd.Execute(), shell)
		assert.Contains(t, out.String(), "git-as", shell)
	}
}

func TestCompletePresets(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.File = ta.path

	names, dir := completePresets(ta.App)(nil, nil, "")
	assert.Equal(t, []string{"first", "second", "simpletest", "work"}, names)
	assert.NotZero(t, dir)

	names, _ = completeApplied(ta.App)(nil, nil, "")
	assert.Empty(t, names)
}
