// Package cli implements the git-as command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	gitas "github.com/cwahbong/git-as"
	"github.com/gopasspw/gopass/pkg/debug"
)

// App holds the state shared by all commands. Commands open the store lazily
// through Open, tests can set Manager directly.
type App struct {
	Manager *gitas.Manager
	Out     io.Writer
	Err     io.Writer

	// Output is one of OutputText, OutputJSON or OutputYAML.
	Output string
	// File selects an explicit config file instead of the local repository
	// config.
	File string
	// GitDir overrides repository discovery.
	GitDir string
	// UseGit runs the git binary instead of editing the config file directly.
	UseGit bool
}

// NewApp creates an App writing to out and errOut.
func NewApp(out, errOut io.Writer) *App {
	return &App{
		Out:    out,
		Err:    errOut,
		Output: OutputText,
	}
}

// Open validates the global options and opens the store once.
func (app *App) Open() error {
	if err := checkOutput(app.Output); err != nil {
		return err
	}

	if app.Manager != nil {
		return nil
	}

	store, err := app.openStore()
	if err != nil {
		return err
	}
	app.Manager = gitas.New(store)

	return nil
}

func (app *App) openStore() (gitas.Store, error) {
	if app.File != "" {
		if app.UseGit {
			return nil, errors.New("--file and --use-git can not be combined")
		}
		debug.Log("using config file %s", app.File)

		return gitas.OpenFile(app.File)
	}

	gitDir := app.GitDir
	if gitDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}

		if app.UseGit {
			// git does its own discovery
			return gitas.NewGitStore(cwd)
		}

		return gitas.OpenLocal(cwd)
	}

	if app.UseGit {
		return gitas.NewGitStore(gitDir)
	}

	fi, err := os.Stat(gitDir)
	if err != nil {
		return nil, fmt.Errorf("cannot access git dir %s: %w", gitDir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", gitas.ErrNotInRepo, gitDir)
	}

	return gitas.OpenFile(gitas.ConfigPath(gitDir))
}

func (app *App) render(v any, text func()) error {
	return render(app.Out, app.Output, v, text)
}
