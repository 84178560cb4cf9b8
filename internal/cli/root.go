package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// SetVersion sets the version printed by --version and the version command.
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// Execute runs git-as with the process arguments.
func Execute() error {
	app := NewApp(os.Stdout, os.Stderr)

	return NewRootCmd(app).Execute()
}

// NewRootCmd creates the git-as command tree operating on app.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "git-as",
		Version: version,
		Short:   "Apply and clear named presets of git config",
		Long: `git-as switches groups of local git config entries on and off.

A preset is defined in the config itself, e.g.

  git config as.preset.work.user.email me@work.example

"git as preset work" writes user.email and remembers it did, "git as clear work"
puts the previous value back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.SetOut(app.Out)
	rootCmd.SetErr(app.Err)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&app.File, "file", "f", app.File, "Use the given config file instead of the repository config")
	flags.StringVar(&app.GitDir, "git-dir", app.GitDir, "Path to the git directory (default: search from cwd)")
	flags.BoolVar(&app.UseGit, "use-git", app.UseGit, "Run the git binary instead of editing the config file")
	flags.StringVarP(&app.Output, "output", "o", app.Output, "Output format: text, json or yaml")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "presets",
		Title: "Presets:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	for _, cmd := range []*cobra.Command{
		NewPresetCmd(app),
		NewClearCmd(app),
		NewListCmd(app),
		NewShowCmd(app),
		NewStatusCmd(app),
	} {
		cmd.GroupID = "presets"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:     "version",
		Short:   "Print the git-as version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	})
	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.SetHelpCommandGroupID("cli-tooling")

	return rootCmd
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: "cli-tooling",
		Long: `Generate the autocompletion script for git-as for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "bash",
		Short:                 "Generate the autocompletion script for bash",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletionV2(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "zsh",
		Short:                 "Generate the autocompletion script for zsh",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "fish",
		Short:                 "Generate the autocompletion script for fish",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "powershell",
		Short:                 "Generate the autocompletion script for powershell",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		},
	})

	return completionCmd
}

// completePresets completes preset names defined in the store.
func completePresets(app *App) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if err := app.Open(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		names, err := app.Manager.Registry().Names()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeApplied completes names of applied presets.
func completeApplied(app *App) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if err := app.Open(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		records, err := app.Manager.Applied()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		names := make([]string, 0, len(records))
		for _, rec := range records {
			names = append(names, rec.Name)
		}

		return names, cobra.ShellCompDirectiveNoFileComp
	}
}
