package cli

import (
	"fmt"
	"io"

	gitas "github.com/cwahbong/git-as"
	"github.com/spf13/cobra"
)

// NewPresetCmd creates the preset command.
func NewPresetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "preset <name>...",
		Aliases: []string{"apply"},
		Short:   "Apply one or more presets",
		Long: `Apply writes every entry of the named presets into the local config.

All presets are checked first: unknown names, presets writing the same key,
presets that are applied already or that would take over a key of an applied
preset abort the command without changing anything. Values that get overwritten
are saved and restored by "git as clear".`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completePresets(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Open(); err != nil {
				return err
			}

			res, err := app.Manager.Apply(args...)
			if err != nil {
				if res != nil && len(res.Applied) > 0 {
					printApplied(app.Err, res.Applied)
				}

				return err
			}

			return app.render(res, func() {
				printApplied(app.Out, res.Applied)
			})
		},
	}

	return cmd
}

func printApplied(w io.Writer, records []*gitas.AppliedRecord) {
	for _, rec := range records {
		PrintSuccess(w, fmt.Sprintf("Applied preset %s (%s)", rec.Name, PrintCount(len(rec.Keys), "key", "keys")))
		PrintList(w, recordLines(rec), 1)
	}
}

// recordLines lists the keys of rec, noting the values a clear restores.
func recordLines(rec *gitas.AppliedRecord) []string {
	lines := make([]string, 0, len(rec.Keys))
	for _, k := range rec.Keys {
		if prev, found := rec.Saved[k]; found {
			lines = append(lines, fmt.Sprintf("%s (was %q)", k, prev))

			continue
		}
		lines = append(lines, k)
	}

	return lines
}
