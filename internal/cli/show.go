package cli

import (
	"errors"
	"fmt"

	gitas "github.com/cwahbong/git-as"
	"github.com/spf13/cobra"
)

type presetDetail struct {
	gitas.Preset `yaml:",inline"`

	Applied *gitas.AppliedRecord `json:"applied,omitempty" yaml:"applied,omitempty"`
}

// NewShowCmd creates the show command.
func NewShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "show <name>",
		Short:             "Show the entries of a preset",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completePresets(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Open(); err != nil {
				return err
			}

			p, err := app.Manager.Registry().Resolve(args[0])
			if err != nil {
				return err
			}

			detail := presetDetail{Preset: p}
			rec, err := app.Manager.Record(p.Name)
			switch {
			case err == nil:
				detail.Applied = rec
			case !errors.Is(err, gitas.ErrNotApplied):
				return err
			}

			return app.render(detail, func() {
				PrintSection(app.Out, "Preset "+p.Name)
				lines := make([]string, 0, len(p.Entries))
				for _, e := range p.Entries {
					lines = append(lines, fmt.Sprintf("%s = %s", e.Key, e.Value))
				}
				PrintList(app.Out, lines, 1)
				if detail.Applied != nil {
					PrintSuccess(app.Out, "applied")
				}
			})
		},
	}

	return cmd
}
