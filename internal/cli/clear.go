package cli

import (
	"errors"
	"fmt"
	"strings"

	gitas "github.com/cwahbong/git-as"
	"github.com/spf13/cobra"
)

// NewClearCmd creates the clear command.
func NewClearCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [--all] [<name|pattern>...]",
		Short: "Clear applied presets",
		Long: `Clear removes the entries an applied preset wrote and restores the values
it replaced. Targets are preset names or glob patterns like "dev-*".
With --all every applied preset is cleared.`,
		ValidArgsFunction: completeApplied(app),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("specify presets to clear or use --all")
			}
			if all && len(args) > 0 {
				return fmt.Errorf("--all can not be combined with preset names (got %s)", strings.Join(args, ", "))
			}

			if err := app.Open(); err != nil {
				return err
			}

			targets := args
			if all {
				targets = []string{gitas.AllPresets}
			}

			res, err := app.Manager.Clear(targets...)
			if err != nil {
				var ce *gitas.ClearError
				if errors.As(err, &ce) && len(ce.Cleared) > 0 {
					PrintWarning(app.Err, "Cleared "+PrintCount(len(ce.Cleared), "preset", "presets")+" before the failure:")
					PrintList(app.Err, ce.Cleared, 1)
				}

				return err
			}

			return app.render(res, func() {
				if len(res.Cleared) == 0 {
					PrintWarning(app.Out, "No presets applied")

					return
				}
				for _, name := range res.Cleared {
					PrintSuccess(app.Out, fmt.Sprintf("Cleared preset %s", name))
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Clear every applied preset")

	return cmd
}
