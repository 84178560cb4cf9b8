package cli

import (
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the applied presets and the keys they own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Open(); err != nil {
				return err
			}

			records, err := app.Manager.Applied()
			if err != nil {
				return err
			}

			return app.render(records, func() {
				if len(records) == 0 {
					PrintEmptyState(app.Out, "No presets applied")

					return
				}
				for _, rec := range records {
					PrintSection(app.Out, rec.Name)
					PrintList(app.Out, recordLines(rec), 1)
				}
			})
		},
	}

	return cmd
}
