package cli

import (
	"strconv"

	gitas "github.com/cwahbong/git-as"
	"github.com/spf13/cobra"
)

// presetInfo is one row of the list command.
type presetInfo struct {
	Name    string `json:"name" yaml:"name"`
	Keys    int    `json:"keys" yaml:"keys"`
	Applied bool   `json:"applied" yaml:"applied"`
}

// NewListCmd creates the list command.
func NewListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [pattern]",
		Aliases: []string{"ls"},
		Short:   "List defined presets",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Open(); err != nil {
				return err
			}

			var pattern string
			if len(args) > 0 {
				pattern = args[0]
			}

			infos, err := listPresets(app.Manager, pattern)
			if err != nil {
				return err
			}

			return app.render(infos, func() {
				if len(infos) == 0 {
					PrintEmptyState(app.Out, "No presets defined")

					return
				}

				rows := make([][]string, 0, len(infos))
				for _, pi := range infos {
					state := "-"
					if pi.Applied {
						state = "applied"
					}
					rows = append(rows, []string{pi.Name, strconv.Itoa(pi.Keys), state})
				}
				PrintTable(app.Out, []string{"PRESET", "KEYS", "STATE"}, rows)
			})
		},
	}

	return cmd
}

func listPresets(m *gitas.Manager, pattern string) ([]presetInfo, error) {
	names, err := m.Registry().Names()
	if err != nil {
		return nil, err
	}

	names, err = gitas.MatchNames(pattern, names)
	if err != nil {
		return nil, err
	}

	records, err := m.Applied()
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(records))
	for _, rec := range records {
		applied[rec.Name] = true
	}

	infos := make([]presetInfo, 0, len(names))
	for _, name := range names {
		// invalid definitions are listed without keys
		var keys int
		if p, err := m.Registry().Resolve(name); err == nil {
			keys = len(p.Entries)
		}
		infos = append(infos, presetInfo{
			Name:    name,
			Keys:    keys,
			Applied: applied[name],
		})
	}

	return infos, nil
}
