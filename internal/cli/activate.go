package cli

import (
	"github.com/spf13/cobra"
	"github.com/staabm/platformsh-cli/internal/ui"
)

var (
	activateParent string
	activateNoWait bool
)

var activateCmd = &cobra.Command{
	Use:   "environment:activate",
	Short: "Activate an inactive environment",
	Long: `Activate an environment that exists but is not deployed.

The environment is taken from --environment; without it, an interactive
picker is shown. The parent environment can be reassigned at the same
time with --parent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newCommandContext(true)
		if err != nil {
			return err
		}

		target := environmentFlag
		if target == "" {
			target, err = pickEnvironment(ctx)
			if err != nil {
				return err
			}
			if target == "" {
				// Picker cancelled.
				return nil
			}
		}

		d := newPushDeps(ctx)

		parent := activateParent
		if parent != "" {
			parent, err = resolveParent(d, parent, target)
			if err != nil {
				return err
			}
		}

		return activateEnvironment(d, target, parent, activateNoWait)
	},
}

func init() {
	rootCmd.AddCommand(activateCmd)
	activateCmd.Flags().StringVar(&activateParent, "parent", "", "reassign the parent environment before activating")
	activateCmd.Flags().BoolVarP(&activateNoWait, "no-wait", "W", false, "do not wait for activation to finish")
}

// pickEnvironment shows the interactive environment picker over the
// project's inactive environments. Returns "" when the user cancels.
func pickEnvironment(ctx *commandContext) (string, error) {
	envs, err := ctx.client.ListEnvironments(ctx.projectID, false)
	if err != nil {
		return "", err
	}

	var items []ui.EnvironmentInfo
	for _, e := range envs {
		if e.IsActive() {
			continue
		}
		items = append(items, ui.EnvironmentInfo{
			ID:     e.ID,
			Parent: e.Parent,
			Status: e.Status,
		})
	}

	selected, err := ui.PickEnvironment(items)
	if err != nil {
		return "", err
	}
	if selected == nil {
		return "", nil
	}
	return selected.ID, nil
}
