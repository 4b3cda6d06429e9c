package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/staabm/platformsh-cli/internal/api"
	"github.com/staabm/platformsh-cli/internal/ui"
)

var environmentsRefresh bool

var environmentsCmd = &cobra.Command{
	Use:     "environment:list",
	Aliases: []string{"environments"},
	Short:   "List the project's environments",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newCommandContext(true)
		if err != nil {
			return err
		}

		envs, err := ctx.client.ListEnvironments(ctx.projectID, environmentsRefresh)
		if err != nil {
			return err
		}

		printEnvironments(os.Stdout, envs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(environmentsCmd)
	environmentsCmd.Flags().BoolVar(&environmentsRefresh, "refresh", false, "bypass the local environment cache")
}

func printEnvironments(w *os.File, envs []*api.Environment) {
	sorted := make([]*api.Environment, len(envs))
	copy(sorted, envs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	headerStyle := lipgloss.NewStyle().Foreground(ui.ColorSecondary).Bold(true)
	activeStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+headerStyle.Render("STATUS")+"\t"+headerStyle.Render("PARENT"))

	for _, e := range sorted {
		status := e.Status
		if e.IsActive() {
			status = activeStyle.Render(status)
		} else {
			status = mutedStyle.Render(status)
		}

		parent := e.Parent
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, status, parent)
	}

	tw.Flush() //nolint:errcheck // writing to stdout
}
