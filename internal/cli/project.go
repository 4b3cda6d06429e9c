package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/staabm/platformsh-cli/internal/config"
)

var setRemoteHost string

var setRemoteCmd = &cobra.Command{
	Use:   "project:set-remote <project-id>",
	Short: "Associate this checkout with a project",
	Long: `Write the project association for the current checkout and point the
git remote at the project's repository.

Subsequent commands run from this checkout pick up the project ID (and
the region host, if given) without needing --project.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newCommandContext(false)
		if err != nil {
			return err
		}

		root := ctx.root
		if root == "" {
			root, err = os.Getwd()
			if err != nil {
				return err
			}
		}

		ctx.projectID = args[0]
		d := newPushDeps(ctx)
		return runSetRemote(d, root, args[0], setRemoteHost)
	},
}

func init() {
	rootCmd.AddCommand(setRemoteCmd)
	setRemoteCmd.Flags().StringVar(&setRemoteHost, "host", "", "region host used to derive the API endpoint")
}

// runSetRemote writes the project association file and configures the git
// remote. An existing association's alias group (and host, when --host is
// not given) carries over.
func runSetRemote(d *pushDeps, root, projectID, host string) error {
	project, err := d.api.GetProject(projectID)
	if err != nil {
		return err
	}

	assoc := &config.Project{ID: projectID, Host: host}
	if existing, err := config.LoadProject(root); err == nil {
		assoc.AliasGroup = existing.AliasGroup
		if host == "" {
			assoc.Host = existing.Host
		}
	}

	if err := config.SaveProject(root, assoc); err != nil {
		return err
	}

	if err := d.ensureRemote(root, d.cfg.Git.RemoteName, project.GitURL); err != nil {
		return err
	}

	fmt.Fprintf(d.stdout, "Checkout associated with project '%s' (git remote '%s').\n",
		project.Title, d.cfg.Git.RemoteName)
	return nil
}
