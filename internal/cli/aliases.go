package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/staabm/platformsh-cli/internal/app"
	"github.com/staabm/platformsh-cli/internal/config"
	"github.com/staabm/platformsh-cli/internal/drush"
	"github.com/staabm/platformsh-cli/internal/errors"
)

var (
	aliasesGroup string
	aliasesPipe  bool
)

var aliasesCmd = &cobra.Command{
	Use:   "drush:aliases",
	Short: "Generate Drush site aliases for the project",
	Long: `Generate Drush site alias files for every Drupal application in the
project, covering each remote environment plus the local checkout.

The alias file format follows the installed Drush version: YAML site
files for Drush 9 and later, PHP alias files for older releases, and
both when the version cannot be determined.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newCommandContext(true)
		if err != nil {
			return err
		}
		if ctx.root == "" {
			return errors.New(errors.ErrConfig,
				"Not inside a project checkout",
				"Drush aliases are generated from the local applications; run inside a checkout")
		}

		group := resolveAliasGroup(aliasesGroup, localProject(ctx.root), ctx.cfg, ctx.projectID)

		if aliasesPipe {
			fmt.Println(group)
			return nil
		}

		apps, err := app.Discover(ctx.root)
		if err != nil {
			return err
		}

		project, err := ctx.client.GetProject(ctx.projectID)
		if err != nil {
			return err
		}

		envs, err := ctx.client.ListEnvironments(ctx.projectID, false)
		if err != nil {
			return err
		}

		dr := drush.New(ctx.root, ctx.cfg.Drush)
		if err := dr.CreateAliases(project, envs, apps, group); err != nil {
			return err
		}

		fmt.Printf("Aliases created. Use them with: drush @%s.<environment> status\n", group)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(aliasesCmd)
	aliasesCmd.Flags().StringVar(&aliasesGroup, "group", "", "alias group name (default: the project ID)")
	aliasesCmd.Flags().BoolVar(&aliasesPipe, "pipe", false, "print the alias group name and exit")
}

// localProject loads the checkout's project association, or nil when it
// cannot be read. Only the optional alias group override is needed here.
func localProject(root string) *config.Project {
	p, err := config.LoadProject(root)
	if err != nil {
		return nil
	}
	return p
}

// resolveAliasGroup picks the alias group name, most specific source
// first: the --group flag, the checkout's association file, the global
// config, and finally the project ID.
func resolveAliasGroup(flag string, proj *config.Project, cfg *config.Config, projectID string) string {
	if flag != "" {
		return flag
	}
	if proj != nil && proj.AliasGroup != "" {
		return proj.AliasGroup
	}
	if cfg.Drush.AliasGroup != "" {
		return cfg.Drush.AliasGroup
	}
	return projectID
}
