// Package cli wires the cobra command tree: push, activation, environment
// listing, drush alias generation, and the usual version/completion
// plumbing.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/staabm/platformsh-cli/internal/api"
	"github.com/staabm/platformsh-cli/internal/config"
	"github.com/staabm/platformsh-cli/internal/errors"
	"github.com/staabm/platformsh-cli/internal/logger"
	"github.com/staabm/platformsh-cli/internal/ui"
)

// Persistent flags shared across commands.
var (
	projectFlag     string
	environmentFlag string
	yesFlag         bool
	configFlag      string
)

var rootCmd = &cobra.Command{
	Use:   "platform",
	Short: "Manage platform projects and environments",
	Long: `platform is a command-line client for the platform PaaS: it pushes code,
manages environments, and integrates with local tooling like Drush.

Run 'platform push' inside a project checkout to deploy the current branch.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "project ID (default: detected from the current checkout)")
	rootCmd.PersistentFlags().StringVarP(&environmentFlag, "environment", "e", "", "environment ID")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "answer yes to all prompts; disables interaction")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to a config file (default: ~/.config/platform/config.yaml)")
}

// Execute runs the root command and exits the process on error. Every
// failure, including a declined confirmation, exits with code 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext bundles what most commands need: merged configuration,
// the project checkout (when present), and an API client.
type commandContext struct {
	cfg       *config.Config
	root      string // project checkout root, empty outside a checkout
	projectID string
	client    *api.Client
	store     *api.Store
	log       logger.Logger
}

// newCommandContext loads configuration and resolves the project. The
// project ID comes from --project, falling back to the checkout's
// association file. With requireProject set, failing to resolve one is an
// error.
func newCommandContext(requireProject bool) (*commandContext, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, err
	}

	ctx := &commandContext{
		cfg:       cfg,
		projectID: projectFlag,
		log:       logger.NewEnvLogger("[cli]"),
	}

	cwd, err := os.Getwd()
	if err == nil {
		ctx.root = config.FindProjectRoot(cwd)
	}

	if ctx.projectID == "" && ctx.root != "" {
		proj, err := config.LoadProject(ctx.root)
		if err != nil {
			return nil, err
		}
		ctx.projectID = proj.ID

		// The association's region host picks the API endpoint unless the
		// config file or environment already chose one.
		if url := proj.APIBaseURL(); url != "" && cfg.API.BaseURL == config.Defaults().API.BaseURL {
			cfg.API.BaseURL = url
		}
	}

	if requireProject && ctx.projectID == "" {
		return nil, errors.New(errors.ErrConfig,
			"No project specified",
			"Use --project, or run inside a project checkout")
	}

	// A broken cache never blocks a command; it only costs API calls.
	store, err := api.NewStore()
	if err != nil {
		ctx.log.Warn("cache unavailable: %v", err)
		store = nil
	}
	ctx.store = store
	ctx.client = api.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout, store)

	return ctx, nil
}

// interactive reports whether prompting is allowed: stdin must be a
// terminal and --yes must not be set.
func interactive() bool {
	return !yesFlag && ui.Interactive()
}
