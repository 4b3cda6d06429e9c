package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/staabm/platformsh-cli/internal/api"
	"github.com/staabm/platformsh-cli/internal/config"
	"github.com/staabm/platformsh-cli/internal/errors"
	"github.com/staabm/platformsh-cli/internal/git"
	"github.com/staabm/platformsh-cli/internal/logger"
	"github.com/staabm/platformsh-cli/internal/ui"
	"github.com/staabm/platformsh-cli/internal/util"
	"github.com/staabm/platformsh-cli/pkg/sshutil"
)

// noWaitEnvVar signals the remote build system not to hold the connection
// open for the build. It travels with the push via SSH SendEnv.
const noWaitEnvVar = "PLATFORMSH_PUSH_NO_WAIT"

// Push command flags
var (
	pushActivate       bool
	pushParent         string
	pushForce          bool
	pushForceWithLease bool
	pushDryRun         bool
	pushNoWait         bool
)

var pushCmd = &cobra.Command{
	Use:     "environment:push [source-ref]",
	Aliases: []string{"push"},
	Short:   "Push code to an environment",
	Long: `Push a local ref to a project environment.

The target environment is taken from --environment, or from the currently
checked-out branch. Pushing to the production branch asks for confirmation.
If the target environment does not exist or is inactive, it can be
activated after the push, with a parent environment of your choice.

Examples:
  platform push
  platform push --environment feature-x --activate
  platform environment:push my-branch -e staging --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := "HEAD"
		if len(args) == 1 {
			source = args[0]
		}

		ctx, err := newCommandContext(true)
		if err != nil {
			return err
		}

		d := newPushDeps(ctx)
		return runPush(d, pushOptions{
			Source:         source,
			Target:         environmentFlag,
			Activate:       pushActivate,
			ActivateSet:    cmd.Flags().Changed("activate"),
			Parent:         pushParent,
			Force:          pushForce,
			ForceWithLease: pushForceWithLease,
			DryRun:         pushDryRun,
			NoWait:         pushNoWait,
		})
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().BoolVar(&pushActivate, "activate", false, "activate the environment after pushing")
	pushCmd.Flags().StringVar(&pushParent, "parent", "", "parent environment for activation (default: the production branch)")
	pushCmd.Flags().BoolVarP(&pushForce, "force", "f", false, "pass --force to git push")
	pushCmd.Flags().BoolVar(&pushForceWithLease, "force-with-lease", false, "pass --force-with-lease to git push")
	pushCmd.Flags().BoolVar(&pushDryRun, "dry-run", false, "pass --dry-run to git push; skips all post-push steps")
	pushCmd.Flags().BoolVarP(&pushNoWait, "no-wait", "W", false, "do not wait for builds and activities to finish")
}

// pushOptions are the resolved command-line options for one push.
type pushOptions struct {
	Source string
	Target string

	// Activate is the --activate flag value; ActivateSet records whether
	// the flag was given at all, since its absence means "decide by prompt".
	Activate    bool
	ActivateSet bool

	Parent string

	Force          bool
	ForceWithLease bool
	DryRun         bool
	NoWait         bool
}

// platformAPI is the slice of the API client the push and activation
// workflows use. *api.Client satisfies it; tests substitute a fake.
type platformAPI interface {
	GetProject(id string) (*api.Project, error)
	GetEnvironment(projectID, id string, refresh bool) (*api.Environment, error)
	ListEnvironments(projectID string, refresh bool) ([]*api.Environment, error)
	SetEnvironmentParent(projectID, envID, parent string) ([]*api.Activity, error)
	ActivateEnvironment(projectID, envID string) ([]*api.Activity, error)
}

// pushDeps gathers everything the workflow touches, so tests can run the
// whole flow against fakes without a git binary, a terminal, or a network.
type pushDeps struct {
	cfg       *config.Config
	projectID string
	root      string

	api   platformAPI
	store *api.Store

	prompter    ui.Prompter
	interactive bool
	assumeYes   bool

	currentBranch func(dir string) (string, error)
	ensureRemote  func(dir, name, url string) error
	push          func(dir string, opts git.PushOptions) (int, error)
	wait          func(projectID string, activities []*api.Activity) error

	stdout io.Writer
	stderr io.Writer
	log    logger.Logger
}

func newPushDeps(ctx *commandContext) *pushDeps {
	return &pushDeps{
		cfg:           ctx.cfg,
		projectID:     ctx.projectID,
		root:          ctx.root,
		api:           ctx.client,
		store:         ctx.store,
		prompter:      ui.HuhPrompter{},
		interactive:   interactive(),
		assumeYes:     yesFlag,
		currentBranch: git.CurrentBranch,
		ensureRemote:  git.EnsureRemote,
		push:          git.Push,
		wait:          newActivityWaiter(ctx),
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		log:           ctx.log,
	}
}

// newActivityWaiter builds the real waiter: sequential polling with a
// spinner tracking the activity currently in flight.
func newActivityWaiter(ctx *commandContext) func(string, []*api.Activity) error {
	return func(projectID string, activities []*api.Activity) error {
		if len(activities) == 0 {
			return nil
		}

		spinner := ui.NewSpinner(activityLabel(activities[0]))
		spinner.Start()

		w := api.NewWaiter(ctx.client)
		w.Progress = func(a *api.Activity) {
			spinner.SetLabel(activityLabel(a))
		}

		err := w.Wait(projectID, activities)
		if err != nil {
			spinner.Fail()
			return err
		}
		spinner.SetLabel(activitySummary(len(activities)))
		spinner.Success()
		return nil
	}
}

func activityLabel(a *api.Activity) string {
	if a.Description != "" {
		return a.Description
	}
	return a.Type
}

// activitySummary describes a finished batch of activities.
func activitySummary(n int) string {
	return fmt.Sprintf("%d %s complete", n, util.Pluralize(n, "activity", "activities"))
}

// runPush drives the push workflow: validation, confirmation, the git
// push itself, cache invalidation, and optional activation.
func runPush(d *pushDeps, opts pushOptions) error {
	// Reject refspec syntax before touching git or the network.
	if strings.Contains(opts.Source, ":") {
		return errors.New(errors.ErrGit,
			"Source ref must not contain ':'",
			"Pass a single ref; the target branch comes from --environment")
	}

	if d.root == "" {
		return errors.New(errors.ErrConfig,
			"Not inside a project checkout",
			"Run from a directory containing .platform/local/project.yaml")
	}

	target, err := resolveTarget(d, opts.Target)
	if err != nil {
		return err
	}

	project, err := d.api.GetProject(d.projectID)
	if err != nil {
		return err
	}

	production := target == d.cfg.Git.ProductionBranch

	if production {
		ok, err := confirmProductionPush(d, target)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New(errors.ErrState, "Push cancelled", "")
		}
	}

	activate, err := decideActivation(d, opts, target, production)
	if err != nil {
		return err
	}

	// Parent resolution happens before the push so a bad --parent fails
	// the whole command without touching the remote repository.
	var parent string
	if activate {
		parent, err = resolveParent(d, opts.Parent, target)
		if err != nil {
			return err
		}
	}

	if err := d.ensureRemote(d.root, d.cfg.Git.RemoteName, project.GitURL); err != nil {
		return err
	}

	code, err := d.push(d.root, buildPushOptions(d, opts, target, project))
	if err != nil {
		return err
	}
	if code != 0 {
		return errors.New(errors.ErrGit,
			fmt.Sprintf("git push exited with code %d", code),
			"Inspect the git output above")
	}

	if opts.DryRun {
		fmt.Fprintln(d.stdout, "Dry run complete; nothing was pushed.")
		return nil
	}

	invalidateCaches(d, target)

	if activate {
		return activateEnvironment(d, target, parent, opts.NoWait)
	}
	return nil
}

// resolveTarget picks the target branch: the --environment flag, or the
// currently checked-out branch.
func resolveTarget(d *pushDeps, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	branch, err := d.currentBranch(d.root)
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", errors.New(errors.ErrGit,
			"Cannot determine the target environment",
			"Check out a branch, or specify one with --environment")
	}
	return branch, nil
}

// confirmProductionPush gates pushes to the production branch behind an
// explicit yes. Declining is not an error here; the caller turns it into
// a cancelled push.
func confirmProductionPush(d *pushDeps, branch string) (bool, error) {
	if d.assumeYes {
		return true, nil
	}
	if !d.interactive {
		return false, errors.New(errors.ErrState,
			fmt.Sprintf("Refusing to push to the production branch '%s' without confirmation", branch),
			"Re-run with --yes, or run interactively")
	}
	return d.prompter.Confirm(
		fmt.Sprintf("Push to the production branch '%s'?", branch), false)
}

// decideActivation determines whether the pushed environment should be
// activated afterwards. Production is always active, so the question only
// arises for other branches whose environment is missing or inactive.
func decideActivation(d *pushDeps, opts pushOptions, target string, production bool) (bool, error) {
	if production {
		return false, nil
	}

	env, err := d.api.GetEnvironment(d.projectID, target, false)
	if err != nil {
		return false, err
	}
	if env != nil && env.IsActive() {
		return false, nil
	}

	if opts.ActivateSet {
		return opts.Activate, nil
	}
	if d.assumeYes {
		return true, nil
	}
	if !d.interactive {
		return false, nil
	}
	return d.prompter.Confirm(
		fmt.Sprintf("Activate environment '%s' after pushing?", target), true)
}

// resolveParent picks and validates the parent environment used for
// activation. The parent must already exist.
func resolveParent(d *pushDeps, explicit, target string) (string, error) {
	parent := explicit
	if parent == "" {
		parent = d.cfg.Git.ProductionBranch

		if d.interactive {
			suggestions := parentSuggestions(d, target)
			answer, err := d.prompter.Input("Parent environment", parent, suggestions)
			if err != nil {
				return "", err
			}
			parent = answer
		}
	}

	env, err := d.api.GetEnvironment(d.projectID, parent, false)
	if err != nil {
		return "", err
	}
	if env == nil {
		return "", errors.New(errors.ErrState,
			"Parent environment not found: "+parent,
			"Create it first, or choose another parent with --parent")
	}
	return parent, nil
}

// parentSuggestions lists environment IDs for the parent prompt's
// autocompletion. Best effort: listing failures just mean no suggestions.
func parentSuggestions(d *pushDeps, target string) []string {
	envs, err := d.api.ListEnvironments(d.projectID, false)
	if err != nil {
		d.log.Debug("no parent suggestions: %v", err)
		return nil
	}

	var ids []string
	for _, e := range envs {
		if e.ID != target {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// buildPushOptions assembles the git push invocation, including the SSH
// command injected through GIT_SSH_COMMAND.
func buildPushOptions(d *pushDeps, opts pushOptions, target string, project *api.Project) git.PushOptions {
	identity := d.cfg.SSH.IdentityFile
	if identity == "" {
		identity = sshutil.LookupIdentityFile(gitHost(project.GitURL))
	}

	sshOpts := sshutil.CommandOptions{
		Executable:   d.cfg.SSH.Executable,
		IdentityFile: identity,
		Options:      d.cfg.SSH.Options,
	}

	var env []string
	if opts.NoWait {
		sshOpts.SendEnv = []string{noWaitEnvVar}
		env = append(env, noWaitEnvVar+"=1")
	}

	return git.PushOptions{
		Remote:         d.cfg.Git.RemoteName,
		SourceRef:      opts.Source,
		TargetBranch:   target,
		Force:          opts.Force,
		ForceWithLease: opts.ForceWithLease,
		DryRun:         opts.DryRun,
		SSHCommand:     sshutil.BuildCommand(sshOpts),
		Env:            env,
		Stdout:         d.stdout,
		Stderr:         d.stderr,
	}
}

// gitHost extracts the host from an scp-style git URL such as
// "abc123@git.eu.platform.sh:abc123.git".
func gitHost(gitURL string) string {
	rest := gitURL
	if _, after, found := strings.Cut(rest, "@"); found {
		rest = after
	}
	host, _, _ := strings.Cut(rest, ":")
	return host
}

// invalidateCaches drops local state made stale by a successful push: the
// environment list and the target environment's connection metadata. A
// missing entry, or an environment never connected to, is fine.
func invalidateCaches(d *pushDeps, target string) {
	if d.store == nil {
		return
	}

	if meta, ok := d.store.ReadSSHMetadata(d.projectID, target); ok && meta.Certificate != "" {
		if cert, err := sshutil.ParseCertificate(meta.Certificate); err == nil {
			if sshutil.CertificateValidAt(cert, time.Now()) {
				fmt.Fprintf(d.stdout,
					"Discarding the SSH certificate for '%s'; a new one will be issued on the next connection.\n",
					target)
			}
		}
	}

	if err := d.store.ClearSSHMetadata(d.projectID, target); err != nil {
		d.log.Warn("failed to clear SSH metadata: %v", err)
	}
	if err := d.store.ClearEnvironments(d.projectID); err != nil {
		d.log.Warn("failed to clear environment cache: %v", err)
	}
}

// activateEnvironment brings the target environment up after a push. The
// environment state is re-read first: an environment that disappeared or
// is already active makes activation a clean no-op. The parent is
// reassigned before activation when it differs, and the resulting
// activities are waited on in the order the API returned them.
func activateEnvironment(d *pushDeps, target, parent string, noWait bool) error {
	env, err := d.api.GetEnvironment(d.projectID, target, true)
	if err != nil {
		return err
	}
	if env == nil {
		fmt.Fprintf(d.stdout, "Environment '%s' not found; skipping activation.\n", target)
		return nil
	}
	if env.IsActive() {
		fmt.Fprintf(d.stdout, "Environment '%s' is already active.\n", target)
		return nil
	}

	var activities []*api.Activity

	if parent != "" && env.Parent != parent {
		acts, err := d.api.SetEnvironmentParent(d.projectID, target, parent)
		if err != nil {
			return err
		}
		activities = append(activities, acts...)
	}

	acts, err := d.api.ActivateEnvironment(d.projectID, target)
	if err != nil {
		return err
	}
	activities = append(activities, acts...)

	if noWait {
		fmt.Fprintf(d.stdout, "Activation of '%s' is in progress.\n", target)
		return nil
	}

	if err := d.wait(d.projectID, activities); err != nil {
		return err
	}
	fmt.Fprintf(d.stdout, "Environment '%s' is now active.\n", target)
	return nil
}
