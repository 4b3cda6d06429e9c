package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/staabm/platformsh-cli/internal/api"
	"github.com/staabm/platformsh-cli/internal/config"
	"github.com/staabm/platformsh-cli/internal/errors"
	"github.com/staabm/platformsh-cli/internal/git"
	"github.com/staabm/platformsh-cli/internal/logger"
	"github.com/staabm/platformsh-cli/pkg/sshutil"
)

var sshPipe bool

var sshCmd = &cobra.Command{
	Use:     "environment:ssh [command]",
	Aliases: []string{"ssh"},
	Short:   "SSH into an environment",
	Long: `Open an SSH session to an environment, or run a single remote command.

The environment is taken from --environment, or from the currently
checked-out branch. A short-lived SSH certificate is requested from the
API and cached; it is reused until it expires or a push invalidates it.

Examples:
  platform ssh
  platform ssh -e staging
  platform environment:ssh -e main "tail -f /var/log/app.log"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := newCommandContext(true)
		if err != nil {
			return err
		}

		d := newSSHDeps(ctx)

		target := environmentFlag
		if target == "" {
			if ctx.root == "" {
				return errors.New(errors.ErrConfig,
					"Cannot determine the environment",
					"Use --environment, or run inside a project checkout")
			}
			target, err = git.CurrentBranch(ctx.root)
			if err != nil {
				return err
			}
			if target == "" {
				return errors.New(errors.ErrGit,
					"Cannot determine the environment",
					"Check out a branch, or specify one with --environment")
			}
		}

		return runSSH(d, target, args, sshPipe)
	},
}

func init() {
	rootCmd.AddCommand(sshCmd)
	sshCmd.Flags().BoolVar(&sshPipe, "pipe", false, "print the SSH command instead of running it")
}

// sshAPI is the slice of the API client the ssh command uses.
type sshAPI interface {
	GetEnvironment(projectID, id string, refresh bool) (*api.Environment, error)
	GetSSHCertificate(projectID, envID string) (string, error)
}

// sshDeps carries the ssh command's dependencies, swappable in tests.
type sshDeps struct {
	cfg       *config.Config
	projectID string

	api   sshAPI
	store *api.Store

	run func(name string, args []string, stdout, stderr io.Writer) (int, error)
	now func() time.Time

	stdout io.Writer
	stderr io.Writer
	log    logger.Logger
}

func newSSHDeps(ctx *commandContext) *sshDeps {
	return &sshDeps{
		cfg:       ctx.cfg,
		projectID: ctx.projectID,
		api:       ctx.client,
		store:     ctx.store,
		run:       runInteractive,
		now:       time.Now,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		log:       ctx.log,
	}
}

// runInteractive executes a command attached to the user's terminal.
// A non-zero exit is reported through the exit code, not the error.
func runInteractive(name string, args []string, stdout, stderr io.Writer) (int, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Couldn't run ssh",
			"Make sure ssh is installed and on your PATH")
	}
	return 0, nil
}

// runSSH connects to the target environment, ensuring a usable cached SSH
// certificate first.
func runSSH(d *sshDeps, target string, remoteArgs []string, pipe bool) error {
	env, err := d.api.GetEnvironment(d.projectID, target, false)
	if err != nil {
		return err
	}
	if env == nil {
		return errors.New(errors.ErrAPI,
			"Environment not found: "+target,
			"Check the environment ID, or push the branch first")
	}

	user, host, err := env.SSHParts()
	if err != nil {
		return err
	}

	certFile, err := ensureCertificate(d, env, user, host)
	if err != nil {
		return err
	}

	identity := d.cfg.SSH.IdentityFile
	if identity == "" {
		identity = sshutil.LookupIdentityFile(host)
	}

	opts := sshutil.CommandOptions{
		Executable:      d.cfg.SSH.Executable,
		IdentityFile:    identity,
		Options:         d.cfg.SSH.Options,
		CertificateFile: certFile,
	}

	if pipe {
		fmt.Fprintln(d.stdout, sshutil.BuildCommand(opts)+" "+user+"@"+host)
		return nil
	}

	name, args := sshutil.BuildArgs(opts)
	args = append(args, user+"@"+host)
	if len(remoteArgs) > 0 {
		args = append(args, strings.Join(remoteArgs, " "))
	}

	code, err := d.run(name, args, d.stdout, d.stderr)
	if err != nil {
		return err
	}
	if code != 0 {
		return errors.New(errors.ErrSSH,
			fmt.Sprintf("ssh exited with code %d", code),
			"Inspect the ssh output above")
	}
	return nil
}

// ensureCertificate returns the path of a valid cached SSH certificate for
// the environment, requesting a fresh one from the API when nothing usable
// is cached. Without a cache store the session proceeds uncertified.
func ensureCertificate(d *sshDeps, env *api.Environment, user, host string) (string, error) {
	if d.store == nil {
		return "", nil
	}

	if meta, ok := d.store.ReadSSHMetadata(d.projectID, env.ID); ok && meta.Certificate != "" {
		cert, err := sshutil.ParseCertificate(meta.Certificate)
		if err == nil && sshutil.CertificateValidAt(cert, d.now()) {
			d.log.Debug("reusing cached SSH certificate for %s", env.ID)
			return d.store.SSHCertificatePath(d.projectID, env.ID), nil
		}
	}

	certificate, err := d.api.GetSSHCertificate(d.projectID, env.ID)
	if err != nil {
		return "", err
	}

	meta := &api.SSHMetadata{
		EnvironmentID: env.ID,
		User:          user,
		Host:          host,
		Certificate:   certificate,
	}
	if err := d.store.WriteSSHMetadata(d.projectID, meta); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrSSH,
			"Cannot cache the SSH certificate",
			"Check permissions on the cache directory")
	}
	return d.store.SSHCertificatePath(d.projectID, env.ID), nil
}
