// Package git wraps the git command line for the push workflow. Git itself
// stays an external dependency; this package only marshals arguments,
// streams output, and translates exit codes.
package git

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/staabm/platformsh-cli/internal/errors"
	"github.com/staabm/platformsh-cli/internal/logger"
)

var log = logger.NewEnvLogger("[git]")

// run executes git with the given args in dir, capturing output.
// A non-zero exit is reported through the exit code, not the error.
func run(dir string, args ...string) (stdout string, exitCode int, err error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	log.Debug("git %s", strings.Join(args, " "))
	runErr := cmd.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return out.String(), exitErr.ExitCode(), nil
		}
		return "", -1, errors.WrapWithCode(runErr, errors.ErrGit,
			"Couldn't run git",
			"Make sure git is installed and on your PATH")
	}
	return out.String(), 0, nil
}

// CurrentBranch returns the checked-out branch name, or empty string when
// HEAD is detached or dir is not a git work tree.
func CurrentBranch(dir string) (string, error) {
	out, code, err := run(dir, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	if code != 0 {
		return "", nil
	}
	return strings.TrimSpace(out), nil
}

// EnsureRemote makes sure a remote with the given name points at url.
// Idempotent: an existing remote with the right URL is left alone, a
// mismatched one is updated.
func EnsureRemote(dir, name, url string) error {
	out, code, err := run(dir, "remote", "get-url", name)
	if err != nil {
		return err
	}

	if code == 0 {
		if strings.TrimSpace(out) == url {
			return nil
		}
		return expectZero(run(dir, "remote", "set-url", name, url))
	}
	return expectZero(run(dir, "remote", "add", name, url))
}

func expectZero(out string, code int, err error) error {
	if err != nil {
		return err
	}
	if code != 0 {
		return errors.New(errors.ErrGit,
			"git remote configuration failed",
			"Check the repository state with 'git remote -v'")
	}
	return nil
}

// PushOptions control a git push invocation.
type PushOptions struct {
	Remote       string
	SourceRef    string
	TargetBranch string

	Force          bool
	ForceWithLease bool
	DryRun         bool

	// SSHCommand, when set, is injected as GIT_SSH_COMMAND so git's SSH
	// transport uses the assembled invocation.
	SSHCommand string

	// Env holds extra KEY=VALUE pairs for the git process (for example the
	// no-wait signal propagated to the remote through SSH SendEnv).
	Env []string

	Stdout io.Writer
	Stderr io.Writer
}

// Push runs `git push <remote> <src>:<target>` with pass-through flags,
// streaming output to the provided writers. Returns git's exit code; a
// non-zero exit is not an error here, callers decide how to surface it.
func Push(dir string, opts PushOptions) (int, error) {
	args := []string{"push", opts.Remote, opts.SourceRef + ":" + opts.TargetBranch}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.ForceWithLease {
		args = append(args, "--force-with-lease")
	}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	env := os.Environ()
	if opts.SSHCommand != "" {
		env = append(env, "GIT_SSH_COMMAND="+opts.SSHCommand)
	}
	env = append(env, opts.Env...)
	cmd.Env = env

	log.Debug("git %s", strings.Join(args, " "))
	runErr := cmd.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, errors.WrapWithCode(runErr, errors.ErrGit,
			"Couldn't run git push",
			"Make sure git is installed and on your PATH")
	}
	return 0, nil
}
