// Package sshutil assembles the SSH invocations the CLI injects into git
// and inspects locally cached SSH material. SSH itself is always executed
// as an external program.
package sshutil

import (
	"strings"

	"github.com/staabm/platformsh-cli/internal/util"
)

// CommandOptions describe an ssh invocation to be assembled into a single
// command string (suitable for GIT_SSH_COMMAND).
type CommandOptions struct {
	// Executable is the ssh binary (default "ssh").
	Executable string

	// IdentityFile is passed as -i when set.
	IdentityFile string

	// Options are raw -o option values, e.g. "StrictHostKeyChecking=accept-new".
	Options []string

	// CertificateFile is passed as -o CertificateFile when set, pointing
	// ssh at a locally cached SSH certificate.
	CertificateFile string

	// SendEnv lists environment variable names propagated to the remote
	// side via -o SendEnv. Used to signal the remote to skip waiting for
	// the build when --no-wait is requested.
	SendEnv []string
}

// BuildArgs assembles the ssh executable and its argument vector, for
// direct execution without a shell.
func BuildArgs(opts CommandOptions) (name string, args []string) {
	name = opts.Executable
	if name == "" {
		name = "ssh"
	}

	if opts.IdentityFile != "" {
		args = append(args, "-i", opts.IdentityFile)
	}
	for _, o := range opts.Options {
		args = append(args, "-o", o)
	}
	if opts.CertificateFile != "" {
		args = append(args, "-o", "CertificateFile="+opts.CertificateFile)
	}
	for _, env := range opts.SendEnv {
		args = append(args, "-o", "SendEnv="+env)
	}
	return name, args
}

// BuildCommand assembles the ssh command string. Arguments that need it are
// shell-quoted, since git passes GIT_SSH_COMMAND through a shell.
func BuildCommand(opts CommandOptions) string {
	name, args := BuildArgs(opts)

	parts := []string{quoteIfNeeded(name)}
	for _, a := range args {
		parts = append(parts, quoteIfNeeded(a))
	}
	return strings.Join(parts, " ")
}

func quoteIfNeeded(s string) string {
	if util.NeedsQuoting(s) {
		return util.ShellQuote(s)
	}
	return s
}
