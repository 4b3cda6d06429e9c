// Package drush integrates with the Drush command-line tool: locating a
// usable executable, detecting its version, and generating site alias
// files in the formats the detected version supports.
package drush

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/staabm/platformsh-cli/internal/config"
	"github.com/staabm/platformsh-cli/internal/logger"
)

// CommandRunner executes an external command and returns its stdout.
// Swappable in tests.
type CommandRunner func(name string, args ...string) ([]byte, error)

func defaultRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// aliasFormatCutoff separates the two alias file formats: versions below it
// use PHP alias files, versions at or above it use YAML site files.
var aliasFormatCutoff = semver.MustParse("9.0.0-alpha1")

// versionPattern matches "<label>: <version>" as printed by `drush version`,
// e.g. "Drush Version   :  8.0.0-beta14".
var versionPattern = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z ]*?\s*:\s*([0-9A-Za-z.+-]+)`)

// Drush adapts the external drush tool. The resolved executable path and
// detected version are cached for the lifetime of the instance; callers can
// force a refresh explicitly.
type Drush struct {
	executableOverride string
	projectRoot        string
	homeDir            string
	runner             CommandRunner
	log                logger.Logger

	path         string
	pathResolved bool

	// version is nil when detection ran but produced nothing parseable.
	version        *semver.Version
	versionChecked bool
}

// New creates a Drush adapter for a project checkout.
func New(projectRoot string, cfg config.DrushConfig) *Drush {
	home, _ := os.UserHomeDir()
	return &Drush{
		executableOverride: cfg.Executable,
		projectRoot:        projectRoot,
		homeDir:            home,
		runner:             defaultRunner,
		log:                logger.NewEnvLogger("[drush]"),
	}
}

// SetRunner replaces the command runner (tests).
func (d *Drush) SetRunner(r CommandRunner) { d.runner = r }

// SetHomeDir overrides the user home directory used for alias files (tests).
func (d *Drush) SetHomeDir(dir string) { d.homeDir = dir }

// SetLogger replaces the adapter's logger.
func (d *Drush) SetLogger(l logger.Logger) { d.log = l }

// Executable resolves the drush executable path, first match wins:
//
//  1. the configured override path
//  2. the project's vendor/bin/drush
//  3. a globally installed drush on PATH
//  4. a drush shipped alongside this CLI binary
//
// Falls back to the bare command name so the failure, if any, surfaces at
// execution time. The result is cached until refresh is requested.
func (d *Drush) Executable(refresh bool) string {
	if d.pathResolved && !refresh {
		return d.path
	}

	d.path = d.resolveExecutable()
	d.pathResolved = true
	d.log.Debug("resolved drush executable: %s", d.path)
	return d.path
}

func (d *Drush) resolveExecutable() string {
	if d.executableOverride != "" && isExecutable(d.executableOverride) {
		return d.executableOverride
	}

	if d.projectRoot != "" {
		vendored := filepath.Join(d.projectRoot, "vendor", "bin", "drush")
		if isExecutable(vendored) {
			return vendored
		}
	}

	if global, err := exec.LookPath("drush"); err == nil {
		return global
	}

	if self, err := os.Executable(); err == nil {
		bundled := filepath.Join(filepath.Dir(self), "drush")
		if isExecutable(bundled) {
			return bundled
		}
	}

	return "drush"
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// Version detects the installed drush version by running its version
// subcommand. Returns nil (with no error) when the output has no parseable
// version; that "unknown" result is cached like any other. An execution
// failure is returned as an error and not cached.
func (d *Drush) Version(refresh bool) (*semver.Version, error) {
	if d.versionChecked && !refresh {
		return d.version, nil
	}

	out, err := d.runner(d.Executable(refresh), "version")
	if err != nil {
		return nil, err
	}

	d.version = nil
	if raw := parseVersionOutput(string(out)); raw != "" {
		if v, parseErr := semver.NewVersion(raw); parseErr == nil {
			d.version = v
		} else {
			d.log.Debug("unparseable drush version %q: %v", raw, parseErr)
		}
	}
	d.versionChecked = true
	return d.version, nil
}

// parseVersionOutput extracts the version from the first non-blank line of
// `drush version` output, or returns "" when nothing matches.
func parseVersionOutput(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := versionPattern.FindStringSubmatch(line)
		if m == nil {
			return ""
		}
		return m[1]
	}
	return ""
}

// SupportsYamlAliases reports whether the detected drush reads YAML site
// alias files. An unknown version counts as supported, so alias generation
// is never blocked by an unparseable version.
func (d *Drush) SupportsYamlAliases() bool {
	v, err := d.Version(false)
	if err != nil || v == nil {
		return true
	}
	return !v.LessThan(aliasFormatCutoff)
}

// SupportsPhpAliases reports whether the detected drush reads legacy PHP
// alias files. An unknown version counts as supported.
func (d *Drush) SupportsPhpAliases() bool {
	v, err := d.Version(false)
	if err != nil || v == nil {
		return true
	}
	return v.LessThan(aliasFormatCutoff)
}
