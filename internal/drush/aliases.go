package drush

import (
	"fmt"
	"path"
	"strings"

	"github.com/staabm/platformsh-cli/internal/api"
	"github.com/staabm/platformsh-cli/internal/app"
	"github.com/staabm/platformsh-cli/internal/errors"
)

// aliasWriter generates alias files in one output format. The format
// choice is driven by the detected drush version, never by the user.
type aliasWriter interface {
	Format() string
	Write(group string, entries []aliasEntry) error
}

// aliasEntry is one site alias. Entries with an empty Host point at the
// local checkout.
type aliasEntry struct {
	Name string
	URI  string
	Host string
	User string
	Root string
}

// IsLocal reports whether the entry targets the local checkout.
func (e aliasEntry) IsLocal() bool {
	return e.Host == ""
}

// CreateAliases generates site alias files for every Drupal application in
// the project, in each format the detected drush version supports. When
// the version is unknown both formats are written. All invoked writers
// must succeed.
func (d *Drush) CreateAliases(project *api.Project, envs []*api.Environment, apps []*app.Application, group string) error {
	drupalApps := FilterDrupalApps(apps)
	if len(drupalApps) == 0 {
		return errors.New(errors.ErrState,
			"No Drupal applications found in this project",
			"Drush aliases are only generated for applications with the 'drupal' build flavor")
	}

	if group == "" {
		group = project.ID
	}

	// Version detection doubles as the existence check: an unparseable
	// version is fine (both formats get written), a drush that cannot run
	// at all is not.
	if _, err := d.Version(false); err != nil {
		return errors.NewDependencyMissing("drush",
			"Install Drush, or point drush.executable at it in the config")
	}

	entries := buildAliasEntries(d.projectRoot, envs, drupalApps)

	var writers []aliasWriter
	if d.SupportsPhpAliases() {
		writers = append(writers, &phpAliasWriter{homeDir: d.homeDir})
	}
	if d.SupportsYamlAliases() {
		writers = append(writers, &yamlAliasWriter{homeDir: d.homeDir})
	}

	var failures []string
	for _, w := range writers {
		if err := w.Write(group, entries); err != nil {
			d.log.Error("%s alias generation failed: %v", w.Format(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", w.Format(), err))
			continue
		}
		d.log.Debug("wrote %s aliases for group %s", w.Format(), group)
	}

	if len(failures) > 0 {
		return errors.New(errors.ErrDependency,
			"Alias generation failed",
			strings.Join(failures, "; "))
	}
	return nil
}

// FilterDrupalApps returns the applications that belong to the drush
// ecosystem: PHP runtime with the drupal build flavor.
func FilterDrupalApps(apps []*app.Application) []*app.Application {
	var out []*app.Application
	for _, a := range apps {
		if a.Runtime() == "php" && a.Build.Flavor == "drupal" {
			out = append(out, a)
		}
	}
	return out
}

// buildAliasEntries creates one entry per deployed environment and
// application, plus a local entry per application when a checkout exists.
func buildAliasEntries(projectRoot string, envs []*api.Environment, apps []*app.Application) []aliasEntry {
	multiApp := len(apps) > 1

	var entries []aliasEntry
	for _, a := range apps {
		if projectRoot != "" {
			entries = append(entries, aliasEntry{
				Name: aliasName("_local", a, multiApp),
				Root: localRoot(projectRoot, a),
			})
		}

		for _, e := range envs {
			if e.SSHURL == "" {
				// Not deployed; nothing to connect to.
				continue
			}
			user, host, _ := e.SSHParts()
			entries = append(entries, aliasEntry{
				Name: aliasName(e.ID, a, multiApp),
				URI:  e.PublicURL,
				Host: host,
				User: user,
				Root: remoteRoot(a),
			})
		}
	}
	return entries
}

func aliasName(base string, a *app.Application, multiApp bool) string {
	if multiApp {
		return base + "--" + a.Name
	}
	return base
}

func remoteRoot(a *app.Application) string {
	return path.Join("/app", a.Path, strings.TrimPrefix(a.Web.DocumentRoot, "/"))
}

func localRoot(projectRoot string, a *app.Application) string {
	return path.Join(projectRoot, a.Path, strings.TrimPrefix(a.Web.DocumentRoot, "/"))
}
