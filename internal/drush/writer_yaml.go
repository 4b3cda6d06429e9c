package drush

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// yamlAliasWriter writes <group>.site.yml under ~/.drush/sites, the format
// modern drush reads.
type yamlAliasWriter struct {
	homeDir string
}

func (w *yamlAliasWriter) Format() string { return "yaml" }

func (w *yamlAliasWriter) Write(group string, entries []aliasEntry) error {
	sites := make(map[string]map[string]string, len(entries))
	for _, e := range entries {
		site := map[string]string{
			"root": e.Root,
		}
		if !e.IsLocal() {
			site["host"] = e.Host
			site["user"] = e.User
			if e.URI != "" {
				site["uri"] = e.URI
			}
		}
		sites[e.Name] = site
	}

	data, err := yaml.Marshal(sites)
	if err != nil {
		return fmt.Errorf("encode yaml aliases: %w", err)
	}

	dir := filepath.Join(w.homeDir, ".drush", "sites")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	header := []byte("# Aliases for " + group + ", generated by the platform CLI.\n# Regenerate with 'platform drush:aliases'; manual edits will be lost.\n")
	path := filepath.Join(dir, group+".site.yml")
	return os.WriteFile(path, append(header, data...), 0o644)
}
