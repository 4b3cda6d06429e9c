// Package app discovers applications inside a project checkout by locating
// and parsing their manifests. Consumers filter the resulting list, e.g.
// the drush integration selects the Drupal applications.
package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/staabm/platformsh-cli/internal/errors"
	"gopkg.in/yaml.v3"
)

// ManifestName is the per-application manifest file.
const ManifestName = ".platform.app.yaml"

// directories never descended into during discovery.
var skipDirs = map[string]bool{
	".git":         true,
	".platform":    true,
	"vendor":       true,
	"node_modules": true,
}

// Application is one application defined in the project.
type Application struct {
	Name string `yaml:"name"`

	// Type is the runtime with version, e.g. "php:8.2".
	Type string `yaml:"type"`

	Build struct {
		Flavor string `yaml:"flavor"`
	} `yaml:"build"`

	Web struct {
		DocumentRoot string `yaml:"document_root"`
	} `yaml:"web"`

	// Path is the application directory relative to the project root
	// ("" for a top-level application).
	Path string `yaml:"-"`
}

// Runtime returns the runtime name without its version ("php" for "php:8.2").
func (a *Application) Runtime() string {
	runtime, _, _ := strings.Cut(a.Type, ":")
	return runtime
}

// Discover walks the project tree and parses every application manifest.
// Results are sorted by path for stable output.
func Discover(root string) ([]*Application, error) {
	var apps []*Application

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != ManifestName {
			return nil
		}

		a, err := parseManifest(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}
		a.Path = rel

		apps = append(apps, a)
		return nil
	})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to scan project for applications",
			"Check file permissions under "+root)
	}

	sort.Slice(apps, func(i, j int) bool { return apps[i].Path < apps[j].Path })
	return apps, nil
}

func parseManifest(path string) (*Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var a Application
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid application manifest: "+path,
			"Check the YAML syntax")
	}
	return &a, nil
}
