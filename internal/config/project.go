package config

import (
	"os"
	"path/filepath"

	"github.com/staabm/platformsh-cli/internal/errors"
	"gopkg.in/yaml.v3"
)

// FindProjectRoot walks up from dir looking for a .platform/local/project.yaml
// file. Returns the directory containing .platform, or empty string when the
// search reaches the filesystem root or $HOME without a match.
func FindProjectRoot(dir string) string {
	home, _ := os.UserHomeDir()

	for {
		marker := filepath.Join(dir, ProjectDir, ProjectFile)
		if _, err := os.Stat(marker); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		if home != "" && dir == home {
			return ""
		}
		dir = parent
	}
}

// LoadProject reads the project association from root/.platform/local/project.yaml.
func LoadProject(root string) (*Project, error) {
	path := filepath.Join(root, ProjectDir, ProjectFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrConfig,
				"No project association found in "+root,
				"Specify a project with --project, or run inside a project checkout")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot read project file: "+path,
			"Check file permissions")
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid project file: "+path,
			"The file should be YAML with at least an 'id' key")
	}

	if p.ID == "" {
		return nil, errors.New(errors.ErrConfig,
			"Project file has no project ID: "+path,
			"Add an 'id' key, or re-associate the checkout")
	}

	return &p, nil
}

// SaveProject writes the project association file, creating the
// .platform/local directory as needed.
func SaveProject(root string, p *Project) error {
	dir := filepath.Join(root, ProjectDir, filepath.Dir(ProjectFile))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create project metadata directory",
			"Check directory permissions")
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot encode project file", "")
	}

	path := filepath.Join(root, ProjectDir, ProjectFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot write project file: "+path,
			"Check directory permissions")
	}
	return nil
}
