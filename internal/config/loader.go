package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/staabm/platformsh-cli/internal/errors"
)

// envKeyReplacer maps nested config keys to env var names:
// api.base_url -> PLATFORM_API_BASE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

const (
	// GlobalConfigDir is the directory for global config, under $HOME.
	GlobalConfigDir = ".config/platform"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"

	// ProjectDir is the per-checkout metadata directory.
	ProjectDir = ".platform"
	// ProjectFile is the project association file inside ProjectDir.
	ProjectFile = "local/project.yaml"

	// envPrefix for variable overrides: PLATFORM_API_TOKEN,
	// PLATFORM_API_BASE_URL, PLATFORM_GIT_PRODUCTION_BRANCH, ...
	envPrefix = "PLATFORM"
)

// Load reads config from the specified path, merging it over defaults and
// applying environment variable overrides.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found: "+path,
				"Check the path, or omit --config to use defaults")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v)
}

// LoadOrDefault loads the global config if one exists, or returns defaults.
// An explicit path (from --config) takes precedence and must exist.
func LoadOrDefault(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}

	home, err := os.UserHomeDir()
	if err == nil {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, statErr := os.Stat(global); statErr == nil {
			return Load(global)
		}
	}

	// No config file: defaults plus environment overrides.
	return parseConfig(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(envKeyReplacer)

	d := Defaults()
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("git.remote_name", d.Git.RemoteName)
	v.SetDefault("git.production_branch", d.Git.ProductionBranch)
	v.SetDefault("ssh.executable", d.SSH.Executable)

	// Bound explicitly so the env vars work without a config file present.
	v.BindEnv("api.token")    //nolint:errcheck // key is never empty
	v.BindEnv("api.base_url") //nolint:errcheck // key is never empty

	return v
}

func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid configuration",
			"Check the config file structure against the documentation")
	}

	if cfg.API.BaseURL == "" {
		return nil, errors.New(errors.ErrConfig,
			"API base URL is empty",
			"Set api.base_url in the config file or PLATFORM_API_BASE_URL")
	}

	return &cfg, nil
}
