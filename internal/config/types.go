package config

import "time"

// Config represents the merged CLI configuration: global config file,
// environment variable overrides, and built-in defaults.
type Config struct {
	API   APIConfig   `yaml:"api" mapstructure:"api"`
	Git   GitConfig   `yaml:"git" mapstructure:"git"`
	SSH   SSHConfig   `yaml:"ssh" mapstructure:"ssh"`
	Drush DrushConfig `yaml:"drush" mapstructure:"drush"`
}

// APIConfig holds connection settings for the platform API.
type APIConfig struct {
	// BaseURL is the root of the platform REST API.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is the API access token. Usually supplied via the
	// PLATFORM_API_TOKEN environment variable rather than the config file.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout for individual API requests.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// GitConfig controls how the CLI drives git.
type GitConfig struct {
	// RemoteName is the name of the git remote pointing at the project.
	RemoteName string `yaml:"remote_name" mapstructure:"remote_name"`

	// ProductionBranch is the branch that deploys production. Pushing to it
	// requires interactive confirmation.
	ProductionBranch string `yaml:"production_branch" mapstructure:"production_branch"`
}

// SSHConfig controls the assembled SSH invocation injected into git.
type SSHConfig struct {
	// Executable overrides the ssh binary (default "ssh").
	Executable string `yaml:"executable" mapstructure:"executable"`

	// IdentityFile is passed as -i when set.
	IdentityFile string `yaml:"identity_file" mapstructure:"identity_file"`

	// Options are extra -o options, e.g. "StrictHostKeyChecking=accept-new".
	Options []string `yaml:"options" mapstructure:"options"`
}

// DrushConfig controls the Drush site-alias integration.
type DrushConfig struct {
	// Executable overrides drush discovery entirely when set.
	Executable string `yaml:"executable" mapstructure:"executable"`

	// AliasGroup overrides the alias group name (default: project ID).
	AliasGroup string `yaml:"alias_group" mapstructure:"alias_group"`
}

// Project describes the project association stored in the local
// .platform/local/project.yaml file inside a checkout.
type Project struct {
	// ID is the remote project identifier.
	ID string `yaml:"id"`

	// Host is an optional region host used to derive the API URL.
	Host string `yaml:"host,omitempty"`

	// AliasGroup overrides the drush alias group for this project.
	AliasGroup string `yaml:"alias_group,omitempty"`
}

// APIBaseURL derives the API endpoint from the project's region host.
// Returns empty string when no host is recorded.
func (p *Project) APIBaseURL() string {
	if p.Host == "" {
		return ""
	}
	return "https://api." + p.Host
}

// Defaults returns the built-in configuration defaults.
func Defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.platform.sh",
			Timeout: 30 * time.Second,
		},
		Git: GitConfig{
			RemoteName:       "platform",
			ProductionBranch: "main",
		},
		SSH: SSHConfig{
			Executable: "ssh",
		},
	}
}
