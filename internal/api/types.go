package api

import (
	"strings"

	"github.com/staabm/platformsh-cli/internal/errors"
)

// Project is a remote project: an identifier plus the git endpoint code is
// pushed to. Immutable for the duration of a command invocation.
type Project struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	GitURL        string `json:"git_url"`
	DefaultBranch string `json:"default_branch"`
}

// Environment statuses as reported by the API.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDirty    = "dirty"
	StatusDeleting = "deleting"
)

// Environment is a named deployable instance of a project.
type Environment struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Parent string `json:"parent"`
	Status string `json:"status"`

	// HasCode is false for environments that exist in the API but have
	// never received a push.
	HasCode bool `json:"has_code"`

	// SSHURL is the environment's SSH endpoint ("user@host"), empty for
	// environments that are not deployed.
	SSHURL string `json:"ssh_url"`

	// PublicURL is the primary route to the running environment.
	PublicURL string `json:"public_url"`
}

// IsActive reports whether the environment is currently deployed.
// A "dirty" environment is active with an operation in progress.
func (e *Environment) IsActive() bool {
	return e.Status == StatusActive || e.Status == StatusDirty
}

// SSHParts splits the environment's SSH endpoint into user and host.
// Returns a STATE error when the environment has no SSH endpoint, which
// callers may tolerate (for example during cache invalidation).
func (e *Environment) SSHParts() (user, host string, err error) {
	if e.SSHURL == "" {
		return "", "", errors.NewEnvironmentState(e.ID, "environment has no SSH endpoint")
	}
	user, host, found := strings.Cut(e.SSHURL, "@")
	if !found {
		return "", e.SSHURL, nil
	}
	return user, host, nil
}

// Activity states and results as reported by the API.
const (
	ActivityStatePending    = "pending"
	ActivityStateInProgress = "in_progress"
	ActivityStateComplete   = "complete"
	ActivityStateCancelled  = "cancelled"

	ActivityResultSuccess = "success"
	ActivityResultFailure = "failure"
)

// Activity is a handle to an asynchronous remote operation, polled until
// completion or failure.
type Activity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	State       string `json:"state"`
	Result      string `json:"result"`
	Description string `json:"description"`
}

// Finished reports whether the activity has reached a terminal state.
func (a *Activity) Finished() bool {
	return a.State == ActivityStateComplete || a.State == ActivityStateCancelled
}

// Succeeded reports whether a finished activity completed successfully.
func (a *Activity) Succeeded() bool {
	return a.State == ActivityStateComplete && a.Result == ActivityResultSuccess
}
