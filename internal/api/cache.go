package api

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// environmentsCacheTTL is how long a cached environment list stays fresh.
const environmentsCacheTTL = 10 * time.Minute

// Store caches API state on disk under the user's cache directory.
// Entries are JSON files; corrupt or stale entries read as misses.
type Store struct {
	dir string
	ttl time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewStore creates a store under $XDG_CACHE_HOME/platform (or
// ~/.cache/platform), creating the directory if needed.
func NewStore() (*Store, error) {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".cache")
	}
	return NewStoreAt(filepath.Join(dir, "platform"))
}

// NewStoreAt creates a store rooted at an explicit directory.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir, ttl: environmentsCacheTTL, now: time.Now}, nil
}

type environmentsEntry struct {
	Environments []*Environment `json:"environments"`
	CachedAt     time.Time      `json:"cached_at"`
}

func (s *Store) environmentsPath(projectID string) string {
	return filepath.Join(s.dir, "environments-"+projectID+".json")
}

// ReadEnvironments returns the cached environment list for a project.
// The second result is false when the entry is missing, corrupt, or stale.
func (s *Store) ReadEnvironments(projectID string) ([]*Environment, bool) {
	data, err := os.ReadFile(s.environmentsPath(projectID))
	if err != nil {
		return nil, false
	}

	var entry environmentsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if s.now().Sub(entry.CachedAt) >= s.ttl {
		return nil, false
	}
	return entry.Environments, true
}

// WriteEnvironments stores the environment list for a project.
func (s *Store) WriteEnvironments(projectID string, envs []*Environment) error {
	entry := environmentsEntry{Environments: envs, CachedAt: s.now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(s.environmentsPath(projectID), data, 0o600)
}

// ClearEnvironments drops the cached environment list. A missing entry is
// not an error.
func (s *Store) ClearEnvironments(projectID string) error {
	err := os.Remove(s.environmentsPath(projectID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SSHMetadata is cached connection metadata for one environment: the
// endpoint and the short-lived SSH certificate issued for it.
type SSHMetadata struct {
	EnvironmentID string    `json:"environment_id"`
	User          string    `json:"user"`
	Host          string    `json:"host"`
	Certificate   string    `json:"certificate,omitempty"`
	CachedAt      time.Time `json:"cached_at"`
}

func (s *Store) sshMetadataPath(projectID, envID string) string {
	return filepath.Join(s.dir, "ssh-"+projectID+"-"+envID+".json")
}

// SSHCertificatePath is the on-disk location of an environment's cached
// SSH certificate, in the form ssh expects for -o CertificateFile.
func (s *Store) SSHCertificatePath(projectID, envID string) string {
	return filepath.Join(s.dir, "ssh-"+projectID+"-"+envID+"-cert.pub")
}

// ReadSSHMetadata returns cached connection metadata for an environment,
// or (nil, false) when none is cached.
func (s *Store) ReadSSHMetadata(projectID, envID string) (*SSHMetadata, bool) {
	data, err := os.ReadFile(s.sshMetadataPath(projectID, envID))
	if err != nil {
		return nil, false
	}
	var meta SSHMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

// WriteSSHMetadata stores connection metadata for an environment. The
// certificate, when present, is additionally written to its own file so
// ssh can load it directly.
func (s *Store) WriteSSHMetadata(projectID string, meta *SSHMetadata) error {
	meta.CachedAt = s.now()
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.sshMetadataPath(projectID, meta.EnvironmentID), data, 0o600); err != nil {
		return err
	}

	certPath := s.SSHCertificatePath(projectID, meta.EnvironmentID)
	if meta.Certificate == "" {
		if err := os.Remove(certPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return os.WriteFile(certPath, []byte(meta.Certificate), 0o600)
}

// ClearSSHMetadata drops cached connection metadata for an environment.
// A missing entry is not an error: environments that were never connected
// to have nothing cached.
func (s *Store) ClearSSHMetadata(projectID, envID string) error {
	err := os.Remove(s.sshMetadataPath(projectID, envID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	err = os.Remove(s.SSHCertificatePath(projectID, envID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
