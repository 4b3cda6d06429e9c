package api

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentsCacheRoundTrip(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	envs := []*Environment{
		{ID: "main", Status: StatusActive},
		{ID: "feature-x", Status: StatusInactive, Parent: "main"},
	}
	require.NoError(t, store.WriteEnvironments("abc123", envs))

	got, ok := store.ReadEnvironments("abc123")
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "feature-x", got[1].ID)
}

func TestEnvironmentsCacheMiss(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	_, ok := store.ReadEnvironments("unknown")
	assert.False(t, ok)
}

func TestEnvironmentsCacheExpiry(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.WriteEnvironments("abc123", []*Environment{{ID: "main"}}))

	// Advance the clock past the TTL.
	store.now = func() time.Time { return time.Now().Add(environmentsCacheTTL + time.Minute) }

	_, ok := store.ReadEnvironments("abc123")
	assert.False(t, ok, "stale entry should read as a miss")
}

func TestEnvironmentsCacheCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStoreAt(dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "environments-abc123.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok := store.ReadEnvironments("abc123")
	assert.False(t, ok)
}

func TestClearEnvironmentsToleratesMissing(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.ClearEnvironments("never-cached"))

	require.NoError(t, store.WriteEnvironments("abc123", []*Environment{{ID: "main"}}))
	require.NoError(t, store.ClearEnvironments("abc123"))

	_, ok := store.ReadEnvironments("abc123")
	assert.False(t, ok)
}

func TestSSHMetadataRoundTrip(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	meta := &SSHMetadata{
		EnvironmentID: "feature-x",
		User:          "abc123-feature-x",
		Host:          "ssh.example.com",
	}
	require.NoError(t, store.WriteSSHMetadata("abc123", meta))

	got, ok := store.ReadSSHMetadata("abc123", "feature-x")
	require.True(t, ok)
	assert.Equal(t, "ssh.example.com", got.Host)
	assert.False(t, got.CachedAt.IsZero())
}

func TestClearSSHMetadataToleratesMissing(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	// Clearing metadata that was never cached must not fail: environments
	// that were never connected to have nothing cached.
	assert.NoError(t, store.ClearSSHMetadata("abc123", "never-connected"))
}

func TestSSHCertificateFileWrittenAndCleared(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	meta := &SSHMetadata{
		EnvironmentID: "feature-x",
		User:          "abc123-feature-x",
		Host:          "ssh.example.com",
		Certificate:   "ssh-ed25519-cert-v01@openssh.com AAAA test",
	}
	require.NoError(t, store.WriteSSHMetadata("abc123", meta))

	certPath := store.SSHCertificatePath("abc123", "feature-x")
	data, err := os.ReadFile(certPath)
	require.NoError(t, err)
	assert.Equal(t, meta.Certificate, string(data))

	require.NoError(t, store.ClearSSHMetadata("abc123", "feature-x"))
	_, err = os.Stat(certPath)
	assert.True(t, os.IsNotExist(err), "clearing metadata must remove the certificate file")
}

func TestSSHCertificateFileRemovedWhenCertificateGone(t *testing.T) {
	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	withCert := &SSHMetadata{EnvironmentID: "main", Certificate: "cert data"}
	require.NoError(t, store.WriteSSHMetadata("abc123", withCert))

	// Re-caching without a certificate drops the stale certificate file.
	withoutCert := &SSHMetadata{EnvironmentID: "main"}
	require.NoError(t, store.WriteSSHMetadata("abc123", withoutCert))

	_, err = os.Stat(store.SSHCertificatePath("abc123", "main"))
	assert.True(t, os.IsNotExist(err))
}
