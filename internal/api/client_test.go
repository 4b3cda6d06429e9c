package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staabm/platformsh-cli/internal/errors"
	"github.com/staabm/platformsh-cli/internal/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *Store) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := NewStoreAt(t.TempDir())
	require.NoError(t, err)

	c := NewClient(srv.URL, "test-token", 5*time.Second, store)
	c.SetLogger(logger.Noop())
	return c, store
}

func TestGetProject(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/abc123", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Project{ //nolint:errcheck // test encoder
			ID: "abc123", Title: "My Site", GitURL: "abc123@git.example.com:abc123.git",
		})
	}))

	p, err := c.GetProject("abc123")
	require.NoError(t, err)
	assert.Equal(t, "My Site", p.Title)
	assert.Equal(t, "abc123@git.example.com:abc123.git", p.GitURL)
}

func TestGetProjectNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := c.GetProject("nope")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAPI))
	assert.Contains(t, err.Error(), "Project not found")
}

func TestGetEnvironmentNotFoundIsNil(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	env, err := c.GetEnvironment("abc123", "gone", true)
	require.NoError(t, err)
	assert.Nil(t, env)
}

func TestGetEnvironmentServedFromCache(t *testing.T) {
	var hits atomic.Int32
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	cached := []*Environment{{ID: "feature-x", Status: StatusInactive}}
	require.NoError(t, store.WriteEnvironments("abc123", cached))

	env, err := c.GetEnvironment("abc123", "feature-x", false)
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.Equal(t, StatusInactive, env.Status)
	assert.Equal(t, int32(0), hits.Load(), "cache hit should not reach the API")

	// A fresh cached list without the environment is authoritative.
	missing, err := c.GetEnvironment("abc123", "other", false)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetEnvironmentRefreshBypassesCache(t *testing.T) {
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Environment{ID: "feature-x", Status: StatusActive}) //nolint:errcheck // test encoder
	}))

	require.NoError(t, store.WriteEnvironments("abc123",
		[]*Environment{{ID: "feature-x", Status: StatusInactive}}))

	env, err := c.GetEnvironment("abc123", "feature-x", true)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, env.Status)
}

func TestListEnvironmentsPopulatesCache(t *testing.T) {
	var hits atomic.Int32
	c, store := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		json.NewEncoder(w).Encode([]*Environment{ //nolint:errcheck // test encoder
			{ID: "main", Status: StatusActive},
			{ID: "feature-x", Status: StatusInactive, Parent: "main"},
		})
	}))

	envs, err := c.ListEnvironments("abc123", false)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, int32(1), hits.Load())

	// Second call is served from cache.
	envs, err = c.ListEnvironments("abc123", false)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, int32(1), hits.Load())

	// Refresh forces a second API hit.
	_, err = c.ListEnvironments("abc123", true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	cached, ok := store.ReadEnvironments("abc123")
	require.True(t, ok)
	assert.Len(t, cached, 2)
}

func TestSetEnvironmentParent(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/projects/abc123/environments/feature-x", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "staging", body["parent"])

		json.NewEncoder(w).Encode(activitiesResponse{Activities: []*Activity{ //nolint:errcheck // test encoder
			{ID: "act-1", Type: "environment.update", State: ActivityStatePending},
		}})
	}))

	acts, err := c.SetEnvironmentParent("abc123", "feature-x", "staging")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "act-1", acts[0].ID)
}

func TestActivateEnvironment(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/projects/abc123/environments/feature-x/activate", r.URL.Path)
		json.NewEncoder(w).Encode(activitiesResponse{Activities: []*Activity{ //nolint:errcheck // test encoder
			{ID: "act-2", Type: "environment.activate", State: ActivityStateInProgress},
		}})
	}))

	acts, err := c.ActivateEnvironment("abc123", "feature-x")
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "environment.activate", acts[0].Type)
}

func TestUnauthorizedSuggestsToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.ListEnvironments("abc123", true)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAPI))
	assert.Contains(t, err.Error(), "PLATFORM_API_TOKEN")
}

func TestGetSSHCertificate(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/projects/abc123/environments/feature-x/ssh-certificate", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck // test encoder
			"certificate": "ssh-ed25519-cert-v01@openssh.com AAAA test",
		})
	}))

	cert, err := c.GetSSHCertificate("abc123", "feature-x")
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519-cert-v01@openssh.com AAAA test", cert)
}

func TestGetSSHCertificateEmptyResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{}) //nolint:errcheck // test encoder
	}))

	_, err := c.GetSSHCertificate("abc123", "feature-x")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrAPI))
}
