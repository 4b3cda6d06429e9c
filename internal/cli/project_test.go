package cli

import (
	"testing"

	"github.com/staabm/platformsh-cli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRemoteWritesAssociation(t *testing.T) {
	fa := newFakeAPI()
	g := &gitRecorder{}
	d, _ := newTestDeps(t, fa, g, &scriptedPrompter{})

	err := runSetRemote(d, d.root, "abc123", "eu.platform.sh")
	require.NoError(t, err)

	proj, err := config.LoadProject(d.root)
	require.NoError(t, err)
	assert.Equal(t, "abc123", proj.ID)
	assert.Equal(t, "eu.platform.sh", proj.Host)

	require.Len(t, g.remotes, 1)
	assert.Equal(t, "platform=abc123@git.example.com:abc123.git", g.remotes[0])
}

func TestSetRemotePreservesExistingAssociation(t *testing.T) {
	fa := newFakeAPI()
	g := &gitRecorder{}
	d, _ := newTestDeps(t, fa, g, &scriptedPrompter{})

	require.NoError(t, config.SaveProject(d.root, &config.Project{
		ID:         "old-id",
		Host:       "us.platform.sh",
		AliasGroup: "mysite",
	}))

	err := runSetRemote(d, d.root, "abc123", "")
	require.NoError(t, err)

	proj, err := config.LoadProject(d.root)
	require.NoError(t, err)
	assert.Equal(t, "abc123", proj.ID)
	assert.Equal(t, "us.platform.sh", proj.Host, "host carries over when --host is not given")
	assert.Equal(t, "mysite", proj.AliasGroup, "alias group carries over")
}
