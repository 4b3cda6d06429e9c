package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestName), []byte(content), 0o644))
}

func TestDiscoverSingleApp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
name: app
type: php:8.2
build:
  flavor: drupal
web:
  document_root: /web
`)

	apps, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, apps, 1)

	a := apps[0]
	assert.Equal(t, "app", a.Name)
	assert.Equal(t, "php", a.Runtime())
	assert.Equal(t, "drupal", a.Build.Flavor)
	assert.Equal(t, "", a.Path)
}

func TestDiscoverMultiApp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "backend"), "name: backend\ntype: php:8.2\n")
	writeManifest(t, filepath.Join(root, "frontend"), "name: frontend\ntype: nodejs:20\n")

	apps, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, apps, 2)

	// Sorted by path.
	assert.Equal(t, "backend", apps[0].Name)
	assert.Equal(t, "frontend", apps[1].Name)
	assert.Equal(t, "nodejs", apps[1].Runtime())
}

func TestDiscoverSkipsVendorAndGit(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "name: app\ntype: php:8.2\n")
	writeManifest(t, filepath.Join(root, "vendor", "dep"), "name: ignored\ntype: php:8.2\n")
	writeManifest(t, filepath.Join(root, ".git", "x"), "name: ignored\ntype: php:8.2\n")

	apps, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "app", apps[0].Name)
}

func TestDiscoverEmptyProject(t *testing.T) {
	apps, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestDiscoverInvalidManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "name: [broken")

	_, err := Discover(root)
	assert.Error(t, err)
}
