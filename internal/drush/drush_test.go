package drush

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staabm/platformsh-cli/internal/config"
	"github.com/staabm/platformsh-cli/internal/logger"
)

func newTestDrush(t *testing.T, cfg config.DrushConfig, projectRoot string) *Drush {
	t.Helper()
	d := New(projectRoot, cfg)
	d.SetHomeDir(t.TempDir())
	d.SetLogger(logger.Noop())
	return d
}

// fixedOutput returns a runner that always prints the given output.
func fixedOutput(out string) CommandRunner {
	return func(name string, args ...string) ([]byte, error) {
		return []byte(out), nil
	}
}

func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			name:   "padded label and version",
			output: "Drush Version   :  8.0.0-beta14\n",
			want:   "8.0.0-beta14",
		},
		{
			name:   "leading blank lines",
			output: "\n\n Drush Version : 9.5.2\n",
			want:   "9.5.2",
		},
		{
			name:   "no matching pattern",
			output: "drush is not installed properly\n",
			want:   "",
		},
		{
			name:   "empty output",
			output: "",
			want:   "",
		},
		{
			name:   "plain version with label",
			output: "Version: 10.1.1\n",
			want:   "10.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseVersionOutput(tt.output))
		})
	}
}

func TestVersionDetection(t *testing.T) {
	d := newTestDrush(t, config.DrushConfig{}, "")
	d.SetRunner(fixedOutput("Drush Version   :  8.0.0-beta14\n"))

	v, err := d.Version(false)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "8.0.0-beta14", v.String())
}

func TestVersionUnknownIsNotFatal(t *testing.T) {
	d := newTestDrush(t, config.DrushConfig{}, "")
	d.SetRunner(fixedOutput("something unexpected\n"))

	v, err := d.Version(false)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestVersionCachedUntilRefresh(t *testing.T) {
	calls := 0
	d := newTestDrush(t, config.DrushConfig{}, "")
	d.SetRunner(func(name string, args ...string) ([]byte, error) {
		calls++
		return []byte(fmt.Sprintf("Drush Version : 9.%d.0\n", calls)), nil
	})

	v, err := d.Version(false)
	require.NoError(t, err)
	assert.Equal(t, "9.1.0", v.String())

	// Cached: no new invocation.
	v, err = d.Version(false)
	require.NoError(t, err)
	assert.Equal(t, "9.1.0", v.String())
	assert.Equal(t, 1, calls)

	// Refresh re-runs detection.
	v, err = d.Version(true)
	require.NoError(t, err)
	assert.Equal(t, "9.2.0", v.String())
	assert.Equal(t, 2, calls)
}

func TestVersionExecutionFailureNotCached(t *testing.T) {
	failing := true
	d := newTestDrush(t, config.DrushConfig{}, "")
	d.SetRunner(func(name string, args ...string) ([]byte, error) {
		if failing {
			return nil, fmt.Errorf("exec: %q not found", name)
		}
		return []byte("Drush Version : 9.5.2\n"), nil
	})

	_, err := d.Version(false)
	require.Error(t, err)

	failing = false
	v, err := d.Version(false)
	require.NoError(t, err)
	assert.Equal(t, "9.5.2", v.String())
}

func TestCapabilityGating(t *testing.T) {
	tests := []struct {
		version  string
		wantYaml bool
		wantPhp  bool
	}{
		{"9.0.0-alpha1", true, false},
		{"9.5.2", true, false},
		{"10.0.0", true, false},
		{"8.0.0-beta14", false, true},
		{"8.4.12", false, true},
		{"6.0.0", false, true},
	}

	for _, tt := range tests {
		t.Run("version "+tt.version, func(t *testing.T) {
			d := newTestDrush(t, config.DrushConfig{}, "")
			d.SetRunner(fixedOutput("Drush Version : " + tt.version + "\n"))

			assert.Equal(t, tt.wantYaml, d.SupportsYamlAliases(), "yaml support")
			assert.Equal(t, tt.wantPhp, d.SupportsPhpAliases(), "php support")
		})
	}
}

func TestCapabilityGatingUnknownVersion(t *testing.T) {
	d := newTestDrush(t, config.DrushConfig{}, "")
	d.SetRunner(fixedOutput("no version here\n"))

	// Unknown version degrades to "supported" for both formats.
	assert.True(t, d.SupportsYamlAliases())
	assert.True(t, d.SupportsPhpAliases())
}

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
}

func TestExecutableOverrideWins(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "custom-drush")
	writeExecutable(t, override)

	projectRoot := t.TempDir()
	writeExecutable(t, filepath.Join(projectRoot, "vendor", "bin", "drush"))

	d := newTestDrush(t, config.DrushConfig{Executable: override}, projectRoot)
	assert.Equal(t, override, d.Executable(false))
}

func TestExecutablePrefersVendoredCopy(t *testing.T) {
	t.Setenv("PATH", t.TempDir()) // hide any global drush

	projectRoot := t.TempDir()
	vendored := filepath.Join(projectRoot, "vendor", "bin", "drush")
	writeExecutable(t, vendored)

	d := newTestDrush(t, config.DrushConfig{}, projectRoot)
	assert.Equal(t, vendored, d.Executable(false))
}

func TestExecutableFallsBackToBareName(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	d := newTestDrush(t, config.DrushConfig{}, t.TempDir())
	assert.Equal(t, "drush", d.Executable(false))
}

func TestExecutableCachedUntilRefresh(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	projectRoot := t.TempDir()
	d := newTestDrush(t, config.DrushConfig{}, projectRoot)
	assert.Equal(t, "drush", d.Executable(false))

	// A vendored drush appearing later is only noticed on refresh.
	vendored := filepath.Join(projectRoot, "vendor", "bin", "drush")
	writeExecutable(t, vendored)

	assert.Equal(t, "drush", d.Executable(false))
	assert.Equal(t, vendored, d.Executable(true))
}
