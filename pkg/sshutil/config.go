package sshutil

import (
	"io"
	"os"
	"path/filepath"

	"github.com/kevinburke/ssh_config"
)

// LookupIdentityFile returns the IdentityFile the user's ~/.ssh/config
// assigns to host, or empty string when none is configured. This lets an
// assembled GIT_SSH_COMMAND honor per-host keys the user already set up.
func LookupIdentityFile(host string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	f, err := os.Open(filepath.Join(home, ".ssh", "config"))
	if err != nil {
		return ""
	}
	defer f.Close() //nolint:errcheck // read-only file

	return LookupIdentityFileIn(f, host)
}

// LookupIdentityFileIn is the testable core of LookupIdentityFile, reading
// the SSH config from r.
func LookupIdentityFileIn(r io.Reader, host string) string {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return ""
	}

	identity, err := cfg.Get(host, "IdentityFile")
	if err != nil {
		return ""
	}

	// ssh_config reports the protocol default when nothing matched;
	// only an explicit setting is interesting here.
	if identity == "" || identity == ssh_config.Default("IdentityFile") {
		return ""
	}
	return expandHome(identity)
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
