package sshutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCommandDefaults(t *testing.T) {
	assert.Equal(t, "ssh", BuildCommand(CommandOptions{}))
}

func TestBuildCommandWithIdentityAndOptions(t *testing.T) {
	cmd := BuildCommand(CommandOptions{
		IdentityFile: "/home/user/.ssh/id_ed25519",
		Options:      []string{"StrictHostKeyChecking=accept-new"},
	})
	assert.Equal(t,
		"ssh -i /home/user/.ssh/id_ed25519 -o StrictHostKeyChecking=accept-new",
		cmd)
}

func TestBuildCommandSendEnv(t *testing.T) {
	cmd := BuildCommand(CommandOptions{
		SendEnv: []string{"PLATFORMSH_PUSH_NO_WAIT"},
	})
	assert.Equal(t, "ssh -o SendEnv=PLATFORMSH_PUSH_NO_WAIT", cmd)
}

func TestBuildCommandQuotesArguments(t *testing.T) {
	cmd := BuildCommand(CommandOptions{
		Executable:   "/opt/my tools/ssh",
		IdentityFile: "/home/user/my key",
	})
	assert.Equal(t, "'/opt/my tools/ssh' -i '/home/user/my key'", cmd)
}

func TestBuildCommandCustomExecutable(t *testing.T) {
	cmd := BuildCommand(CommandOptions{Executable: "/usr/local/bin/ssh"})
	assert.Equal(t, "/usr/local/bin/ssh", cmd)
}

func TestBuildCommandCertificateFile(t *testing.T) {
	cmd := BuildCommand(CommandOptions{CertificateFile: "/cache/ssh-abc-main-cert.pub"})
	assert.Equal(t, "ssh -o CertificateFile=/cache/ssh-abc-main-cert.pub", cmd)
}

func TestBuildArgs(t *testing.T) {
	name, args := BuildArgs(CommandOptions{
		IdentityFile:    "/home/u/.ssh/id_ed25519",
		Options:         []string{"StrictHostKeyChecking=accept-new"},
		CertificateFile: "/cache/cert.pub",
		SendEnv:         []string{"PLATFORMSH_PUSH_NO_WAIT"},
	})

	assert.Equal(t, "ssh", name)
	assert.Equal(t, []string{
		"-i", "/home/u/.ssh/id_ed25519",
		"-o", "StrictHostKeyChecking=accept-new",
		"-o", "CertificateFile=/cache/cert.pub",
		"-o", "SendEnv=PLATFORMSH_PUSH_NO_WAIT",
	}, args)
}
