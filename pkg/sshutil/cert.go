package sshutil

import (
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"
)

// ParseCertificate parses an SSH certificate in authorized-keys format,
// as cached in the CLI's connection metadata.
func ParseCertificate(authorizedKey string) (*ssh.Certificate, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(authorizedKey))
	if err != nil {
		return nil, fmt.Errorf("parse ssh key: %w", err)
	}

	cert, ok := key.(*ssh.Certificate)
	if !ok {
		return nil, fmt.Errorf("key is a %s, not a certificate", key.Type())
	}
	return cert, nil
}

// CertificateValidAt reports whether the certificate's validity window
// contains the given time.
func CertificateValidAt(cert *ssh.Certificate, at time.Time) bool {
	ts := uint64(at.Unix())
	if cert.ValidAfter != 0 && ts < cert.ValidAfter {
		return false
	}
	if cert.ValidBefore != ssh.CertTimeInfinity && ts >= cert.ValidBefore {
		return false
	}
	return true
}
