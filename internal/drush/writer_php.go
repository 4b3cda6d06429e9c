package drush

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// phpAliasWriter writes <group>.aliases.drushrc.php under ~/.drush, the
// legacy format read by drush 8 and earlier.
type phpAliasWriter struct {
	homeDir string
}

var phpAliasTemplate = template.Must(template.New("aliases").Parse(`<?php
/**
 * Drush aliases for {{ .Group }}.
 *
 * Generated by the platform CLI. Regenerate with 'platform drush:aliases';
 * manual edits will be lost.
 */

{{ range .Entries }}$aliases['{{ .Name }}'] = array(
{{- if .IsLocal }}
  'root' => '{{ .Root }}',
{{- else }}
  'uri' => '{{ .URI }}',
  'remote-host' => '{{ .Host }}',
  'remote-user' => '{{ .User }}',
  'root' => '{{ .Root }}',
{{- end }}
);
{{ end }}`))

func (w *phpAliasWriter) Format() string { return "php" }

func (w *phpAliasWriter) Write(group string, entries []aliasEntry) error {
	var buf bytes.Buffer
	err := phpAliasTemplate.Execute(&buf, struct {
		Group   string
		Entries []aliasEntry
	}{Group: group, Entries: entries})
	if err != nil {
		return fmt.Errorf("render php aliases: %w", err)
	}

	dir := filepath.Join(w.homeDir, ".drush")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, group+".aliases.drushrc.php")
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
