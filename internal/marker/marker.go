// Package marker defines the provenance contract for generated content.
//
// Two artifact kinds carry provenance:
//
//   - Generated files start with a fixed literal header line followed by
//     a regeneration hint and a sync timestamp. The header line is the
//     recognition token; the timestamp line is ignored when comparing
//     content so that repeated syncs do not rewrite unchanged files.
//
//   - Managed skill copies contain a fixed-name sidecar file recording
//     the canonical source path, the sync timestamp, and the delivery
//     mode. A sidecar whose source does not resolve into the canonical
//     store marks foreign provenance and the directory is treated as
//     unmanaged.
//
// The header is versioned so the marker format can evolve without
// breaking recognition of older generated files.
package marker

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Version is the current marker schema version.
const Version = 1

// FileHeader is the fixed recognition token at the top of every
// generated file. Recognition is prefix-based: any file whose first
// non-blank line starts with this string is considered generated,
// whatever version produced it.
const FileHeader = "# Generated by rulesync -- do not edit directly"

// SidecarName is the fixed name of the provenance record written into
// managed skill copies.
const SidecarName = ".rulesync-skill.yaml"

// syncedAtPrefix introduces the timestamp line of a file header.
// Lines with this prefix are stripped before content comparison.
const syncedAtPrefix = "# Last synced:"

// Header renders the full generated-file header for the given sync time.
func Header(syncedAt time.Time) string {
	var b strings.Builder
	b.WriteString(FileHeader + "\n")
	b.WriteString("# Run: rulesync sync\n")
	b.WriteString(syncedAtPrefix + " " + syncedAt.UTC().Format(time.RFC3339) + "\n")
	return b.String()
}

// IsGenerated reports whether content begins with the generated-file
// header (leading whitespace ignored).
func IsGenerated(content string) bool {
	return strings.HasPrefix(strings.TrimLeft(content, " \t\r\n"), FileHeader)
}

// StripTimestamp removes the sync timestamp line from content so two
// renders of the same canonical input compare equal. Everything else
// is preserved byte for byte.
func StripTimestamp(content string) string {
	lines := strings.Split(content, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(line, syncedAtPrefix) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Sidecar is the provenance record for a managed skill copy.
type Sidecar struct {
	Version  int       `yaml:"version"`
	Source   string    `yaml:"source"`
	SyncedAt time.Time `yaml:"synced_at"`
	SyncMode string    `yaml:"sync_mode"`
}

// RenderSidecar returns the provenance record content for a managed
// copy of source.
func RenderSidecar(source string, syncedAt time.Time) (string, error) {
	s := Sidecar{
		Version:  Version,
		Source:   source,
		SyncedAt: syncedAt.UTC(),
		SyncMode: "copy",
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteSidecar writes the provenance record into dir.
func WriteSidecar(dir, source string, syncedAt time.Time) error {
	content, err := RenderSidecar(source, syncedAt)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, SidecarName), []byte(content), 0o644)
}

// ReadSidecar loads the provenance record from dir.
// Returns os.ErrNotExist (wrapped) when the directory carries no record.
func ReadSidecar(dir string) (*Sidecar, error) {
	data, err := os.ReadFile(filepath.Join(dir, SidecarName))
	if err != nil {
		return nil, err
	}
	var s Sidecar
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
