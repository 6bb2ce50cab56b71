// Package frontmatter reads and writes the YAML frontmatter block used
// by Cursor .mdc rule files.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Split separates a YAML frontmatter block from the body.
// Frontmatter is delimited by --- at the start and end. Content
// without frontmatter returns ("", content) unchanged.
func Split(raw string) (frontmatter, body string) {
	if !strings.HasPrefix(raw, "---") {
		return "", raw
	}
	rest := raw[3:]
	before, after, ok := strings.Cut(rest, "\n---")
	if !ok {
		return "", raw
	}
	return strings.TrimSpace(before), strings.TrimLeft(after, "\n")
}

// Parse decodes the frontmatter block of raw into dst and returns the
// body. Content without frontmatter leaves dst untouched.
func Parse(raw string, dst any) (body string, err error) {
	fm, body := Split(raw)
	if fm == "" {
		return body, nil
	}
	if err := yaml.Unmarshal([]byte(fm), dst); err != nil {
		return "", fmt.Errorf("invalid frontmatter: %w", err)
	}
	return body, nil
}

// Build renders src as a frontmatter block, delimiters included. A nil
// or empty src yields the bare delimiter pair Cursor expects on files
// without metadata.
func Build(src any) (string, error) {
	if src == nil {
		return "---\n---", nil
	}
	data, err := yaml.Marshal(src)
	if err != nil {
		return "", err
	}
	block := strings.TrimSpace(string(data))
	if block == "" || block == "{}" {
		return "---\n---", nil
	}
	return "---\n" + block + "\n---", nil
}
