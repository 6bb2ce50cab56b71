package frontmatter

import "testing"

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantFM   string
		wantBody string
	}{
		{
			name:     "with frontmatter",
			raw:      "---\nkey: value\n---\n\n# Body\n",
			wantFM:   "key: value",
			wantBody: "# Body\n",
		},
		{
			name:     "no frontmatter",
			raw:      "# Just a doc\n",
			wantFM:   "",
			wantBody: "# Just a doc\n",
		},
		{
			name:     "unterminated block",
			raw:      "---\nkey: value\n",
			wantFM:   "",
			wantBody: "---\nkey: value\n",
		},
		{
			name:     "empty block",
			raw:      "---\n---\nbody",
			wantFM:   "",
			wantBody: "body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body := Split(tt.raw)
			if fm != tt.wantFM {
				t.Errorf("frontmatter = %q, want %q", fm, tt.wantFM)
			}
			if body != tt.wantBody {
				t.Errorf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestParse(t *testing.T) {
	var meta struct {
		AlwaysApply bool   `yaml:"alwaysApply"`
		Description string `yaml:"description"`
	}
	body, err := Parse("---\nalwaysApply: true\ndescription: Formatting\n---\nrule body\n", &meta)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !meta.AlwaysApply || meta.Description != "Formatting" {
		t.Errorf("meta = %+v", meta)
	}
	if body != "rule body\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParse_Invalid(t *testing.T) {
	var meta struct{}
	if _, err := Parse("---\n: [broken\n---\nbody", &meta); err == nil {
		t.Error("expected error for invalid YAML frontmatter")
	}
}

func TestBuild(t *testing.T) {
	type meta struct {
		AlwaysApply bool   `yaml:"alwaysApply"`
		Description string `yaml:"description,omitempty"`
	}

	got, err := Build(meta{AlwaysApply: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != "---\nalwaysApply: true\n---" {
		t.Errorf("Build() = %q", got)
	}

	empty, err := Build(nil)
	if err != nil {
		t.Fatalf("Build(nil): %v", err)
	}
	if empty != "---\n---" {
		t.Errorf("Build(nil) = %q, want bare delimiters", empty)
	}
}

func TestBuildParseRoundTrip(t *testing.T) {
	type meta struct {
		Globs string `yaml:"globs"`
	}
	block, err := Build(meta{Globs: "**/*.go"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var back meta
	body, err := Parse(block+"\ncontent", &back)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if back.Globs != "**/*.go" {
		t.Errorf("Globs = %q", back.Globs)
	}
	if body != "content" {
		t.Errorf("body = %q", body)
	}
}
