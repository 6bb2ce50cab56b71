// Package importer folds target-native content back into canonical
// form. It is the reverse path of generation: each source target's
// format is parsed into candidate rules and skills, and Deduplicate
// collapses candidates that describe the same rule.
//
// Files carrying the provenance marker are the engine's own prior
// output and are never imported as user content.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/gorewood/rulesync/internal/frontmatter"
	"github.com/gorewood/rulesync/internal/fsops"
	"github.com/gorewood/rulesync/internal/generate"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/marker"
	"github.com/gorewood/rulesync/internal/store"
	"github.com/gorewood/rulesync/internal/target"
)

// SimilarityThreshold separates near-duplicates from genuinely
// divergent rules sharing an id. At or above it the candidates are
// treated as one rule; below it both survive.
const SimilarityThreshold = 0.8

// PreviewLen bounds the one-line rule preview shown during import.
const PreviewLen = 80

// Skill directories that are tooling state rather than user content.
var skipSkillDirs = map[string]bool{
	".system":              true,
	"cursor-migration-map": true,
}

var skipSkillPrefixes = []string{"pattern-"}

// Rule is one candidate extracted from a source target.
type Rule struct {
	ID      string
	Content string
	Source  string
	Cursor  *manifest.CursorMeta
}

// Result is the outcome of scanning one source target.
type Result struct {
	Source string
	Rules  []Rule
	// Skills holds absolute paths of importable skill directories.
	Skills []string
	Notes  []string
}

// Scan parses a source target's native format into candidates.
// A missing source produces an empty result, not an error.
func Scan(spec target.Spec) (*Result, error) {
	res := &Result{Source: spec.Name}

	var err error
	switch spec.Format {
	case target.FormatRuleFiles:
		err = scanRuleFiles(spec, res)
	case target.FormatSectioned:
		err = scanSectioned(spec, res)
	case target.FormatDocument:
		if spec.Name == "kiro" {
			// Kiro keeps sibling steering documents next to the one
			// rulesync writes; each is its own candidate.
			err = scanDocumentDir(spec, filepath.Dir(spec.RulesFile), res)
		} else {
			err = scanDocument(spec, res)
		}
	case target.FormatNone, target.FormatSummary:
		// Skills only, or not an import source.
	}
	if err != nil {
		return nil, err
	}

	if spec.HasSkills() {
		skills, err := scanSkills(spec.SkillsDir)
		if err != nil {
			return nil, err
		}
		res.Skills = skills
	}
	return res, nil
}

func scanRuleFiles(spec target.Spec, res *Result) error {
	entries, err := filepath.Glob(filepath.Join(spec.RulesDir, "*"+spec.RuleExt))
	if err != nil {
		return err
	}
	sort.Strings(entries)
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var meta cursorMeta
		body, err := frontmatter.Parse(string(data), &meta)
		if err != nil {
			res.Notes = append(res.Notes, fmt.Sprintf("%s: unreadable frontmatter in %s, skipping", spec.Label, filepath.Base(path)))
			continue
		}
		if marker.IsGenerated(body) {
			res.Notes = append(res.Notes, fmt.Sprintf("%s: skipping generated file %s", spec.Label, filepath.Base(path)))
			continue
		}
		id := strings.TrimSuffix(filepath.Base(path), spec.RuleExt)
		res.Rules = append(res.Rules, Rule{
			ID:      id,
			Content: strings.TrimSpace(body),
			Source:  spec.Name,
			Cursor:  meta.toManifest(),
		})
	}
	return nil
}

type cursorMeta struct {
	Description string `yaml:"description"`
	AlwaysApply *bool  `yaml:"alwaysApply"`
	Globs       string `yaml:"globs"`
}

func (m cursorMeta) toManifest() *manifest.CursorMeta {
	if m.Description == "" && m.AlwaysApply == nil && m.Globs == "" {
		return nil
	}
	return &manifest.CursorMeta{
		Description: m.Description,
		AlwaysApply: m.AlwaysApply,
		Globs:       m.Globs,
	}
}

var sectionRE = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(strings.TrimSuffix(generate.SectionPrefix, " ")) + `\s*(.+)$`)

func scanSectioned(spec target.Spec, res *Result) error {
	data, err := os.ReadFile(spec.RulesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	text := string(data)
	if marker.IsGenerated(text) {
		res.Notes = append(res.Notes, fmt.Sprintf("%s: skipping generated %s", spec.Label, filepath.Base(spec.RulesFile)))
		return nil
	}

	headings := sectionRE.FindAllStringSubmatchIndex(text, -1)
	for i, h := range headings {
		id := strings.TrimSpace(text[h[2]:h[3]])
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		content := strings.TrimSpace(text[h[1]:end])
		res.Rules = append(res.Rules, Rule{ID: id, Content: content, Source: spec.Name})
	}
	return nil
}

var headingRE = regexp.MustCompile(`(?m)^# .+$`)

func scanDocument(spec target.Spec, res *Result) error {
	data, err := os.ReadFile(spec.RulesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	text := string(data)
	if marker.IsGenerated(text) {
		res.Notes = append(res.Notes, fmt.Sprintf("%s: skipping generated %s", spec.Label, filepath.Base(spec.RulesFile)))
		return nil
	}

	headings := headingRE.FindAllStringIndex(text, -1)
	for i, h := range headings {
		heading := strings.TrimSpace(strings.TrimLeft(text[h[0]:h[1]], "# "))
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		content := strings.TrimSpace(text[h[0]:end])
		res.Rules = append(res.Rules, Rule{ID: Slug(heading), Content: content, Source: spec.Name})
	}
	return nil
}

func scanDocumentDir(spec target.Spec, dir string, res *Result) error {
	entries, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return err
	}
	sort.Strings(entries)
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		text := string(data)
		if marker.IsGenerated(text) {
			res.Notes = append(res.Notes, fmt.Sprintf("%s: skipping generated file %s", spec.Label, filepath.Base(path)))
			continue
		}
		id := strings.TrimSuffix(filepath.Base(path), ".md")
		res.Rules = append(res.Rules, Rule{ID: id, Content: strings.TrimSpace(text), Source: spec.Name})
	}
	return nil
}

func scanSkills(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || e.Type()&os.ModeSymlink != 0 {
			continue
		}
		if skipSkillDirs[e.Name()] || hasSkipPrefix(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		// A sidecar means rulesync delivered this copy; the canonical
		// store already has it.
		if sc, err := marker.ReadSidecar(path); err == nil && sc != nil {
			continue
		}
		out = append(out, path)
	}
	sort.Strings(out)
	return out, nil
}

func hasSkipPrefix(name string) bool {
	for _, p := range skipSkillPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

var slugRE = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives a rule id from a free-form heading.
func Slug(heading string) string {
	s := slugRE.ReplaceAllString(strings.ToLower(heading), "-")
	return strings.Trim(s, "-")
}

// Preview returns the first non-heading, non-empty content line of a
// rule, truncated for display.
func Preview(r Rule) string {
	for _, line := range strings.Split(r.Content, "\n") {
		s := strings.TrimSpace(line)
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if runes := []rune(s); len(runes) > PreviewLen {
			return string(runes[:PreviewLen])
		}
		return s
	}
	return "(empty)"
}

// Chooser resolves a flagged near-duplicate. It returns true to keep
// the already-accepted rule, false to replace it with the candidate.
// A nil Chooser keeps the first-seen rule.
type Chooser func(existing, candidate Rule, ratio float64, diff string) bool

// Duplicate records one dedup decision for reporting.
type Duplicate struct {
	ID       string
	Kept     string // source of the surviving rule
	Dropped  string // source of the dropped rule, empty if both kept
	Ratio    float64
	Distinct bool // both kept under separate ids
}

// Deduplicate collapses candidates sharing an id. Exact duplicates
// are dropped silently. Near-duplicates at or above
// SimilarityThreshold are resolved by choose. Genuinely different
// rules below the threshold are both kept, the later one under an id
// suffixed with its source.
func Deduplicate(rules []Rule, choose Chooser) ([]Rule, []Duplicate) {
	seen := make(map[string]int)
	var out []Rule
	var dups []Duplicate

	for _, r := range rules {
		idx, ok := seen[r.ID]
		if !ok {
			seen[r.ID] = len(out)
			out = append(out, r)
			continue
		}
		existing := out[idx]
		ratio := Similarity(existing.Content, r.Content)

		switch {
		case ratio == 1.0:
			// Same content from another source; nothing to record.
		case ratio >= SimilarityThreshold:
			d := Duplicate{ID: r.ID, Kept: existing.Source, Dropped: r.Source, Ratio: ratio}
			if choose != nil && !choose(existing, r, ratio, unifiedDiff(existing, r)) {
				out[idx] = r
				d.Kept, d.Dropped = r.Source, existing.Source
			}
			dups = append(dups, d)
		default:
			distinct := r
			distinct.ID = r.ID + "-" + r.Source
			seen[distinct.ID] = len(out)
			out = append(out, distinct)
			dups = append(dups, Duplicate{ID: r.ID, Kept: existing.Source, Ratio: ratio, Distinct: true})
		}
	}
	return out, dups
}

// Similarity computes a line-based similarity ratio in [0, 1].
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	m := difflib.NewMatcher(difflib.SplitLines(a), difflib.SplitLines(b))
	return m.Ratio()
}

func unifiedDiff(existing, candidate Rule) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(existing.Content),
		B:        difflib.SplitLines(candidate.Content),
		FromFile: existing.Source + "/" + existing.ID,
		ToFile:   candidate.Source + "/" + candidate.ID,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}

// WriteRules materializes imported rules into the canonical store and
// returns the manifest entries describing them.
func WriteRules(rules []Rule, layout store.Layout, ops *fsops.Ops) ([]manifest.Rule, error) {
	var entries []manifest.Rule
	for _, r := range rules {
		file := r.ID + ".md"
		content := strings.TrimSpace(r.Content) + "\n"
		if _, err := ops.WriteFile(layout.RulePath(file), content, nil); err != nil {
			return nil, err
		}
		entries = append(entries, manifest.Rule{
			ID:           r.ID,
			File:         file,
			ImportedFrom: r.Source,
			Cursor:       r.Cursor,
		})
	}
	return entries, nil
}

// CopySkills copies importable skill directories into the canonical
// store, skipping names already present. Returns the names copied.
func CopySkills(dirs []string, layout store.Layout, ops *fsops.Ops) ([]string, error) {
	var copied []string
	for _, src := range dirs {
		name := filepath.Base(src)
		dest := layout.SkillPath(name)
		if _, err := os.Lstat(dest); err == nil {
			continue
		}
		if err := ops.CopyTree(src, dest); err != nil {
			return nil, err
		}
		copied = append(copied, name)
	}
	return copied, nil
}
