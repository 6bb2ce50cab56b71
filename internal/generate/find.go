package generate

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gorewood/rulesync/internal/frontmatter"
	"github.com/gorewood/rulesync/internal/manifest"
	"github.com/gorewood/rulesync/internal/marker"
	"github.com/gorewood/rulesync/internal/target"
)

// FindArtifacts returns existing rule artifacts for a target that
// carry the provenance marker. This is the reversal scan used by
// clean: only files the engine provably wrote are candidates for
// removal, user-owned files never match.
func FindArtifacts(spec target.Spec, man *manifest.Manifest) ([]string, error) {
	switch spec.Format {
	case target.FormatRuleFiles:
		return findRuleFiles(spec)
	case target.FormatSectioned, target.FormatDocument:
		if generatedFile(spec.RulesFile) {
			return []string{spec.RulesFile}, nil
		}
		return nil, nil
	case target.FormatSummary:
		paths, _ := ExpandPaths(man.AgentsMD.Paths)
		var found []string
		for _, p := range paths {
			if generatedFile(p) {
				found = append(found, p)
			}
		}
		return found, nil
	default:
		return nil, nil
	}
}

func findRuleFiles(spec target.Spec) ([]string, error) {
	entries, err := filepath.Glob(filepath.Join(spec.RulesDir, "*"+spec.RuleExt))
	if err != nil {
		return nil, err
	}
	var found []string
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		_, body := frontmatter.Split(string(data))
		if marker.IsGenerated(body) {
			found = append(found, path)
		}
	}
	sort.Strings(found)
	return found, nil
}

func generatedFile(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return marker.IsGenerated(string(data))
}
