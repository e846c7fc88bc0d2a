package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/skillcheck/pkg/artifact"
	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/types/review"
)

// Cross-reference rule identifiers.
const (
	RuleRefIntegrity      = "REF_INTEGRITY"
	RuleRefMissingFile    = "REF_MISSING_FILE"
	RuleRefMissingSection = "REF_MISSING_SECTION"
)

// checkReferenceIntegrity verifies progressive disclosure: every
// "NAME.md" the body mentions must exist next to SKILL.md, and every
// "NAME.md Section N" mention must resolve to a "## Section N:" heading
// inside that file. This is the only rule that reads files beyond the
// primary document; an unreadable sibling is indistinguishable from a
// missing one and is reported the same way.
func checkReferenceIntegrity(a *artifact.Artifact, _ config.Policy) []review.Finding {
	var findings []review.Finding
	// One finding per distinct (file, section) mention: repeated mentions
	// of the same target collapse, mentions of different sections do not.
	missingReported := make(map[artifact.ReferenceMention]bool)

	for _, mention := range a.ReferenceMentions {
		if !a.SiblingFiles[mention.File] {
			if !missingReported[mention] {
				missingReported[mention] = true
				findings = append(findings, review.Finding{
					RuleID:   RuleRefMissingFile,
					Severity: review.SeverityBlocker,
					Message:  fmt.Sprintf("body references %s but no such file exists in %s", mentionLabel(mention), a.DirectoryName),
					Location: mentionLabel(mention),
				})
			}
			continue
		}

		if mention.Section == "" {
			continue
		}

		ok, err := siblingHasSection(filepath.Join(a.Dir, mention.File), mention.Section)
		if err != nil {
			if !missingReported[mention] {
				missingReported[mention] = true
				findings = append(findings, review.Finding{
					RuleID:   RuleRefMissingFile,
					Severity: review.SeverityBlocker,
					Message:  fmt.Sprintf("body references %s but the file is unreadable: %v", mentionLabel(mention), err),
					Location: mentionLabel(mention),
				})
			}
			continue
		}
		if !ok {
			findings = append(findings, review.Finding{
				RuleID:   RuleRefMissingSection,
				Severity: review.SeverityBlocker,
				Message:  fmt.Sprintf("body references %s Section %s but %s has no '## Section %s:' heading", mention.File, mention.Section, mention.File, mention.Section),
				Location: fmt.Sprintf("%s Section %s", mention.File, mention.Section),
			})
		}
	}

	return findings
}

// mentionLabel names a mention the way the body spells it.
func mentionLabel(m artifact.ReferenceMention) string {
	if m.Section == "" {
		return m.File
	}
	return fmt.Sprintf("%s Section %s", m.File, m.Section)
}

// siblingHasSection scans a reference file for a "## Section <n>:" heading.
func siblingHasSection(path, section string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	prefix := fmt.Sprintf("## Section %s:", section)
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, prefix) {
			return true, nil
		}
	}

	return false, nil
}
