// Package artifact loads a skill directory into an in-memory value the
// rule catalogue can evaluate. Skills are packaged as directories
// containing a SKILL.md file with YAML frontmatter plus optional sibling
// reference files (REFERENCE.md, test-scenarios.md, ...).
//
// Loading degrades instead of failing: a missing or malformed SKILL.md
// becomes a BLOCKER finding on the artifact rather than an error, so a
// single broken skill never aborts a batch run and rules that do not
// depend on the broken part still get to run.
package artifact

import (
	"regexp"
	"strings"

	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/types/review"
)

// SkillFileName is the fixed, case-sensitive name of the primary document.
const SkillFileName = "SKILL.md"

// TestScenariosFileName is the conventional sibling holding test scenarios.
const TestScenariosFileName = "test-scenarios.md"

// ReferenceMention is one "NAME.md" or "NAME.md Section N" occurrence in
// the body. Section is empty when the mention does not address a section.
type ReferenceMention struct {
	File    string
	Section string
}

// Artifact is one reviewable skill, fully derived from the filesystem at
// load time. Values are never mutated after Load returns.
type Artifact struct {
	// DirectoryName is the base name of the skill directory.
	DirectoryName string
	// Dir is the full path, kept for cross-reference rules that need to
	// read sibling files.
	Dir string

	// Frontmatter holds the parsed key/value header. Empty when the
	// frontmatter is missing or malformed; FrontmatterValid tells the two
	// cases apart from an empty-but-well-formed header.
	Frontmatter      map[string]string
	FrontmatterValid bool

	// PrimaryPresent is false when SKILL.md could not be read at all; body
	// statistics are then zero-valued and body rules have nothing to say.
	PrimaryPresent bool

	BodyLineCount     int
	BodySections      map[string]bool
	CodeBlockCount    int
	UnterminatedFence bool
	ReferenceMentions []ReferenceMention
	// PlaceholderHits lists the placeholder lexicon entries found in the
	// body, in lexicon order. Precomputed here so the placeholder rule
	// never re-scans raw text.
	PlaceholderHits []string
	SiblingFiles    map[string]bool

	// SiblingLineCounts caches line counts for siblings the loader could
	// read, keyed by file name. Used by the test-scenarios rules.
	SiblingLineCounts map[string]int

	// LoadFindings carries BLOCKER findings produced during loading
	// (missing primary file, malformed frontmatter). The catalogue merges
	// them with rule findings.
	LoadFindings []review.Finding
}

// mentionPattern matches "NAME.md" optionally followed by " Section N".
// This is a lexical scan over the raw body, not markdown parsing; hits
// inside code blocks are accepted as mentions.
var mentionPattern = regexp.MustCompile(`([A-Za-z0-9][A-Za-z0-9_-]*\.md)(?:[ ]+Section[ ]+(\d+))?`)

// parseBody extracts body statistics from the content that follows the
// frontmatter block.
func (a *Artifact) parseBody(body string, policy config.Policy) {
	lines := strings.Split(body, "\n")
	// A trailing newline produces one empty trailing element; do not
	// count it as a body line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	a.BodyLineCount = len(lines)

	vocabulary := make(map[string]bool, len(policy.SectionVocabulary))
	for _, heading := range policy.SectionVocabulary {
		vocabulary[heading] = true
	}

	fenceCount := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			fenceCount++
			continue
		}
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			heading = strings.TrimRight(heading, " ")
			if vocabulary[heading] {
				a.BodySections[heading] = true
			}
		}
	}
	a.CodeBlockCount = fenceCount / 2
	a.UnterminatedFence = fenceCount%2 != 0

	for _, placeholder := range policy.PlaceholderLexicon {
		if strings.Contains(body, placeholder) {
			a.PlaceholderHits = append(a.PlaceholderHits, placeholder)
		}
	}

	a.ReferenceMentions = extractMentions(body)
}

// extractMentions scans body text for reference mentions, deduplicated
// on (file, section) in first-occurrence order. Mentions of the primary
// document itself are skipped: SKILL.md is never its own sibling.
func extractMentions(body string) []ReferenceMention {
	var mentions []ReferenceMention
	seen := make(map[ReferenceMention]bool)

	for _, match := range mentionPattern.FindAllStringSubmatch(body, -1) {
		mention := ReferenceMention{File: match[1], Section: match[2]}
		if mention.File == SkillFileName {
			continue
		}
		if seen[mention] {
			continue
		}
		seen[mention] = true
		mentions = append(mentions, mention)
	}

	return mentions
}
