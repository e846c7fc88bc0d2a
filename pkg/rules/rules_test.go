package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillcheck/pkg/artifact"
	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/types/review"
)

// compliantArtifact returns an artifact that fires no rules. Individual
// tests break exactly one property so every rule is exercised in
// isolation against the same baseline.
func compliantArtifact() *artifact.Artifact {
	return &artifact.Artifact{
		DirectoryName:    "writing-helm-charts",
		Dir:              "/skills/writing-helm-charts",
		FrontmatterValid: true,
		PrimaryPresent:   true,
		Frontmatter: map[string]string{
			"name":        "writing-helm-charts",
			"description": "Guides authoring of Helm charts with values schema validation",
			"version":     "1.0.0",
		},
		BodyLineCount: 300,
		BodySections: map[string]bool{
			"When to Use":     true,
			"When NOT to Use": true,
			"Workflow":        true,
			"Examples":        true,
		},
		CodeBlockCount: 3,
		SiblingFiles: map[string]bool{
			"test-scenarios.md": true,
		},
		SiblingLineCounts: map[string]int{
			"test-scenarios.md": 80,
		},
	}
}

func findingIDs(findings []review.Finding) []string {
	var ids []string
	for _, f := range findings {
		ids = append(ids, f.RuleID)
	}
	return ids
}

func TestCompliantArtifactHasNoFindings(t *testing.T) {
	findings := Evaluate(compliantArtifact(), config.DefaultPolicy())
	assert.Empty(t, findings)
}

func TestNameRules(t *testing.T) {
	policy := config.DefaultPolicy()

	t.Run("missing name", func(t *testing.T) {
		a := compliantArtifact()
		delete(a.Frontmatter, "name")
		findings := checkNameMissing(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleNameMissing, findings[0].RuleID)
		assert.Equal(t, review.SeverityBlocker, findings[0].Severity)
	})

	t.Run("not kebab-case", func(t *testing.T) {
		a := compliantArtifact()
		a.Frontmatter["name"] = "My Skill"
		findings := checkNameKebabCase(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleNameKebabCase, findings[0].RuleID)
		assert.Contains(t, findings[0].Message, "My Skill")
	})

	t.Run("kebab-case edge cases", func(t *testing.T) {
		a := compliantArtifact()
		for _, name := range []string{"skill", "my-skill", "a-b-c"} {
			a.Frontmatter["name"] = name
			a.DirectoryName = name
			assert.Empty(t, checkNameKebabCase(a, policy), name)
		}
		for _, name := range []string{"My-Skill", "my_skill", "my--skill", "-skill", "skill-", "skill2"} {
			a.Frontmatter["name"] = name
			assert.Len(t, checkNameKebabCase(a, policy), 1, name)
		}
	})

	t.Run("name does not match directory", func(t *testing.T) {
		a := compliantArtifact()
		a.Frontmatter["name"] = "writing-charts"
		findings := checkNameMatchesDirectory(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleNameMatchesDirectory, findings[0].RuleID)
		assert.Contains(t, findings[0].Message, "writing-charts")
		assert.Contains(t, findings[0].Message, "writing-helm-charts")
	})

	t.Run("directory not kebab-case", func(t *testing.T) {
		a := compliantArtifact()
		a.DirectoryName = "Writing_Helm"
		findings := checkDirectoryKebabCase(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleDirectoryKebabCase, findings[0].RuleID)
	})

	t.Run("name rules are silent when frontmatter is invalid", func(t *testing.T) {
		a := compliantArtifact()
		a.FrontmatterValid = false
		a.Frontmatter = map[string]string{}
		assert.Empty(t, checkNameMissing(a, policy))
		assert.Empty(t, checkNameKebabCase(a, policy))
		assert.Empty(t, checkNameMatchesDirectory(a, policy))
	})
}

func TestGerundRule(t *testing.T) {
	a := compliantArtifact()
	a.Frontmatter["name"] = "helm-audit"
	a.DirectoryName = "helm-audit"

	t.Run("noun form accepted by default", func(t *testing.T) {
		assert.Empty(t, checkNameGerund(a, config.DefaultPolicy()))
	})

	t.Run("noun form rejected when policy disallows it", func(t *testing.T) {
		policy := config.DefaultPolicy()
		policy.AllowNounFormNames = false

		findings := checkNameGerund(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleNameNotGerund, findings[0].RuleID)
		assert.Equal(t, review.SeverityMinor, findings[0].Severity)

		gerund := compliantArtifact()
		gerund.Frontmatter["name"] = "auditing-helm"
		assert.Empty(t, checkNameGerund(gerund, policy))
	})
}

func TestVersionRules(t *testing.T) {
	policy := config.DefaultPolicy()

	t.Run("missing version", func(t *testing.T) {
		a := compliantArtifact()
		delete(a.Frontmatter, "version")
		findings := checkVersionMissing(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleVersionMissing, findings[0].RuleID)
		assert.Equal(t, review.SeverityMajor, findings[0].Severity)
	})

	t.Run("invalid semver", func(t *testing.T) {
		a := compliantArtifact()
		for _, version := range []string{"1.0", "v1.0.0", "1.0.0-rc1", "latest"} {
			a.Frontmatter["version"] = version
			findings := checkVersionSemver(a, policy)
			require.Len(t, findings, 1, version)
			assert.Equal(t, RuleVersionSemver, findings[0].RuleID)
		}
	})

	t.Run("valid semver", func(t *testing.T) {
		a := compliantArtifact()
		a.Frontmatter["version"] = "12.3.44"
		assert.Empty(t, checkVersionSemver(a, policy))
	})
}

func TestDescriptionRules(t *testing.T) {
	policy := config.DefaultPolicy()

	t.Run("missing description", func(t *testing.T) {
		a := compliantArtifact()
		a.Frontmatter["description"] = "   "
		findings := checkDescriptionMissing(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleDescriptionMissing, findings[0].RuleID)
		assert.Equal(t, review.SeverityBlocker, findings[0].Severity)
	})

	t.Run("description too long", func(t *testing.T) {
		a := compliantArtifact()
		a.Frontmatter["description"] = strings.Repeat("x", 1025)
		findings := checkDescriptionTooLong(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleDescriptionTooLong, findings[0].RuleID)
		assert.Equal(t, review.SeverityCritical, findings[0].Severity)
		assert.Contains(t, findings[0].Message, "1025")
	})

	t.Run("description at the limit passes", func(t *testing.T) {
		a := compliantArtifact()
		a.Frontmatter["description"] = strings.Repeat("x", 1024)
		assert.Empty(t, checkDescriptionTooLong(a, policy))
	})

	t.Run("first and second person", func(t *testing.T) {
		a := compliantArtifact()
		for _, description := range []string{
			"I explain how to write charts",
			"Helps you write charts",
			"Improves your charts",
			"How we deploy charts",
		} {
			a.Frontmatter["description"] = description
			findings := checkDescriptionPerson(a, policy)
			require.Len(t, findings, 1, description)
			assert.Equal(t, RuleDescriptionPerson, findings[0].RuleID)
			assert.Equal(t, review.SeverityMajor, findings[0].Severity)
		}
	})

	t.Run("third person passes", func(t *testing.T) {
		a := compliantArtifact()
		a.Frontmatter["description"] = "Guides the assistant through chart authoring"
		assert.Empty(t, checkDescriptionPerson(a, policy))
	})
}

func TestLengthRules(t *testing.T) {
	policy := config.DefaultPolicy()

	tests := []struct {
		lines   int
		ruleIDs []string
	}{
		{lines: 500, ruleIDs: nil},
		{lines: 501, ruleIDs: []string{RuleLengthOverSoftLimit}},
		{lines: 600, ruleIDs: []string{RuleLengthOverSoftLimit}},
		{lines: 601, ruleIDs: []string{RuleLengthOverHardLimit}},
	}

	for _, tc := range tests {
		a := compliantArtifact()
		a.BodyLineCount = tc.lines

		var findings []review.Finding
		findings = append(findings, checkLengthOverSoftLimit(a, policy)...)
		findings = append(findings, checkLengthOverHardLimit(a, policy)...)
		assert.Equal(t, tc.ruleIDs, findingIDs(findings), "lines=%d", tc.lines)
	}
}

func TestSectionRules(t *testing.T) {
	policy := config.DefaultPolicy()

	tests := []struct {
		section  string
		ruleID   string
		severity review.Severity
	}{
		{sectionWhenToUse, RuleMissingSectionWhenToUse, review.SeverityCritical},
		{sectionWhenNotToUse, RuleMissingSectionWhenNotToUse, review.SeverityMinor},
		{sectionWorkflow, RuleMissingSectionWorkflow, review.SeverityMajor},
		{sectionExamples, RuleMissingSectionExamples, review.SeverityMajor},
	}

	for _, tc := range tests {
		t.Run(tc.section, func(t *testing.T) {
			a := compliantArtifact()
			delete(a.BodySections, tc.section)

			findings := missingSectionCheck(tc.section, tc.severity)(a, policy)
			require.Len(t, findings, 1)
			assert.Equal(t, tc.ruleID, findings[0].RuleID)
			assert.Equal(t, tc.severity, findings[0].Severity)
		})
	}
}

func TestCodeExampleRules(t *testing.T) {
	policy := config.DefaultPolicy()

	t.Run("no code examples", func(t *testing.T) {
		a := compliantArtifact()
		a.CodeBlockCount = 0
		findings := checkNoCodeExamples(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleNoCodeExamples, findings[0].RuleID)
		assert.Equal(t, review.SeverityCritical, findings[0].Severity)
	})

	t.Run("one code example", func(t *testing.T) {
		a := compliantArtifact()
		a.CodeBlockCount = 1
		findings := checkFewCodeExamples(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleFewCodeExamples, findings[0].RuleID)
		assert.Equal(t, review.SeverityMajor, findings[0].Severity)
	})

	t.Run("unterminated fence", func(t *testing.T) {
		a := compliantArtifact()
		a.UnterminatedFence = true
		findings := checkUnterminatedCodeFence(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleUnterminatedCodeFence, findings[0].RuleID)
		assert.Equal(t, review.SeverityMinor, findings[0].Severity)
	})
}

func TestPlaceholderRule(t *testing.T) {
	a := compliantArtifact()
	a.PlaceholderHits = []string{"your_file", "foo.txt"}

	findings := checkPlaceholderValues(a, config.DefaultPolicy())
	require.Len(t, findings, 1)
	assert.Equal(t, RulePlaceholderValues, findings[0].RuleID)
	assert.Equal(t, review.SeverityMinor, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "your_file")
	assert.Contains(t, findings[0].Message, "foo.txt")
}

func TestTestScenarioRules(t *testing.T) {
	policy := config.DefaultPolicy()

	t.Run("missing test scenarios", func(t *testing.T) {
		a := compliantArtifact()
		delete(a.SiblingFiles, artifact.TestScenariosFileName)
		findings := checkMissingTestScenarios(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleMissingTestScenarios, findings[0].RuleID)
		assert.Equal(t, review.SeverityCritical, findings[0].Severity)
	})

	t.Run("trivial test scenarios", func(t *testing.T) {
		a := compliantArtifact()
		a.SiblingLineCounts[artifact.TestScenariosFileName] = 5
		findings := checkTestScenariosTrivial(a, policy)
		require.Len(t, findings, 1)
		assert.Equal(t, RuleTestScenariosTrivial, findings[0].RuleID)
		assert.Equal(t, review.SeverityMajor, findings[0].Severity)
	})
}

func TestEvaluateMergesLoadFindings(t *testing.T) {
	a := compliantArtifact()
	a.LoadFindings = []review.Finding{{
		RuleID:   artifact.RuleFrontmatterInvalid,
		Severity: review.SeverityBlocker,
		Message:  "frontmatter in SKILL.md is invalid: test",
	}}

	findings := Evaluate(a, config.DefaultPolicy())
	assert.Contains(t, findingIDs(findings), artifact.RuleFrontmatterInvalid)
}

func TestEvaluateRecoversPanickingRule(t *testing.T) {
	panicking := Rule{
		ID: "ALWAYS_PANICS",
		Check: func(_ *artifact.Artifact, _ config.Policy) []review.Finding {
			panic("rule bug")
		},
	}

	findings := runRule(panicking, compliantArtifact(), config.DefaultPolicy())
	require.Len(t, findings, 1)
	assert.Equal(t, RuleEngineInternalError, findings[0].RuleID)
	assert.Equal(t, review.SeverityBlocker, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "ALWAYS_PANICS")
}

// Rule independence: disabling any one rule never changes whether the
// others fire.
func TestRuleIndependence(t *testing.T) {
	a := compliantArtifact()
	a.Frontmatter["name"] = "My Skill"
	a.CodeBlockCount = 1
	delete(a.SiblingFiles, artifact.TestScenariosFileName)
	policy := config.DefaultPolicy()

	full := map[string][]review.Finding{}
	for _, rule := range Catalogue() {
		full[rule.ID] = rule.Check(a, policy)
	}

	for _, disabled := range Catalogue() {
		for _, rule := range Catalogue() {
			if rule.ID == disabled.ID {
				continue
			}
			assert.Equal(t, full[rule.ID], rule.Check(a, policy),
				"rule %s changed with %s disabled", rule.ID, disabled.ID)
		}
	}
}

// Scenario: bad name, one code block, no test scenarios.
func TestEvaluateScenarioBrokenNaming(t *testing.T) {
	a := compliantArtifact()
	a.DirectoryName = "my-skill"
	a.Frontmatter["name"] = "My Skill"
	a.BodyLineCount = 120
	a.CodeBlockCount = 1
	delete(a.SiblingFiles, artifact.TestScenariosFileName)
	delete(a.SiblingLineCounts, artifact.TestScenariosFileName)

	findings := Evaluate(a, config.DefaultPolicy())
	ids := findingIDs(findings)

	assert.Contains(t, ids, RuleNameKebabCase)
	assert.Contains(t, ids, RuleNameMatchesDirectory)
	assert.Contains(t, ids, RuleFewCodeExamples)
	assert.Contains(t, ids, RuleMissingTestScenarios)
}
