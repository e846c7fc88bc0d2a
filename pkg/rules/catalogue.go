// Package rules holds the skill validation rule catalogue: a fixed,
// ordered list of named, pure predicates over a loaded artifact. Every
// rule is total and independent of every other rule's outcome, so the
// catalogue can run rules in any order and a broken rule can never
// suppress the findings of the others.
package rules

import (
	"fmt"

	"github.com/jingkaihe/skillcheck/pkg/artifact"
	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/types/review"
)

// RuleEngineInternalError is reported when a rule predicate panics.
// Predicates are specified to be total, so this firing is a bug in the
// catalogue itself; it is surfaced as a BLOCKER naming the rule rather
// than swallowed.
const RuleEngineInternalError = "ENGINE_INTERNAL_ERROR"

// CheckFunc is one rule predicate. It must be pure with respect to the
// artifact: same artifact and policy in, same findings out.
type CheckFunc func(a *artifact.Artifact, policy config.Policy) []review.Finding

// Rule pairs a stable identifier with its predicate. The ID is what
// review reports and tests key on; it never changes once published.
type Rule struct {
	ID    string
	Check CheckFunc
}

// Catalogue returns the full rule list in its canonical order. The
// order is cosmetic only; evaluation does not depend on it.
func Catalogue() []Rule {
	rules := []Rule{
		{ID: RuleNameMissing, Check: checkNameMissing},
		{ID: RuleNameKebabCase, Check: checkNameKebabCase},
		{ID: RuleNameMatchesDirectory, Check: checkNameMatchesDirectory},
		{ID: RuleNameNotGerund, Check: checkNameGerund},
		{ID: RuleDirectoryKebabCase, Check: checkDirectoryKebabCase},
		{ID: RuleVersionMissing, Check: checkVersionMissing},
		{ID: RuleVersionSemver, Check: checkVersionSemver},
		{ID: RuleDescriptionMissing, Check: checkDescriptionMissing},
		{ID: RuleDescriptionTooLong, Check: checkDescriptionTooLong},
		{ID: RuleDescriptionPerson, Check: checkDescriptionPerson},
		{ID: RuleLengthOverSoftLimit, Check: checkLengthOverSoftLimit},
		{ID: RuleLengthOverHardLimit, Check: checkLengthOverHardLimit},
		{ID: RuleMissingSectionWhenToUse, Check: missingSectionCheck(sectionWhenToUse, review.SeverityCritical)},
		{ID: RuleMissingSectionWhenNotToUse, Check: missingSectionCheck(sectionWhenNotToUse, review.SeverityMinor)},
		{ID: RuleMissingSectionWorkflow, Check: missingSectionCheck(sectionWorkflow, review.SeverityMajor)},
		{ID: RuleMissingSectionExamples, Check: missingSectionCheck(sectionExamples, review.SeverityMajor)},
		{ID: RuleNoCodeExamples, Check: checkNoCodeExamples},
		{ID: RuleFewCodeExamples, Check: checkFewCodeExamples},
		{ID: RuleUnterminatedCodeFence, Check: checkUnterminatedCodeFence},
		{ID: RulePlaceholderValues, Check: checkPlaceholderValues},
		{ID: RuleMissingTestScenarios, Check: checkMissingTestScenarios},
		{ID: RuleTestScenariosTrivial, Check: checkTestScenariosTrivial},
		{ID: RuleRefIntegrity, Check: checkReferenceIntegrity},
	}
	return rules
}

// Evaluate runs every catalogue rule against the artifact and merges the
// results with the findings the loader produced. A panicking rule is
// converted into an ENGINE_INTERNAL_ERROR finding and evaluation of the
// remaining rules continues.
func Evaluate(a *artifact.Artifact, policy config.Policy) []review.Finding {
	findings := make([]review.Finding, 0, len(a.LoadFindings))
	findings = append(findings, a.LoadFindings...)

	for _, rule := range Catalogue() {
		findings = append(findings, runRule(rule, a, policy)...)
	}

	return findings
}

func runRule(rule Rule, a *artifact.Artifact, policy config.Policy) (findings []review.Finding) {
	defer func() {
		if r := recover(); r != nil {
			findings = []review.Finding{{
				RuleID:   RuleEngineInternalError,
				Severity: review.SeverityBlocker,
				Message:  fmt.Sprintf("rule %s panicked: %v", rule.ID, r),
				Location: rule.ID,
			}}
		}
	}()

	return rule.Check(a, policy)
}
