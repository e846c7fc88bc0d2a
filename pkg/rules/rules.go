package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jingkaihe/skillcheck/pkg/artifact"
	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/types/review"
)

// Stable rule identifiers. These appear verbatim in review reports and
// must never be renamed once published.
const (
	RuleNameMissing                = "NAME_MISSING"
	RuleNameKebabCase              = "NAME_KEBAB_CASE"
	RuleNameMatchesDirectory       = "NAME_MATCHES_DIRECTORY"
	RuleNameNotGerund              = "NAME_NOT_GERUND"
	RuleDirectoryKebabCase         = "DIRECTORY_KEBAB_CASE"
	RuleVersionMissing             = "VERSION_MISSING"
	RuleVersionSemver              = "VERSION_SEMVER"
	RuleDescriptionMissing         = "DESCRIPTION_MISSING"
	RuleDescriptionTooLong         = "DESCRIPTION_TOO_LONG"
	RuleDescriptionPerson          = "DESCRIPTION_PERSON"
	RuleLengthOverSoftLimit        = "LENGTH_OVER_SOFT_LIMIT"
	RuleLengthOverHardLimit        = "LENGTH_OVER_HARD_LIMIT"
	RuleMissingSectionWhenToUse    = "MISSING_SECTION_WHEN_TO_USE"
	RuleMissingSectionWhenNotToUse = "MISSING_SECTION_WHEN_NOT_TO_USE"
	RuleMissingSectionWorkflow     = "MISSING_SECTION_WORKFLOW"
	RuleMissingSectionExamples     = "MISSING_SECTION_EXAMPLES"
	RuleNoCodeExamples             = "NO_CODE_EXAMPLES"
	RuleFewCodeExamples            = "FEW_CODE_EXAMPLES"
	RuleUnterminatedCodeFence      = "UNTERMINATED_CODE_FENCE"
	RulePlaceholderValues          = "PLACEHOLDER_VALUES"
	RuleMissingTestScenarios       = "MISSING_TEST_SCENARIOS"
	RuleTestScenariosTrivial       = "TEST_SCENARIOS_TRIVIAL"
)

// Section headings the catalogue cares about individually. They must be
// present in the policy's section vocabulary for the loader to detect
// them in the first place.
const (
	sectionWhenToUse    = "When to Use"
	sectionWhenNotToUse = "When NOT to Use"
	sectionWorkflow     = "Workflow"
	sectionExamples     = "Examples"
)

var (
	kebabCasePattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)*$`)
	semverPattern    = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	personPattern    = regexp.MustCompile(`(?i)\b(I|me|my|we|you|your)\b`)
)

func none() []review.Finding { return nil }

func one(ruleID string, severity review.Severity, location, format string, args ...any) []review.Finding {
	return []review.Finding{{
		RuleID:   ruleID,
		Severity: severity,
		Message:  fmt.Sprintf(format, args...),
		Location: location,
	}}
}

func checkNameMissing(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if !a.FrontmatterValid {
		return none()
	}
	if strings.TrimSpace(a.Frontmatter["name"]) == "" {
		return one(RuleNameMissing, review.SeverityBlocker, "name",
			"frontmatter field 'name' is missing or empty")
	}
	return none()
}

func checkNameKebabCase(a *artifact.Artifact, _ config.Policy) []review.Finding {
	name := a.Frontmatter["name"]
	if name == "" || kebabCasePattern.MatchString(name) {
		return none()
	}
	return one(RuleNameKebabCase, review.SeverityBlocker, "name",
		"frontmatter field 'name' must be kebab-case, got %q", name)
}

func checkNameMatchesDirectory(a *artifact.Artifact, _ config.Policy) []review.Finding {
	name := a.Frontmatter["name"]
	if name == "" || name == a.DirectoryName {
		return none()
	}
	return one(RuleNameMatchesDirectory, review.SeverityBlocker, "name",
		"frontmatter field 'name' %q does not match directory name %q", name, a.DirectoryName)
}

// checkNameGerund enforces gerund-form naming ("auditing-helm" rather
// than "helm-audit") only when the policy disallows noun forms; the
// source rubric applied this inconsistently, so the default policy
// accepts both.
func checkNameGerund(a *artifact.Artifact, policy config.Policy) []review.Finding {
	if policy.AllowNounFormNames {
		return none()
	}
	name := a.Frontmatter["name"]
	if name == "" || !kebabCasePattern.MatchString(name) {
		return none()
	}
	firstWord := strings.SplitN(name, "-", 2)[0]
	if strings.HasSuffix(firstWord, "ing") {
		return none()
	}
	return one(RuleNameNotGerund, review.SeverityMinor, "name",
		"skill name %q should start with a gerund (e.g. 'writing-', 'auditing-')", name)
}

func checkDirectoryKebabCase(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if kebabCasePattern.MatchString(a.DirectoryName) {
		return none()
	}
	return one(RuleDirectoryKebabCase, review.SeverityBlocker, "",
		"directory name %q must be kebab-case", a.DirectoryName)
}

func checkVersionMissing(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if !a.FrontmatterValid {
		return none()
	}
	if _, ok := a.Frontmatter["version"]; ok {
		return none()
	}
	return one(RuleVersionMissing, review.SeverityMajor, "version",
		"frontmatter field 'version' is missing")
}

func checkVersionSemver(a *artifact.Artifact, _ config.Policy) []review.Finding {
	version, ok := a.Frontmatter["version"]
	if !ok || semverPattern.MatchString(version) {
		return none()
	}
	return one(RuleVersionSemver, review.SeverityMajor, "version",
		"frontmatter field 'version' must be semver (MAJOR.MINOR.PATCH), got %q", version)
}

func checkDescriptionMissing(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if !a.FrontmatterValid {
		return none()
	}
	if strings.TrimSpace(a.Frontmatter["description"]) != "" {
		return none()
	}
	return one(RuleDescriptionMissing, review.SeverityBlocker, "description",
		"frontmatter field 'description' is missing or empty")
}

func checkDescriptionTooLong(a *artifact.Artifact, policy config.Policy) []review.Finding {
	description := a.Frontmatter["description"]
	if len(description) <= policy.DescriptionMaxLength {
		return none()
	}
	return one(RuleDescriptionTooLong, review.SeverityCritical, "description",
		"frontmatter field 'description' is %d characters, maximum is %d",
		len(description), policy.DescriptionMaxLength)
}

func checkDescriptionPerson(a *artifact.Artifact, _ config.Policy) []review.Finding {
	description := a.Frontmatter["description"]
	match := personPattern.FindString(description)
	if match == "" {
		return none()
	}
	return one(RuleDescriptionPerson, review.SeverityMajor, "description",
		"frontmatter field 'description' uses first/second person (%q); describe the skill in third person", match)
}

func checkLengthOverSoftLimit(a *artifact.Artifact, policy config.Policy) []review.Finding {
	if !a.PrimaryPresent || a.BodyLineCount <= policy.SoftLineLimit || a.BodyLineCount > policy.HardLineLimit {
		return none()
	}
	return one(RuleLengthOverSoftLimit, review.SeverityMinor, "",
		"body is %d lines, over the soft limit of %d; consider moving detail into a reference file",
		a.BodyLineCount, policy.SoftLineLimit)
}

func checkLengthOverHardLimit(a *artifact.Artifact, policy config.Policy) []review.Finding {
	if !a.PrimaryPresent || a.BodyLineCount <= policy.HardLineLimit {
		return none()
	}
	return one(RuleLengthOverHardLimit, review.SeverityMajor, "",
		"body is %d lines, over the hard limit of %d", a.BodyLineCount, policy.HardLineLimit)
}

// missingSectionCheck builds the predicate for one required section.
// Each required section is its own rule so reports carry one stable ID
// per missing heading.
func missingSectionCheck(heading string, severity review.Severity) CheckFunc {
	ruleID := sectionRuleID(heading)
	return func(a *artifact.Artifact, _ config.Policy) []review.Finding {
		if !a.PrimaryPresent || a.BodySections[heading] {
			return none()
		}
		return one(ruleID, severity, "",
			"required section '## %s' is missing from %s", heading, artifact.SkillFileName)
	}
}

func sectionRuleID(heading string) string {
	switch heading {
	case sectionWhenToUse:
		return RuleMissingSectionWhenToUse
	case sectionWhenNotToUse:
		return RuleMissingSectionWhenNotToUse
	case sectionWorkflow:
		return RuleMissingSectionWorkflow
	case sectionExamples:
		return RuleMissingSectionExamples
	default:
		return "MISSING_SECTION"
	}
}

func checkNoCodeExamples(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if !a.PrimaryPresent || a.CodeBlockCount != 0 {
		return none()
	}
	return one(RuleNoCodeExamples, review.SeverityCritical, "",
		"%s contains no fenced code examples", artifact.SkillFileName)
}

func checkFewCodeExamples(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if a.CodeBlockCount != 1 {
		return none()
	}
	return one(RuleFewCodeExamples, review.SeverityMajor, "",
		"%s contains only one fenced code example; at least two are expected", artifact.SkillFileName)
}

func checkUnterminatedCodeFence(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if !a.UnterminatedFence {
		return none()
	}
	return one(RuleUnterminatedCodeFence, review.SeverityMinor, "",
		"%s has an odd number of ``` fences; a code block is unterminated", artifact.SkillFileName)
}

func checkPlaceholderValues(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if len(a.PlaceholderHits) == 0 {
		return none()
	}
	return one(RulePlaceholderValues, review.SeverityMinor, "",
		"body contains placeholder values: %s", strings.Join(a.PlaceholderHits, ", "))
}

func checkMissingTestScenarios(a *artifact.Artifact, _ config.Policy) []review.Finding {
	if a.SiblingFiles[artifact.TestScenariosFileName] {
		return none()
	}
	return one(RuleMissingTestScenarios, review.SeverityCritical, artifact.TestScenariosFileName,
		"%s is missing; every skill ships test scenarios", artifact.TestScenariosFileName)
}

func checkTestScenariosTrivial(a *artifact.Artifact, policy config.Policy) []review.Finding {
	if !a.SiblingFiles[artifact.TestScenariosFileName] {
		return none()
	}
	lines, ok := a.SiblingLineCounts[artifact.TestScenariosFileName]
	if !ok || lines >= policy.TestScenariosMinLines {
		return none()
	}
	return one(RuleTestScenariosTrivial, review.SeverityMajor, artifact.TestScenariosFileName,
		"%s is only %d lines, minimum is %d", artifact.TestScenariosFileName, lines, policy.TestScenariosMinLines)
}
