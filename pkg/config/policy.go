// Package config loads the validation policy: the tunable knobs of the
// rule catalogue such as the recognized section vocabulary, the
// placeholder lexicon, and body length limits. Policy values come from
// viper (config file plus SKILLCHECK_* environment variables) and can be
// overridden per-repository by a .skillcheck.yaml file at the skills root.
package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OverrideFileName is the per-repository policy override file looked up
// at the skills root.
const OverrideFileName = ".skillcheck.yaml"

// Policy holds every tunable the rule catalogue consumes. The zero
// value is not usable; construct via DefaultPolicy or LoadPolicy.
type Policy struct {
	// SectionVocabulary is the exact set of "## " headings the loader
	// recognizes. Matching is case-sensitive.
	SectionVocabulary []string `mapstructure:"section_vocabulary" yaml:"section_vocabulary"`

	// PlaceholderLexicon lists literal substrings that mark unfinished
	// example content (your_file, foo.txt, ...).
	PlaceholderLexicon []string `mapstructure:"placeholder_lexicon" yaml:"placeholder_lexicon"`

	// SoftLineLimit and HardLineLimit bound the primary document body.
	// Crossing the soft limit is MINOR, crossing the hard limit MAJOR.
	SoftLineLimit int `mapstructure:"soft_line_limit" yaml:"soft_line_limit"`
	HardLineLimit int `mapstructure:"hard_line_limit" yaml:"hard_line_limit"`

	// DescriptionMaxLength caps the frontmatter description in characters.
	DescriptionMaxLength int `mapstructure:"description_max_length" yaml:"description_max_length"`

	// TestScenariosMinLines is the non-triviality floor for
	// test-scenarios.md when it exists.
	TestScenariosMinLines int `mapstructure:"test_scenarios_min_lines" yaml:"test_scenarios_min_lines"`

	// AllowNounFormNames accepts noun-form skill names (e.g. "helm-audit")
	// in addition to gerund form ("auditing-helm"). The rubric this
	// catalogue descends from enforced gerund naming inconsistently, so
	// the choice is a flag rather than a fixed rule.
	AllowNounFormNames bool `mapstructure:"allow_noun_form_names" yaml:"allow_noun_form_names"`
}

// DefaultPolicy returns the built-in policy matching the review rubric.
func DefaultPolicy() Policy {
	return Policy{
		SectionVocabulary: []string{
			"When to Use",
			"When NOT to Use",
			"Workflow",
			"Examples",
			"Requirements",
			"Troubleshooting",
		},
		PlaceholderLexicon: []string{
			"your_file",
			"foo.txt",
			"example.txt",
			"path/to/file",
			"TODO",
			"FIXME",
			"xxx",
		},
		SoftLineLimit:         500,
		HardLineLimit:         600,
		DescriptionMaxLength:  1024,
		TestScenariosMinLines: 20,
		AllowNounFormNames:    true,
	}
}

// LoadPolicy builds the effective policy: defaults, then viper-provided
// settings under the "policy" key, then the .skillcheck.yaml override in
// root (if root is non-empty and the file exists).
func LoadPolicy(root string) (Policy, error) {
	policy := DefaultPolicy()

	if sub := viper.Sub("policy"); sub != nil {
		if err := sub.Unmarshal(&policy); err != nil {
			return policy, errors.Wrap(err, "failed to unmarshal policy configuration")
		}
	}

	if root == "" {
		return policy, nil
	}

	overridePath := filepath.Join(root, OverrideFileName)
	data, err := os.ReadFile(overridePath)
	if os.IsNotExist(err) {
		return policy, nil
	}
	if err != nil {
		return policy, errors.Wrapf(err, "failed to read %s", overridePath)
	}

	if err := applyOverride(&policy, data); err != nil {
		return policy, errors.Wrapf(err, "invalid policy override %s", overridePath)
	}

	return policy, nil
}

// applyOverride merges a YAML override on top of the current policy.
// Only keys present in the override change; a present key replaces the
// field wholesale (ZeroFields keeps mapstructure from appending list
// overrides onto the defaults).
func applyOverride(policy *Policy, data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "failed to parse override YAML")
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           policy,
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create override decoder")
	}

	return errors.Wrap(decoder.Decode(raw), "failed to apply override")
}
