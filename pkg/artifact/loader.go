package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"

	"github.com/jingkaihe/skillcheck/pkg/config"
	"github.com/jingkaihe/skillcheck/pkg/types/review"
)

// Rule identifiers for findings produced during loading.
const (
	RulePrimaryFileMissing = "PRIMARY_FILE_MISSING"
	RuleFrontmatterInvalid = "FRONTMATTER_INVALID"
)

// Load reads a skill directory into an Artifact. It returns an error
// only when the directory itself cannot be listed; a missing or broken
// SKILL.md degrades to a partial artifact carrying BLOCKER findings.
func Load(dir string, policy config.Policy) (*Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read skill directory %s", dir)
	}

	a := &Artifact{
		DirectoryName:     filepath.Base(dir),
		Dir:               dir,
		Frontmatter:       map[string]string{},
		BodySections:      map[string]bool{},
		SiblingFiles:      map[string]bool{},
		SiblingLineCounts: map[string]int{},
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == SkillFileName {
			continue
		}
		a.SiblingFiles[entry.Name()] = true
	}

	if a.SiblingFiles[TestScenariosFileName] {
		path := filepath.Join(dir, TestScenariosFileName)
		if data, err := os.ReadFile(path); err == nil {
			a.SiblingLineCounts[TestScenariosFileName] = countLines(string(data))
		}
	}

	content, err := os.ReadFile(filepath.Join(dir, SkillFileName))
	if err != nil {
		a.LoadFindings = append(a.LoadFindings, review.Finding{
			RuleID:   RulePrimaryFileMissing,
			Severity: review.SeverityBlocker,
			Message:  fmt.Sprintf("primary document %s is missing or unreadable in %s", SkillFileName, dir),
			Location: SkillFileName,
		})
		return a, nil
	}

	a.PrimaryPresent = true
	a.parseFrontmatter(content)
	a.parseBody(stripFrontmatter(string(content)), policy)

	return a, nil
}

// parseFrontmatter extracts the YAML header via goldmark-meta, recording
// a FRONTMATTER_INVALID finding when the header is absent, unterminated,
// or fails to parse. Body statistics are recovered regardless.
func (a *Artifact) parseFrontmatter(content []byte) {
	invalid := func(reason string) {
		a.LoadFindings = append(a.LoadFindings, review.Finding{
			RuleID:   RuleFrontmatterInvalid,
			Severity: review.SeverityBlocker,
			Message:  fmt.Sprintf("frontmatter in %s is invalid: %s", SkillFileName, reason),
			Location: "frontmatter",
		})
	}

	text := string(content)
	if !strings.HasPrefix(text, "---") {
		invalid("document does not begin with a '---' delimiter")
		return
	}
	if !hasClosingDelimiter(text) {
		invalid("opening '---' delimiter has no matching closing delimiter")
		return
	}

	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		invalid(err.Error())
		return
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		invalid("header is not a YAML mapping")
		return
	}

	for key, value := range metaData {
		switch v := value.(type) {
		case string:
			a.Frontmatter[key] = v
		case nil:
			a.Frontmatter[key] = ""
		default:
			a.Frontmatter[key] = fmt.Sprintf("%v", v)
		}
	}
	a.FrontmatterValid = true
}

// hasClosingDelimiter reports whether a document that opens with "---"
// also closes its frontmatter block.
func hasClosingDelimiter(text string) bool {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return true
		}
	}
	return false
}

// stripFrontmatter removes the YAML header and returns the body, the
// same way the document would render. Malformed headers are left in
// place so their lines still count toward body statistics.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")
		}
	}

	return content
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
