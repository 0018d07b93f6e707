package loader

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Directives holds per-script analysis overrides parsed from frontmatter.
// Unknown keys are rejected so typos surface instead of being ignored.
type Directives struct {
	// Dialect overrides the configured SQL dialect for this script.
	Dialect string `yaml:"dialect"`

	// Normalize overrides name normalization: preserve, upper or lower.
	Normalize string `yaml:"normalize"`

	// Name overrides the script name derived from the file stem.
	Name string `yaml:"name"`

	// Tags label the script in reports and stored runs.
	Tags []string `yaml:"tags"`
}

// frontmatter holds the result of directive extraction.
type frontmatter struct {
	Directives Directives
	SQL        string // content with the frontmatter block blanked in place
	HasYAML    bool
}

// frontmatterRe matches a /*--- ... ---*/ block at the head of a file.
var frontmatterRe = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\n\s*---\*/`)

// extractFrontmatter pulls the directive block off the head of content.
// The matched region is replaced by blank lines rather than removed, so
// every statement keeps its original line number.
func extractFrontmatter(content string) (*frontmatter, error) {
	result := &frontmatter{SQL: content}

	loc := frontmatterRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return result, nil
	}
	result.HasYAML = true

	directives, err := parseDirectives(content[loc[2]:loc[3]])
	if err != nil {
		return nil, err
	}
	result.Directives = *directives

	matched := content[loc[0]:loc[1]]
	result.SQL = strings.Repeat("\n", strings.Count(matched, "\n")) + content[loc[1]:]
	return result, nil
}

// knownDirectives are the accepted frontmatter keys.
var knownDirectives = map[string]bool{
	"dialect":   true,
	"normalize": true,
	"name":      true,
	"tags":      true,
}

// parseDirectives parses the YAML body with strict field validation.
func parseDirectives(yamlContent string) (*Directives, error) {
	// Decode into a map first to catch unknown keys.
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &DirectiveError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}
	for field := range rawMap {
		if !knownDirectives[field] {
			return nil, &UnknownDirectiveError{
				Field: field,
			}
		}
	}

	var directives Directives
	if err := yaml.Unmarshal([]byte(yamlContent), &directives); err != nil {
		return nil, &DirectiveError{
			Message: fmt.Sprintf("malformed directives: %v", err),
		}
	}

	if directives.Normalize != "" {
		validNormalize := map[string]bool{
			"preserve": true,
			"upper":    true,
			"lower":    true,
		}
		if !validNormalize[directives.Normalize] {
			return nil, &DirectiveError{
				Message: fmt.Sprintf("invalid normalize value: %q, must be one of: preserve, upper, lower", directives.Normalize),
			}
		}
	}

	return &directives, nil
}

// DirectiveError reports a malformed frontmatter block.
type DirectiveError struct {
	File    string
	Message string
}

func (e *DirectiveError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownDirectiveError reports a frontmatter key the loader does not accept.
type UnknownDirectiveError struct {
	File  string
	Field string
}

func (e *UnknownDirectiveError) Error() string {
	msg := fmt.Sprintf("unknown directive %q in frontmatter", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
