// Package parser turns ruleset source files into documents: YAML front
// matter, a structural AST of the markdown body, and handlebars-style tags.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatterResult holds the result of front matter extraction.
type FrontMatterResult struct {
	Data     map[string]any
	Body     string // content after the front matter block
	BodyLine int    // 1-based line where Body starts
	HasYAML  bool
}

// frontMatterPattern matches a leading --- ... --- block.
var frontMatterPattern = regexp.MustCompile(`(?s)\A---[ \t]*\r?\n(?:(.*?)\r?\n)?---[ \t]*(?:\r?\n|\z)`)

// ExtractFrontMatter splits content into YAML front matter and body.
// Content without a leading --- block is returned as body unchanged.
func ExtractFrontMatter(content string) (*FrontMatterResult, error) {
	result := &FrontMatterResult{
		Body:     content,
		BodyLine: 1,
	}

	loc := frontMatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return result, nil
	}

	result.HasYAML = true
	var yamlContent string
	if loc[2] >= 0 {
		yamlContent = content[loc[2]:loc[3]]
	}
	result.Body = content[loc[1]:]
	result.BodyLine = strings.Count(content[:loc[1]], "\n") + 1

	if strings.TrimSpace(yamlContent) == "" {
		return result, nil
	}

	var data map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &data); err != nil {
		return nil, &FrontMatterError{
			Line:    2,
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}
	result.Data = data
	return result, nil
}

// FrontMatterError represents a front matter parsing error.
type FrontMatterError struct {
	File    string
	Line    int
	Message string
}

func (e *FrontMatterError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}
