package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		hasYAML  bool
		body     string
		bodyLine int
		data     map[string]any
	}{
		{name: "none", input: "# Title\n", body: "# Title\n", bodyLine: 1},
		{
			name:     "simple",
			input:    "---\ntitle: x\n---\nbody\n",
			hasYAML:  true,
			body:     "body\n",
			bodyLine: 4,
			data:     map[string]any{"title": "x"},
		},
		{name: "empty block", input: "---\n---\nbody", hasYAML: true, body: "body", bodyLine: 3},
		{name: "crlf", input: "---\r\na: 1\r\n---\r\nbody", hasYAML: true, body: "body", bodyLine: 4, data: map[string]any{"a": 1}},
		{name: "no trailing newline", input: "---\na: 1\n---", hasYAML: true, body: "", bodyLine: 3, data: map[string]any{"a": 1}},
		{name: "dashes inside a line do not close", input: "---\na: x---y\n---\nb", hasYAML: true, body: "b", bodyLine: 4, data: map[string]any{"a": "x---y"}},
		{name: "not at start", input: "text\n---\na: 1\n---\n", body: "text\n---\na: 1\n---\n", bodyLine: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractFrontMatter(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.hasYAML, got.HasYAML)
			assert.Equal(t, tt.body, got.Body)
			assert.Equal(t, tt.bodyLine, got.BodyLine)
			assert.Equal(t, tt.data, got.Data)
		})
	}
}

func TestExtractFrontMatter_InvalidYAML(t *testing.T) {
	_, err := ExtractFrontMatter("---\n: : :\n  - [\n---\n")
	var fmErr *FrontMatterError
	assert.ErrorAs(t, err, &fmErr)
}
