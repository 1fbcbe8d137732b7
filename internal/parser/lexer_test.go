package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_PlainText(t *testing.T) {
	tokens := NewLexer("just text", "test.md", 1).Tokenize()

	require.Len(t, tokens, 2, "expected 2 tokens") // TEXT + EOF
	assert.Equal(t, TokenText, tokens[0].Type)
	assert.Equal(t, "just text", tokens[0].Value)
	assert.Equal(t, TokenEOF, tokens[1].Type)
}

func TestLexer_Tags(t *testing.T) {
	input := "a {{ name }} {{> footer x=1}} {{#each items}}{{/each}} {{! note }} {{{ raw }}}"
	tokens := NewLexer(input, "test.md", 1).Tokenize()

	expected := []struct {
		typ TokenType
		val string
	}{
		{TokenText, "a "},
		{TokenVariable, "name"},
		{TokenText, " "},
		{TokenPartial, "footer x=1"},
		{TokenText, " "},
		{TokenOpen, "each items"},
		{TokenClose, "each"},
		{TokenText, " "},
		{TokenComment, "note"},
		{TokenText, " "},
		{TokenVariable, "raw"},
		{TokenEOF, ""},
	}

	require.Len(t, tokens, len(expected), "wrong number of tokens")
	for i, exp := range expected {
		assert.Equal(t, exp.typ, tokens[i].Type, "token[%d] type", i)
		assert.Equal(t, exp.val, tokens[i].Value, "token[%d] value", i)
	}
}

func TestLexer_UnclosedTagIsText(t *testing.T) {
	tokens := NewLexer("before {{ name", "test.md", 1).Tokenize()

	require.Len(t, tokens, 2)
	assert.Equal(t, TokenText, tokens[0].Type)
	assert.Equal(t, "before {{ name", tokens[0].Value)
}

func TestLexer_Positions(t *testing.T) {
	tokens := NewLexer("line\n  {{ x }}", "test.md", 5).Tokenize()

	require.Len(t, tokens, 3)
	assert.Equal(t, 6, tokens[1].Pos.Line)
	assert.Equal(t, 3, tokens[1].Pos.Column)
	assert.Equal(t, "test.md", tokens[1].Pos.File)
}

func TestTokenType_String(t *testing.T) {
	assert.Equal(t, "PARTIAL", TokenPartial.String())
	assert.Equal(t, "UNKNOWN", TokenType(99).String())
}
