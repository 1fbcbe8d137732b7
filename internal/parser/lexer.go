package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/rulesets-dev/rulesets/pkg/core"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for body token types.
const (
	TokenText     TokenType = iota // Literal markdown
	TokenVariable                  // {{ name }}
	TokenPartial                   // {{> name }}
	TokenOpen                      // {{#name args}}
	TokenClose                     // {{/name}}
	TokenComment                   // {{! text }}
	TokenEOF                       // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenVariable:
		return "VARIABLE"
	case TokenPartial:
		return "PARTIAL"
	case TokenOpen:
		return "OPEN"
	case TokenClose:
		return "CLOSE"
	case TokenComment:
		return "COMMENT"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token. For tags, Value is the tag content
// without delimiters or sigil, trimmed.
type Token struct {
	Type  TokenType
	Value string
	Pos   core.Position
}

// Lexer tokenizes a ruleset body.
//
// Unlike a template lexer it never fails: a tag with no closing delimiter is
// emitted as literal text so that malformed input still yields an AST.
type Lexer struct {
	input    string
	file     string
	pos      int // current position in input
	line     int // current line number (1-based)
	col      int // current column number (1-based)
	lastLine int // line at start of current token
	lastCol  int // column at start of current token
}

// NewLexer creates a new lexer. line is the 1-based line input starts on.
func NewLexer(input, file string, line int) *Lexer {
	if line < 1 {
		line = 1
	}
	return &Lexer{
		input: input,
		file:  file,
		line:  line,
		col:   1,
	}
}

// Tokenize converts the input into a slice of tokens ending with TokenEOF.
func (l *Lexer) Tokenize() []Token {
	var tokens []Token
	for {
		tok := l.nextToken()
		if n := len(tokens); n > 0 && tok.Type == TokenText && tokens[n-1].Type == TokenText {
			tokens[n-1].Value += tok.Value
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens
		}
	}
}

func (l *Lexer) nextToken() Token {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.position()}
	}
	if l.matchString("{{") {
		if tok, ok := l.scanTag(); ok {
			return tok
		}
	}
	return l.scanText()
}

// scanText scans literal text up to the next {{ (exclusive) or EOF. It always
// consumes at least one rune so that an unclosed {{ is treated as text.
func (l *Lexer) scanText() Token {
	l.markStart()
	start := l.pos
	l.advance()
	for l.pos < len(l.input) && !l.matchString("{{") {
		l.advance()
	}
	return Token{Type: TokenText, Value: l.input[start:l.pos], Pos: l.startPosition()}
}

// scanTag scans a {{ ... }} tag. It returns false, leaving the lexer where it
// was, when the tag is never closed.
func (l *Lexer) scanTag() (Token, bool) {
	closeAt := strings.Index(l.input[l.pos+2:], "}}")
	if closeAt < 0 {
		return Token{}, false
	}

	l.markStart()
	end := l.pos + 2 + closeAt
	content := l.input[l.pos+2 : end]

	// {{{ raw }}} is a variable with the extra braces stripped
	if strings.HasPrefix(content, "{") && strings.HasPrefix(l.input[end:], "}}}") {
		content = content[1:]
		end++
	}

	for l.pos < end+2 {
		l.advance()
	}

	typ, value := classifyTag(strings.TrimSpace(content))
	return Token{Type: typ, Value: value, Pos: l.startPosition()}, true
}

func classifyTag(content string) (TokenType, string) {
	if content == "" {
		return TokenVariable, ""
	}
	switch content[0] {
	case '>':
		return TokenPartial, strings.TrimSpace(content[1:])
	case '#':
		return TokenOpen, strings.TrimSpace(content[1:])
	case '/':
		return TokenClose, strings.TrimSpace(content[1:])
	case '!':
		return TokenComment, strings.TrimSpace(strings.Trim(content[1:], "-"))
	default:
		return TokenVariable, content
	}
}

// Helper methods

// advance moves to the next rune, updating position tracking.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// matchString checks if the input at current position matches s.
func (l *Lexer) matchString(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

// markStart records the start position for the current token.
func (l *Lexer) markStart() {
	l.lastLine = l.line
	l.lastCol = l.col
}

// position returns the current position.
func (l *Lexer) position() core.Position {
	return core.Position{File: l.file, Line: l.line, Column: l.col}
}

// startPosition returns the position where the current token started.
func (l *Lexer) startPosition() core.Position {
	return core.Position{File: l.file, Line: l.lastLine, Column: l.lastCol}
}
