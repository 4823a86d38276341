package parser

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/goformula/pkg/types"
)

const eof = -1

// Lexer converts a formula into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized lazily by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Tokenize scans the whole input and returns its tokens, always terminated
// by a TokenEOF token. It stops at the first unrecognized character.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		t := l.Next()
		if t.Type == TokenError {
			return nil, l.Error()
		}
		tokens = append(tokens, t)
		if t.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls. After an error, Next returns TokenError once and TokenEOF
// afterwards; the error is available from Error.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// Check for two-character symbols first (e.g., ==, <=, &&)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	// Number literals
	if isDigit(ch) || (ch == '.' && isDigit(l.peek())) {
		l.current = l.start
		return l.scanNumber()
	}

	if isNameStart(ch) {
		return l.scanName()
	}

	return l.unrecognized(ch)
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]*(\.[0-9]+)? with at least one digit. A sign is never part of
// the literal; it is a unary operator.
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	// Decimal part
	if l.peek() == '.' {
		dot := l.current
		l.nextRune()
		if !l.acceptAll(isDigit) {
			return l.errorAt(types.ErrUnrecognizedChar, "malformed number: expected digits after decimal point", dot, ".")
		}
		if l.peek() == '.' {
			return l.errorAt(types.ErrUnrecognizedChar, "malformed number: more than one decimal point", l.current, ".")
		}
	}

	t := l.newToken(TokenNumber)
	f, err := strconv.ParseFloat(t.Value, 64)
	if err != nil {
		return l.errorAt(types.ErrNumberOutOfRange, fmt.Sprintf("number %s is out of range", t.Value), t.Position, t.Value)
	}
	t.Number = f
	return t
}

// scanName reads an identifier from the current position.
// The first rune has already been consumed.
func (l *Lexer) scanName() Token {
	l.acceptAll(isNamePart)
	return l.newToken(TokenName)
}

// unrecognized reports ch, the rune at the start of the current token, as a
// lexical error.
func (l *Lexer) unrecognized(ch rune) Token {
	pos := l.start
	_, w := utf8.DecodeRuneInString(l.input[pos:])
	text := l.input[pos : pos+w]
	msg := fmt.Sprintf("unrecognized character %q", text)
	switch ch {
	case '=':
		msg += " (use '==' to compare)"
	case '&':
		msg += " (use '&&' for logical and)"
	case '|':
		msg += " (use '||' for logical or)"
	}
	return l.errorAt(types.ErrUnrecognizedChar, msg, pos, text)
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
		End:      l.current,
	}
}

func (l *Lexer) errorAt(code types.ErrorCode, message string, pos int, text string) Token {
	l.err = types.NewError(code, message, pos).WithToken(text)
	t := Token{
		Type:     TokenError,
		Value:    text,
		Position: pos,
		End:      pos + len(text),
	}
	// Nothing after an error is scanned.
	l.start = l.length
	l.current = l.length
	l.width = 0
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
		End:      l.current,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	l.acceptAll(isWhitespace)
	l.ignore()
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
