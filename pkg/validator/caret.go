package validator

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Caret renders the line of formula that contains the byte offset, followed
// by a line with a '^' under the offending character. Display width is
// measured in terminal cells so wide characters keep the caret aligned.
func Caret(formula string, offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset > len(formula) {
		offset = len(formula)
	}

	lineStart := strings.LastIndexByte(formula[:offset], '\n') + 1
	lineEnd := strings.IndexByte(formula[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(formula)
	} else {
		lineEnd += offset
	}

	line := strings.ReplaceAll(formula[lineStart:lineEnd], "\t", " ")
	prefix := strings.ReplaceAll(formula[lineStart:offset], "\t", " ")
	return line + "\n" + strings.Repeat(" ", runewidth.StringWidth(prefix)) + "^"
}

// Caret renders the problem's position in formula, or "" when the problem
// has no offset.
func (p *Problem) Caret(formula string) string {
	if p == nil || p.Offset == nil {
		return ""
	}
	return Caret(formula, *p.Offset)
}
