// Package completion implements the schema-aware line completion engine
// behind the interactive prompt. Everything in this package is a pure
// computation over its inputs: no I/O, no blocking calls, and no errors
// surfaced to the caller. Malformed input degrades to fewer candidates,
// never to a failure.
package completion

import "strings"

// Token is a single whitespace- or quote-delimited unit of a command line.
type Token struct {
	// Text is the token content with quotes and escapes resolved.
	Text string
	// Quoted reports whether any part of the token came from a quoted span.
	Quoted bool
}

// SplitQuoted splits a line into tokens, honoring double quotes and
// backslash escapes. A double quote toggles a quoted span in which
// whitespace is literal; \" and \\ produce a literal quote and backslash.
// An unterminated trailing quote consumes the rest of the line as the
// final token, so completion keeps working while the user is mid-quote.
func SplitQuoted(line string) []Token {
	var tokens []Token
	var text strings.Builder
	inQuote := false
	quoted := false
	started := false

	flush := func() {
		if !started {
			return
		}
		tokens = append(tokens, Token{Text: text.String(), Quoted: quoted})
		text.Reset()
		quoted = false
		started = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\'):
			text.WriteByte(line[i+1])
			started = true
			i++
		case c == '"':
			inQuote = !inQuote
			quoted = true
			started = true
		case (c == ' ' || c == '\t') && !inQuote:
			flush()
		default:
			text.WriteByte(c)
			started = true
		}
	}
	flush()

	return tokens
}

// firstUnquotedBrace returns the index of the first '{' that sits outside
// any quoted span, or -1. It shares the splitter's escape rules so the
// segmenter and the splitter always agree on where quoting ends.
func firstUnquotedBrace(line string) int {
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) && (line[i+1] == '"' || line[i+1] == '\\') {
			i++
			continue
		}
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if c == '{' && !inQuote {
			return i
		}
	}
	return -1
}
