package formula

import "strings"

// Parse scans a formula string left to right and returns the tokens it
// contains, in order of appearance. Malformed braces (an unmatched '{' or
// '}', an empty name, an unrecognized suffix) are not errors; the scanner
// simply leaves them as literal text and moves on. Each call starts a fresh
// scan, so callers may re-parse the same string concurrently.
func Parse(formula string) []Token {
	var tokens []Token
	i := 0
	for i < len(formula) {
		open := strings.IndexByte(formula[i:], '{')
		if open < 0 {
			break
		}
		start := i + open
		tok, ok := scanToken(formula, start)
		if !ok {
			i = start + 1
			continue
		}
		tokens = append(tokens, tok)
		i = tok.End
	}
	return tokens
}

// scanToken attempts to read a single token beginning at the '{' at start.
func scanToken(formula string, start int) (Token, bool) {
	j := start + 1
	nameStart := j
	for j < len(formula) && isNameChar(formula[j]) {
		j++
	}
	if j == nameStart {
		return Token{}, false
	}
	name := formula[nameStart:j]

	if j < len(formula) && formula[j] == '}' {
		return Token{Start: start, End: j + 1, Property: name, Suffix: SuffixNone}, true
	}

	if j >= len(formula) || formula[j] != '.' {
		return Token{}, false
	}
	j++
	suffixStart := j
	for j < len(formula) && isNameChar(formula[j]) {
		j++
	}
	if j >= len(formula) || formula[j] != '}' {
		return Token{}, false
	}
	suffix, ok := parseSuffix(formula[suffixStart:j])
	if !ok {
		return Token{}, false
	}
	return Token{Start: start, End: j + 1, Property: name, Suffix: suffix}, true
}

func parseSuffix(s string) (Suffix, bool) {
	switch Suffix(s) {
	case SuffixCode, SuffixLabelEN, SuffixLabelAR:
		return Suffix(s), true
	}
	return SuffixNone, false
}

func isNameChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
