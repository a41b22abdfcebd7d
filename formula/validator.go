package formula

import "fmt"

// Validate checks a formula against the set of known property names,
// reporting the first problem found. An empty formula is valid. Validation
// never returns an error or panics; the result is a value the editor can
// display inline.
func Validate(formula string, knownProperties []string) ValidationResult {
	if formula == "" {
		return ValidationResult{Valid: true}
	}

	if pos := unterminatedBrace(formula); pos >= 0 {
		return ValidationResult{
			Valid: false,
			Err:   fmt.Sprintf("unbalanced braces: '{' at position %d is never closed", pos),
		}
	}

	known := make(map[string]bool, len(knownProperties))
	for _, name := range knownProperties {
		known[name] = true
	}

	for _, tok := range Parse(formula) {
		if !known[tok.Property] {
			return ValidationResult{
				Valid: false,
				Err:   fmt.Sprintf("unknown property %q", tok.Property),
			}
		}
	}

	return ValidationResult{Valid: true}
}

// unterminatedBrace returns the index of the first '{' that is never closed
// before the next '{' or the end of the string, or -1 if braces balance.
// A stray '}' with no pending '{' is literal text, not an imbalance.
func unterminatedBrace(s string) int {
	open := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			if open >= 0 {
				return open
			}
			open = i
		case '}':
			open = -1
		}
	}
	return open
}
