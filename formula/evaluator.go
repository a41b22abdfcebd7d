package formula

import "strings"

// Evaluate renders a formula against the supplied properties for the given
// context. Tokens are replaced left to right; all other text, including
// braces that did not form a valid token, passes through unchanged. The
// result is a pure function of its inputs: no state is kept, so repeated and
// concurrent calls are safe and yield identical output.
func Evaluate(formula string, props []Property, ctx Context) string {
	tokens := Parse(formula)
	if len(tokens) == 0 {
		return formula
	}

	index := make(map[string]*Property, len(props))
	for i := range props {
		index[props[i].Name] = &props[i]
	}

	var b strings.Builder
	b.Grow(len(formula))
	last := 0
	for _, tok := range tokens {
		b.WriteString(formula[last:tok.Start])
		b.WriteString(Resolve(index[tok.Property], tok.Suffix, ctx))
		last = tok.End
	}
	b.WriteString(formula[last:])
	return b.String()
}
