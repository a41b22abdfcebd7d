package formula

import (
	"fmt"
	"strconv"
	"strings"
)

// multiValueSeparator joins the resolved parts of a multi-select property.
const multiValueSeparator = ", "

// Resolve computes the substitution string for a single token reference.
// A nil property (the formula names a property the caller did not supply)
// resolves to the empty string: during live editing a formula routinely
// references properties that are not filled in yet, and that must not fail.
func Resolve(p *Property, suffix Suffix, ctx Context) string {
	if p == nil || p.Value == nil {
		return ""
	}

	switch v := p.Value.(type) {
	case []string:
		return resolveMulti(p, v, suffix, ctx)
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, stringify(e))
		}
		return resolveMulti(p, parts, suffix, ctx)
	default:
		return resolveOne(p, stringify(v), suffix, ctx)
	}
}

// resolveMulti resolves each selected value independently and joins the
// non-empty results with a comma-space separator.
func resolveMulti(p *Property, values []string, suffix Suffix, ctx Context) string {
	parts := make([]string, 0, len(values))
	for _, raw := range values {
		if s := resolveOne(p, raw, suffix, ctx); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, multiValueSeparator)
}

func resolveOne(p *Property, raw string, suffix Suffix, ctx Context) string {
	opt := matchOption(p.Options, raw)

	// An explicit suffix always wins over the context default. A missing
	// option is an evaluation gap, not an error: the token degrades to "".
	switch suffix {
	case SuffixCode:
		if opt != nil {
			return opt.Code
		}
		return ""
	case SuffixLabelEN:
		if opt != nil {
			return opt.LabelEN
		}
		return ""
	case SuffixLabelAR:
		if opt != nil {
			return opt.LabelAR
		}
		return ""
	}

	// Basic reference: rendering depends on the evaluation context.
	switch ctx {
	case ContextDescriptionEN:
		if opt != nil && opt.LabelEN != "" {
			return opt.LabelEN
		}
	case ContextDescriptionAR:
		if opt != nil {
			if opt.LabelAR != "" {
				return opt.LabelAR
			}
			if opt.LabelEN != "" {
				return opt.LabelEN
			}
		}
	default: // ContextSKU
		if opt != nil && opt.Code != "" {
			return opt.Code
		}
	}
	return raw
}

// matchOption finds the option whose code or label equals the stored value.
// Enumerated properties may store either the code or a display label,
// depending on which editor wrote the value.
func matchOption(options []Option, value string) *Option {
	for i := range options {
		o := &options[i]
		if o.Code == value || o.LabelEN == value || o.LabelAR == value {
			return o
		}
	}
	return nil
}

// stringify renders a scalar property value in its default string form.
// Numbers get no locale formatting; booleans are forwarded verbatim as
// "true"/"false" (Yes/No translation is a caller concern).
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", t)
	}
}
