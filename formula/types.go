// Package formula implements the device-template formula language: brace
// tokens like {wattage} or {brand.code} substituted against a set of named,
// typed property values. Evaluation and validation are pure functions over
// the inputs, safe for concurrent use.
package formula

// Context selects which generated field a formula is evaluated for. It
// determines how a basic (suffix-less) reference to an enumerated property
// renders.
type Context string

const (
	ContextSKU           Context = "sku"
	ContextDescriptionEN Context = "description_en"
	ContextDescriptionAR Context = "description_ar"
)

// Suffix is the optional reference suffix of a token: {name.code},
// {name.label_en}, {name.label_ar}, or none for a basic reference.
type Suffix string

const (
	SuffixNone    Suffix = ""
	SuffixCode    Suffix = "code"
	SuffixLabelEN Suffix = "label_en"
	SuffixLabelAR Suffix = "label_ar"
)

// Option is one selectable value of an enumerated property, carrying a
// machine code and bilingual labels.
type Option struct {
	Code    string `json:"code"`
	LabelEN string `json:"label_en"`
	LabelAR string `json:"label_ar"`
}

// Property is a named attribute with its current value and, for enumerated
// types, the ordered list of selectable options. Value holds a string,
// number, or bool for scalar properties, and a []string (or []any) for
// multi-select properties. Properties are supplied fresh on every call; the
// engine keeps no state between calls.
type Property struct {
	Name    string
	Value   any
	Options []Option
}

// Token is one {property} or {property.suffix} occurrence inside a formula.
// Start and End delimit the raw match span (End exclusive). Tokens are
// transient parser output, never stored.
type Token struct {
	Start    int
	End      int
	Property string
	Suffix   Suffix
}

// ValidationResult is the outcome of validating a formula. Validation
// failures are values, not errors: the editing UI renders Err inline.
type ValidationResult struct {
	Valid bool   `json:"isValid"`
	Err   string `json:"error,omitempty"`
}
