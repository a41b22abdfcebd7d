package multitenant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/deviceforge/formula/templates"
)

const (
	maxProperties         = 200
	maxOptionsPerProperty = 500
	maxIdentifierLength   = 100
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidatePropertyDefinitions validates a template's property definitions
// before they are accepted from the API. Returns an error describing the
// first problem found, nil if the definitions are valid.
func ValidatePropertyDefinitions(defs []templates.PropertyDefinition) error {
	if len(defs) > maxProperties {
		return fmt.Errorf("template defines %d properties, maximum allowed is %d", len(defs), maxProperties)
	}

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if err := validateIdentifier(def.Name); err != nil {
			return fmt.Errorf("invalid property name %q: %w", def.Name, err)
		}

		if seen[def.Name] {
			return fmt.Errorf("duplicate property name %q", def.Name)
		}
		seen[def.Name] = true

		if !isValidPropertyType(def.Type) {
			return fmt.Errorf("property %q has invalid type %q (must be one of: text, number, boolean, select, multi_select, dynamic_multi_select, date, color, image)", def.Name, def.Type)
		}

		if err := validateOptions(def); err != nil {
			return err
		}
	}

	return nil
}

// validateOptions enforces the options rules per property type: enumerated
// types carry at least one option with unique, non-empty codes; other types
// carry none.
func validateOptions(def templates.PropertyDefinition) error {
	if !def.Type.Enumerated() {
		if len(def.Options) > 0 {
			return fmt.Errorf("property %q of type %q cannot have options", def.Name, def.Type)
		}
		return nil
	}

	if len(def.Options) == 0 {
		return fmt.Errorf("property %q of type %q must have at least one option", def.Name, def.Type)
	}
	if len(def.Options) > maxOptionsPerProperty {
		return fmt.Errorf("property %q has %d options, maximum allowed is %d", def.Name, len(def.Options), maxOptionsPerProperty)
	}

	codes := make(map[string]bool, len(def.Options))
	for _, opt := range def.Options {
		if strings.TrimSpace(opt.Code) == "" {
			return fmt.Errorf("property %q has an option with empty code", def.Name)
		}
		if codes[opt.Code] {
			return fmt.Errorf("property %q has duplicate option code %q", def.Name, opt.Code)
		}
		codes[opt.Code] = true
	}

	return nil
}

// validateIdentifier validates a property name.
func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxIdentifierLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(name), maxIdentifierLength)
	}

	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$ (start with letter or underscore, followed by letters, digits, or underscores)")
	}

	if isReservedName(name) {
		return fmt.Errorf("cannot use reserved word %q as identifier", name)
	}

	return nil
}

// isValidPropertyType checks a type name. Type names are case-sensitive.
func isValidPropertyType(t templates.PropertyType) bool {
	switch t {
	case templates.TypeText, templates.TypeNumber, templates.TypeBoolean,
		templates.TypeSelect, templates.TypeMultiSelect,
		templates.TypeDynamicMultiSelect, templates.TypeDate,
		templates.TypeColor, templates.TypeImage:
		return true
	}
	return false
}

// isReservedName rejects the formula suffix keywords as property names so a
// formula like {code} cannot be mistaken for a dangling suffix in the editor.
func isReservedName(name string) bool {
	switch name {
	case "code", "label_en", "label_ar":
		return true
	}
	return false
}
