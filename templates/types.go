// Package templates manages device-template records and drives SKU and
// description generation through the formula engine.
package templates

import (
	"time"

	"github.com/deviceforge/formula/formula"
)

// PropertyType classifies a template property. Enumerated types carry an
// options list; multi-valued types store a list of selected values.
type PropertyType string

const (
	TypeText               PropertyType = "text"
	TypeNumber             PropertyType = "number"
	TypeBoolean            PropertyType = "boolean"
	TypeSelect             PropertyType = "select"
	TypeMultiSelect        PropertyType = "multi_select"
	TypeDynamicMultiSelect PropertyType = "dynamic_multi_select"
	TypeDate               PropertyType = "date"
	TypeColor              PropertyType = "color"
	TypeImage              PropertyType = "image"
)

// Enumerated reports whether properties of this type carry an options list.
func (pt PropertyType) Enumerated() bool {
	switch pt {
	case TypeSelect, TypeMultiSelect, TypeDynamicMultiSelect:
		return true
	}
	return false
}

// MultiValued reports whether properties of this type store a list of
// selected values rather than a single scalar.
func (pt PropertyType) MultiValued() bool {
	switch pt {
	case TypeMultiSelect, TypeDynamicMultiSelect:
		return true
	}
	return false
}

// PropertyDefinition is one typed property of a template.
type PropertyDefinition struct {
	Name    string           `json:"name"`
	Type    PropertyType     `json:"type"`
	Options []formula.Option `json:"options,omitempty"`
}

// Template is a device-category definition: the typed properties a device of
// this category carries and the formulas that generate its SKU and bilingual
// descriptions.
type Template struct {
	ID                   string
	Name                 string
	SKUFormula           string
	DescriptionENFormula string
	DescriptionARFormula string
	Properties           []PropertyDefinition
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PropertyNames returns the names of all defined properties, in definition
// order. This is the known-property set formulas are validated against.
func (t *Template) PropertyNames() []string {
	names := make([]string, len(t.Properties))
	for i, def := range t.Properties {
		names[i] = def.Name
	}
	return names
}

// GeneratedFields is the output of evaluating a template's formulas against
// a device's property values.
type GeneratedFields struct {
	SKU           string `json:"sku"`
	DescriptionEN string `json:"descriptionEn"`
	DescriptionAR string `json:"descriptionAr"`
}
