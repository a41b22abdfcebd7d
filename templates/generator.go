package templates

import (
	"fmt"

	"github.com/deviceforge/formula/formula"
)

// PreviewPlaceholder is shown in place of generated text when a preview
// cannot be computed yet.
const PreviewPlaceholder = "Preview will appear as you fill properties..."

// Generator drives SKU and description generation for the templates in a
// store. Formulas are validated on every write, so a template that made it
// into the store always evaluates cleanly. Thread-safe: the formula engine
// is stateless and the store and cache guard their own state.
type Generator struct {
	store TemplateStore
	cache TemplatesCache
}

// NewGenerator creates a generator over the given template store.
func NewGenerator(store TemplateStore) *Generator {
	return &Generator{
		store: store,
		cache: NewInMemoryTemplatesCache(DefaultCacheConfig()),
	}
}

// validateFormulas checks every generation formula of a template against its
// property names, naming the offending field in the returned error.
func (g *Generator) validateFormulas(t *Template) error {
	known := t.PropertyNames()
	fields := []struct {
		name    string
		formula string
	}{
		{"sku formula", t.SKUFormula},
		{"description_en formula", t.DescriptionENFormula},
		{"description_ar formula", t.DescriptionARFormula},
	}

	for _, f := range fields {
		if result := formula.Validate(f.formula, known); !result.Valid {
			return fmt.Errorf("%s: %s", f.name, result.Err)
		}
	}
	return nil
}

// AddTemplate validates a template's formulas and adds it to the store.
func (g *Generator) AddTemplate(t *Template) error {
	_, err := g.store.Get(t.ID)
	if err == nil {
		return fmt.Errorf("template with ID %s already exists", t.ID)
	}

	if err := g.validateFormulas(t); err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}

	if err := g.store.Add(t); err != nil {
		return err
	}

	g.cache.Invalidate()
	return nil
}

// UpdateTemplate validates the new formulas and updates the template.
func (g *Generator) UpdateTemplate(t *Template) error {
	if err := g.validateFormulas(t); err != nil {
		return fmt.Errorf("template validation failed: %w", err)
	}

	if err := g.store.Update(t); err != nil {
		return err
	}

	g.cache.Invalidate()
	return nil
}

// DeleteTemplate removes a template from the store.
func (g *Generator) DeleteTemplate(id string) error {
	if err := g.store.Delete(id); err != nil {
		return err
	}

	g.cache.Invalidate()
	return nil
}

// GetTemplate retrieves a template by ID.
func (g *Generator) GetTemplate(id string) (*Template, error) {
	return g.store.Get(id)
}

// ActiveTemplates returns the active templates, served from cache when
// possible.
func (g *Generator) ActiveTemplates() ([]*Template, error) {
	if cached := g.cache.Get(); cached != nil {
		return cached, nil
	}

	list, err := g.store.ListActive()
	if err != nil {
		return nil, err
	}
	g.cache.Set(list)
	return list, nil
}

// Generate evaluates a template's formulas against the supplied property
// values and returns the final SKU and bilingual descriptions. Values may be
// partial: unresolved references render as empty strings rather than failing.
func (g *Generator) Generate(templateID string, values map[string]any) (*GeneratedFields, error) {
	t, err := g.store.Get(templateID)
	if err != nil {
		return nil, err
	}

	props := buildProperties(t, values)

	return &GeneratedFields{
		SKU:           formula.Evaluate(t.SKUFormula, props, formula.ContextSKU),
		DescriptionEN: formula.Evaluate(t.DescriptionENFormula, props, formula.ContextDescriptionEN),
		DescriptionAR: formula.Evaluate(t.DescriptionARFormula, props, formula.ContextDescriptionAR),
	}, nil
}

// Preview is the degradation-tolerant variant of Generate used by template
// editors on every keystroke. Any failure, including a template that does
// not exist yet or an unexpected panic, yields placeholder text instead of
// an error.
func (g *Generator) Preview(templateID string, values map[string]any) (fields *GeneratedFields) {
	defer func() {
		if r := recover(); r != nil {
			fields = &GeneratedFields{
				SKU:           PreviewPlaceholder,
				DescriptionEN: PreviewPlaceholder,
				DescriptionAR: PreviewPlaceholder,
			}
		}
	}()

	fields, err := g.Generate(templateID, values)
	if err != nil {
		return &GeneratedFields{
			SKU:           PreviewPlaceholder,
			DescriptionEN: PreviewPlaceholder,
			DescriptionAR: PreviewPlaceholder,
		}
	}
	return fields
}

// ValidateFormula checks a candidate formula against a template's property
// names. The template does not have to reference the formula; editors call
// this on keystroke before the formula is saved.
func (g *Generator) ValidateFormula(templateID, formulaText string) (formula.ValidationResult, error) {
	t, err := g.store.Get(templateID)
	if err != nil {
		return formula.ValidationResult{}, err
	}
	return formula.Validate(formulaText, t.PropertyNames()), nil
}

// buildProperties merges a template's property definitions with the supplied
// device values into the engine's property snapshot. Properties with no
// supplied value are included with a nil value so references to them degrade
// to empty strings.
func buildProperties(t *Template, values map[string]any) []formula.Property {
	props := make([]formula.Property, len(t.Properties))
	for i, def := range t.Properties {
		props[i] = formula.Property{
			Name:    def.Name,
			Value:   values[def.Name],
			Options: def.Options,
		}
	}
	return props
}
