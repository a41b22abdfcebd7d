package main

import (
	"time"

	"github.com/deviceforge/formula/templates"
)

// API request and response models

// CreateTenantRequest represents the request body for creating a tenant
type CreateTenantRequest struct {
	Name string `json:"name" example:"Acme Distribution"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID        string    `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name      string    `json:"name" example:"Acme Distribution"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// TenantsListResponse represents the response for listing tenants
type TenantsListResponse struct {
	Tenants []TenantResponse `json:"tenants"`
}

// CreateTemplateRequest represents the request body for creating a template
type CreateTemplateRequest struct {
	Name                 string                         `json:"name" example:"LED Bulb"`
	SKUFormula           string                         `json:"skuFormula" example:"{brand.code}-{wattage}"`
	DescriptionENFormula string                         `json:"descriptionEnFormula" example:"{brand} bulb, {wattage}W"`
	DescriptionARFormula string                         `json:"descriptionArFormula" example:"لمبة {brand} {wattage}W"`
	Properties           []templates.PropertyDefinition `json:"properties"`
	Active               bool                           `json:"active" example:"true"`
}

// UpdateTemplateRequest represents the request body for updating a template
type UpdateTemplateRequest struct {
	Name                 string                         `json:"name"`
	SKUFormula           string                         `json:"skuFormula"`
	DescriptionENFormula string                         `json:"descriptionEnFormula"`
	DescriptionARFormula string                         `json:"descriptionArFormula"`
	Properties           []templates.PropertyDefinition `json:"properties"`
	Active               bool                           `json:"active"`
}

// TemplateResponse represents a template in API responses
type TemplateResponse struct {
	ID                   string                         `json:"id"`
	Name                 string                         `json:"name"`
	SKUFormula           string                         `json:"skuFormula"`
	DescriptionENFormula string                         `json:"descriptionEnFormula"`
	DescriptionARFormula string                         `json:"descriptionArFormula"`
	Properties           []templates.PropertyDefinition `json:"properties"`
	Active               bool                           `json:"active"`
	CreatedAt            time.Time                      `json:"created_at"`
	UpdatedAt            time.Time                      `json:"updated_at"`
}

// TemplatesListResponse represents the response for listing templates
type TemplatesListResponse struct {
	Templates []TemplateResponse `json:"templates"`
}

// GenerateRequest represents the request body for generating device fields
type GenerateRequest struct {
	TenantID   string         `json:"tenantId" example:"123e4567-e89b-12d3-a456-426614174000"`
	TemplateID string         `json:"templateId" example:"9f4e2c1a-0b7d-4a31-94ce-6c1f6a1f2b3c"`
	Values     map[string]any `json:"values"`
}

// GenerateResponse represents the generated device fields
type GenerateResponse struct {
	SKU            string `json:"sku" example:"ACM-60-RED"`
	DescriptionEN  string `json:"descriptionEn" example:"Acme bulb, 60W"`
	DescriptionAR  string `json:"descriptionAr"`
	EvaluationTime string `json:"evaluationTime,omitempty" example:"112µs"`
}

// ValidateRequest represents the request body for validating a formula.
// Either templateId (validate against a saved template's properties) or
// properties (validate against unsaved editor state) must be supplied.
type ValidateRequest struct {
	TenantID   string                         `json:"tenantId"`
	TemplateID string                         `json:"templateId,omitempty"`
	Formula    string                         `json:"formula" example:"{brand.code}-{wattage}"`
	Properties []templates.PropertyDefinition `json:"properties,omitempty"`
}

// ValidateResponse represents the validation outcome
type ValidateResponse struct {
	IsValid bool   `json:"isValid" example:"true"`
	Error   string `json:"error,omitempty" example:"unknown property \"wattage\""`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"template validation failed"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status        string `json:"status" example:"healthy"`
	TenantsLoaded int    `json:"tenantsLoaded" example:"4"`
}

func toTemplateResponse(t *templates.Template) TemplateResponse {
	return TemplateResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		SKUFormula:           t.SKUFormula,
		DescriptionENFormula: t.DescriptionENFormula,
		DescriptionARFormula: t.DescriptionARFormula,
		Properties:           t.Properties,
		Active:               t.Active,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}
