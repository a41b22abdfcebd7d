package templates

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// PostgresTemplateStore implements TemplateStore backed by PostgreSQL,
// scoped to a single tenant.
type PostgresTemplateStore struct {
	db       *sql.DB
	tenantID string
}

// NewPostgresTemplateStore creates a PostgreSQL-backed TemplateStore for a
// specific tenant.
func NewPostgresTemplateStore(db *sql.DB, tenantID string) *PostgresTemplateStore {
	return &PostgresTemplateStore{
		db:       db,
		tenantID: tenantID,
	}
}

// Add inserts a new template into the database.
func (s *PostgresTemplateStore) Add(t *Template) error {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM templates WHERE id = $1 AND tenant_id = $2)
	`, t.ID, s.tenantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check template existence: %w", err)
	}
	if exists {
		return fmt.Errorf("template with ID %s already exists", t.ID)
	}

	props, err := json.Marshal(t.Properties)
	if err != nil {
		return fmt.Errorf("failed to marshal properties: %w", err)
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err = s.db.Exec(`
		INSERT INTO templates (id, tenant_id, name, sku_formula,
			description_en_formula, description_ar_formula, properties,
			active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, t.ID, s.tenantID, t.Name, t.SKUFormula,
		t.DescriptionENFormula, t.DescriptionARFormula, props,
		t.Active, t.CreatedAt, t.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}

	return nil
}

// Get retrieves a template by ID.
func (s *PostgresTemplateStore) Get(id string) (*Template, error) {
	var t Template
	var props []byte
	err := s.db.QueryRow(`
		SELECT id, name, sku_formula, description_en_formula,
			description_ar_formula, properties, active, created_at, updated_at
		FROM templates
		WHERE id = $1 AND tenant_id = $2
	`, id, s.tenantID).Scan(
		&t.ID,
		&t.Name,
		&t.SKUFormula,
		&t.DescriptionENFormula,
		&t.DescriptionARFormula,
		&props,
		&t.Active,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("template %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	if err := json.Unmarshal(props, &t.Properties); err != nil {
		return nil, fmt.Errorf("invalid properties for template %s: %w", id, err)
	}

	return &t, nil
}

// ListActive returns all active templates for the tenant.
func (s *PostgresTemplateStore) ListActive() ([]*Template, error) {
	rows, err := s.db.Query(`
		SELECT id, name, sku_formula, description_en_formula,
			description_ar_formula, properties, active, created_at, updated_at
		FROM templates
		WHERE tenant_id = $1 AND active = true
		ORDER BY created_at ASC
	`, s.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active templates: %w", err)
	}
	defer rows.Close()

	var list []*Template
	for rows.Next() {
		var t Template
		var props []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.SKUFormula,
			&t.DescriptionENFormula, &t.DescriptionARFormula, &props,
			&t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		if err := json.Unmarshal(props, &t.Properties); err != nil {
			return nil, fmt.Errorf("invalid properties for template %s: %w", t.ID, err)
		}
		list = append(list, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return list, nil
}

// Update modifies an existing template.
func (s *PostgresTemplateStore) Update(t *Template) error {
	existing, err := s.Get(t.ID)
	if err != nil {
		return err
	}

	props, err := json.Marshal(t.Properties)
	if err != nil {
		return fmt.Errorf("failed to marshal properties: %w", err)
	}

	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now()

	result, err := s.db.Exec(`
		UPDATE templates
		SET name = $1, sku_formula = $2, description_en_formula = $3,
			description_ar_formula = $4, properties = $5, active = $6,
			updated_at = $7
		WHERE id = $8 AND tenant_id = $9
	`, t.Name, t.SKUFormula, t.DescriptionENFormula, t.DescriptionARFormula,
		props, t.Active, t.UpdatedAt, t.ID, s.tenantID)

	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("template %s not found", t.ID)
	}

	return nil
}

// Delete removes a template from the database.
func (s *PostgresTemplateStore) Delete(id string) error {
	result, err := s.db.Exec(`
		DELETE FROM templates
		WHERE id = $1 AND tenant_id = $2
	`, id, s.tenantID)

	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("template %s not found", id)
	}

	return nil
}
