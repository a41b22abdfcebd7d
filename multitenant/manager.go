// Package multitenant scopes template storage and generation per tenant.
package multitenant

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/deviceforge/formula/templates"
)

// Manager holds one Generator per tenant, each backed by a tenant-scoped
// Postgres template store.
type Manager struct {
	generators map[string]*templates.Generator
	db         *sql.DB
	mu         sync.RWMutex
}

// NewManager creates a new manager instance.
func NewManager(db *sql.DB) *Manager {
	return &Manager{
		generators: make(map[string]*templates.Generator),
		db:         db,
	}
}

// LoadAllTenants loads all tenants from the database and initializes their
// generators.
func (m *Manager) LoadAllTenants() error {
	rows, err := m.db.Query(`SELECT id FROM tenants`)
	if err != nil {
		return fmt.Errorf("failed to fetch tenants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return fmt.Errorf("failed to scan tenant row: %w", err)
		}
		m.register(tenantID)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating tenant rows: %w", err)
	}

	return nil
}

// CreateTenant inserts a new tenant record and initializes its generator.
func (m *Manager) CreateTenant(name string) (string, error) {
	var tenantID string
	err := m.db.QueryRow(`
		INSERT INTO tenants (name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id
	`, name).Scan(&tenantID)
	if err != nil {
		return "", fmt.Errorf("failed to create tenant: %w", err)
	}

	m.register(tenantID)
	return tenantID, nil
}

func (m *Manager) register(tenantID string) {
	gen := templates.NewGenerator(templates.NewPostgresTemplateStore(m.db, tenantID))

	m.mu.Lock()
	m.generators[tenantID] = gen
	m.mu.Unlock()
}

// GetGenerator retrieves the generator for a specific tenant.
func (m *Manager) GetGenerator(tenantID string) (*templates.Generator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gen, exists := m.generators[tenantID]
	if !exists {
		return nil, fmt.Errorf("tenant %s not found", tenantID)
	}

	return gen, nil
}

// ReloadTenant replaces a tenant's generator with a fresh one, discarding
// its template cache. Zero-downtime: readers holding the old generator keep
// working while new requests get the swapped instance.
func (m *Manager) ReloadTenant(tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.generators[tenantID]; !exists {
		return fmt.Errorf("tenant %s not found", tenantID)
	}

	m.generators[tenantID] = templates.NewGenerator(
		templates.NewPostgresTemplateStore(m.db, tenantID))
	return nil
}

// ListTenants returns all loaded tenant IDs.
func (m *Manager) ListTenants() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tenants := make([]string, 0, len(m.generators))
	for tenantID := range m.generators {
		tenants = append(tenants, tenantID)
	}
	return tenants
}

// DeleteTenant removes a tenant's generator from the manager.
// Note: this does not delete the tenant from the database.
func (m *Manager) DeleteTenant(tenantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.generators[tenantID]; !exists {
		return fmt.Errorf("tenant %s not found", tenantID)
	}

	delete(m.generators, tenantID)
	return nil
}
