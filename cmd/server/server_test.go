//go:build integration

package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/deviceforge/formula/formula"
	"github.com/deviceforge/formula/templates"
)

// setupTestServer starts a PostgreSQL testcontainer, runs migrations and
// returns an httptest server wrapping the API.
func setupTestServer(t *testing.T) (*httptest.Server, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("postgres://postgres:password@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	migrationSQL, err := os.ReadFile("../../migrations/000001_initial_schema.up.sql")
	if err != nil {
		t.Fatalf("Failed to read migration file: %v", err)
	}
	if _, err := db.Exec(string(migrationSQL)); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	db.Close()

	server, err := NewServer(connStr, slog.Default())
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	ts := httptest.NewServer(server)

	cleanup := func() {
		ts.Close()
		server.db.Close()
		postgres.Terminate(ctx)
	}

	return ts, cleanup
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func createTenant(t *testing.T, baseURL, name string) string {
	resp := postJSON(t, baseURL+"/api/v1/tenants", CreateTenantRequest{Name: name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create tenant returned %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &created)
	return created.ID
}

func bulbProperties() []templates.PropertyDefinition {
	return []templates.PropertyDefinition{
		{Name: "brand", Type: templates.TypeSelect, Options: []formula.Option{
			{Code: "ACM", LabelEN: "Acme", LabelAR: "أكمي"},
		}},
		{Name: "wattage", Type: templates.TypeNumber},
		{Name: "color", Type: templates.TypeSelect, Options: []formula.Option{
			{Code: "RED", LabelEN: "Red", LabelAR: "أحمر"},
		}},
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	resp, err := http.Get(ts.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health returned %d, want 200", resp.StatusCode)
	}

	var health HealthResponse
	decodeJSON(t, resp, &health)
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
}

func TestTemplateLifecycleAndGeneration(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tenantID := createTenant(t, ts.URL, "Acme Distribution")

	// Create a template
	req := CreateTemplateRequest{
		Name:                 "LED Bulb",
		SKUFormula:           "{brand.code}-{wattage}-{color.code}",
		DescriptionENFormula: "{brand} bulb, {wattage}W, {color}",
		DescriptionARFormula: "لمبة {brand} {wattage}W {color}",
		Properties:           bulbProperties(),
		Active:               true,
	}

	resp := postJSON(t, ts.URL+"/api/v1/tenants/"+tenantID+"/templates", req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create template returned %d", resp.StatusCode)
	}

	var tmpl TemplateResponse
	decodeJSON(t, resp, &tmpl)
	if tmpl.ID == "" {
		t.Fatal("created template has no ID")
	}

	// Generate device fields
	genResp := postJSON(t, ts.URL+"/api/v1/generate", GenerateRequest{
		TenantID:   tenantID,
		TemplateID: tmpl.ID,
		Values: map[string]any{
			"brand":   "Acme",
			"wattage": 60,
			"color":   "Red",
		},
	})
	if genResp.StatusCode != http.StatusOK {
		t.Fatalf("generate returned %d", genResp.StatusCode)
	}

	var generated GenerateResponse
	decodeJSON(t, genResp, &generated)
	if generated.SKU != "ACM-60-RED" {
		t.Errorf("SKU = %q, want %q", generated.SKU, "ACM-60-RED")
	}
	if generated.DescriptionEN != "Acme bulb, 60W, Red" {
		t.Errorf("DescriptionEN = %q", generated.DescriptionEN)
	}
	if generated.DescriptionAR != "لمبة أكمي 60W أحمر" {
		t.Errorf("DescriptionAR = %q", generated.DescriptionAR)
	}
}

func TestValidateEndpoint(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tenantID := createTenant(t, ts.URL, "Acme Distribution")

	// Validate against inline properties (unsaved editor state)
	resp := postJSON(t, ts.URL+"/api/v1/validate", ValidateRequest{
		TenantID:   tenantID,
		Formula:    "{brand.code}-{wattage}",
		Properties: bulbProperties(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("validate returned %d", resp.StatusCode)
	}

	var result ValidateResponse
	decodeJSON(t, resp, &result)
	if !result.IsValid {
		t.Errorf("expected valid, got error %q", result.Error)
	}

	// Unknown property: still a 200, the failure is editor data
	resp = postJSON(t, ts.URL+"/api/v1/validate", ValidateRequest{
		TenantID:   tenantID,
		Formula:    "{voltage}",
		Properties: bulbProperties(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("validate returned %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &result)
	if result.IsValid {
		t.Error("expected invalid result for unknown property")
	}
}

func TestPreviewDegradesGracefully(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tenantID := createTenant(t, ts.URL, "Acme Distribution")

	// Preview for a template that was never saved: placeholder, not an error
	resp := postJSON(t, ts.URL+"/api/v1/preview", GenerateRequest{
		TenantID:   tenantID,
		TemplateID: "00000000-0000-0000-0000-000000000000",
		Values:     map[string]any{},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("preview returned %d, want 200", resp.StatusCode)
	}

	var preview GenerateResponse
	decodeJSON(t, resp, &preview)
	if preview.SKU != templates.PreviewPlaceholder {
		t.Errorf("SKU = %q, want placeholder", preview.SKU)
	}
}

func TestCreateTemplateRejectsBadFormula(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	tenantID := createTenant(t, ts.URL, "Acme Distribution")

	req := CreateTemplateRequest{
		Name:       "Broken",
		SKUFormula: "{undefined_property}",
		Properties: bulbProperties(),
		Active:     true,
	}

	resp := postJSON(t, ts.URL+"/api/v1/tenants/"+tenantID+"/templates", req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("create with bad formula returned %d, want 400", resp.StatusCode)
	}
}

func TestGenerateUnknownTenant(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	resp := postJSON(t, ts.URL+"/api/v1/generate", GenerateRequest{
		TenantID:   "00000000-0000-0000-0000-000000000000",
		TemplateID: "00000000-0000-0000-0000-000000000000",
		Values:     map[string]any{},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("generate for unknown tenant returned %d, want 404", resp.StatusCode)
	}
}
