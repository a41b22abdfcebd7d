package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/deviceforge/formula/formula"
	"github.com/deviceforge/formula/internal/logger"
	"github.com/deviceforge/formula/multitenant"
	"github.com/deviceforge/formula/templates"
)

type Server struct {
	db      *sql.DB
	manager *multitenant.Manager
	router  *chi.Mux
	log     *slog.Logger
}

func NewServer(databaseURL string, log *slog.Logger) (*Server, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	manager := multitenant.NewManager(db)

	log.Info("loading tenants from database")
	if err := manager.LoadAllTenants(); err != nil {
		return nil, fmt.Errorf("failed to load tenants: %w", err)
	}

	tenants := manager.ListTenants()
	log.Info("tenants loaded", "count", len(tenants))

	s := &Server{
		db:      db,
		manager: manager,
		log:     log,
	}

	s.setupRoutes()

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)

	// Generation and validation
	r.Post("/api/v1/generate", s.handleGenerate)
	r.Post("/api/v1/preview", s.handlePreview)
	r.Post("/api/v1/validate", s.handleValidate)

	// Tenant and template management
	r.Route("/api/v1/tenants", func(r chi.Router) {
		r.Get("/", s.handleListTenants)
		r.Post("/", s.handleCreateTenant)

		r.Route("/{tenantId}", func(r chi.Router) {
			r.Post("/templates", s.handleCreateTemplate)
			r.Get("/templates", s.handleListTemplates)
			r.Get("/templates/{templateId}", s.handleGetTemplate)
			r.Put("/templates/{templateId}", s.handleUpdateTemplate)
			r.Delete("/templates/{templateId}", s.handleDeleteTemplate)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		TenantsLoaded: len(s.manager.ListTenants()),
	})
}

// Generate handler: computes final SKU and descriptions for a device before
// it is persisted by the caller.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.TenantID == "" || req.TemplateID == "" {
		respondError(w, http.StatusBadRequest, "tenantId and templateId are required", nil)
		return
	}

	gen, err := s.manager.GetGenerator(req.TenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	startTime := time.Now()
	fields, err := gen.Generate(req.TemplateID, req.Values)
	if err != nil {
		respondError(w, http.StatusNotFound, "generation failed", err)
		return
	}

	respondJSON(w, http.StatusOK, GenerateResponse{
		SKU:            fields.SKU,
		DescriptionEN:  fields.DescriptionEN,
		DescriptionAR:  fields.DescriptionAR,
		EvaluationTime: time.Since(startTime).String(),
	})
}

// Preview handler: the degradation-tolerant variant used by template editors
// on every keystroke. Never returns a generation error; missing values and
// unsaved templates render as placeholder text.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.TenantID == "" {
		respondError(w, http.StatusBadRequest, "tenantId is required", nil)
		return
	}

	gen, err := s.manager.GetGenerator(req.TenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	fields := gen.Preview(req.TemplateID, req.Values)

	respondJSON(w, http.StatusOK, GenerateResponse{
		SKU:           fields.SKU,
		DescriptionEN: fields.DescriptionEN,
		DescriptionAR: fields.DescriptionAR,
	})
}

// Validate handler: checks a formula against a saved template's properties,
// or against property definitions supplied inline by the editor. A failed
// validation is still a 200: the outcome is data for the editor UI, not a
// transport error.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var result formula.ValidationResult

	switch {
	case req.TemplateID != "":
		if req.TenantID == "" {
			respondError(w, http.StatusBadRequest, "tenantId is required with templateId", nil)
			return
		}
		gen, err := s.manager.GetGenerator(req.TenantID)
		if err != nil {
			respondError(w, http.StatusNotFound, "tenant not found", err)
			return
		}
		result, err = gen.ValidateFormula(req.TemplateID, req.Formula)
		if err != nil {
			respondError(w, http.StatusNotFound, "template not found", err)
			return
		}

	case req.Properties != nil:
		names := make([]string, len(req.Properties))
		for i, def := range req.Properties {
			names[i] = def.Name
		}
		result = formula.Validate(req.Formula, names)

	default:
		respondError(w, http.StatusBadRequest, "either templateId or properties is required", nil)
		return
	}

	respondJSON(w, http.StatusOK, ValidateResponse{
		IsValid: result.Valid,
		Error:   result.Err,
	})
}

// List tenants handler
func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query("SELECT id, name, created_at, updated_at FROM tenants ORDER BY created_at DESC")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tenants", err)
		return
	}
	defer rows.Close()

	tenants := []TenantResponse{}
	for rows.Next() {
		var t TenantResponse
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to scan tenant", err)
			return
		}
		tenants = append(tenants, t)
	}

	respondJSON(w, http.StatusOK, TenantsListResponse{Tenants: tenants})
}

// Create tenant handler
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	tenantID, err := s.manager.CreateTenant(req.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create tenant", err)
		return
	}

	s.log.Info("tenant created", "tenant", tenantID, "name", req.Name)

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":   tenantID,
		"name": req.Name,
	})
}

// Create template handler
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")

	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	if err := multitenant.ValidatePropertyDefinitions(req.Properties); err != nil {
		respondError(w, http.StatusBadRequest, "invalid properties", err)
		return
	}

	gen, err := s.manager.GetGenerator(tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	tmpl := &templates.Template{
		ID:                   uuid.New().String(),
		Name:                 req.Name,
		SKUFormula:           req.SKUFormula,
		DescriptionENFormula: req.DescriptionENFormula,
		DescriptionARFormula: req.DescriptionARFormula,
		Properties:           req.Properties,
		Active:               req.Active,
	}

	// AddTemplate validates all formulas against the property names
	if err := gen.AddTemplate(tmpl); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add template", err)
		return
	}

	s.log.Info("template created", "tenant", tenantID, "template", tmpl.ID, "name", tmpl.Name)

	respondJSON(w, http.StatusCreated, toTemplateResponse(tmpl))
}

// List templates handler
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")

	rows, err := s.db.Query(`
		SELECT id, name, sku_formula, description_en_formula,
			description_ar_formula, properties, active, created_at, updated_at
		FROM templates
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list templates", err)
		return
	}
	defer rows.Close()

	list := []TemplateResponse{}
	for rows.Next() {
		var t templates.Template
		var props []byte
		if err := rows.Scan(&t.ID, &t.Name, &t.SKUFormula,
			&t.DescriptionENFormula, &t.DescriptionARFormula, &props,
			&t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to scan template", err)
			return
		}
		if err := json.Unmarshal(props, &t.Properties); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to parse template properties", err)
			return
		}
		list = append(list, toTemplateResponse(&t))
	}

	respondJSON(w, http.StatusOK, TemplatesListResponse{Templates: list})
}

// Get template handler
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	templateID := chi.URLParam(r, "templateId")

	gen, err := s.manager.GetGenerator(tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	tmpl, err := gen.GetTemplate(templateID)
	if err != nil {
		respondError(w, http.StatusNotFound, "template not found", err)
		return
	}

	respondJSON(w, http.StatusOK, toTemplateResponse(tmpl))
}

// Update template handler
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	templateID := chi.URLParam(r, "templateId")

	var req UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := multitenant.ValidatePropertyDefinitions(req.Properties); err != nil {
		respondError(w, http.StatusBadRequest, "invalid properties", err)
		return
	}

	gen, err := s.manager.GetGenerator(tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	tmpl := &templates.Template{
		ID:                   templateID,
		Name:                 req.Name,
		SKUFormula:           req.SKUFormula,
		DescriptionENFormula: req.DescriptionENFormula,
		DescriptionARFormula: req.DescriptionARFormula,
		Properties:           req.Properties,
		Active:               req.Active,
	}

	if err := gen.UpdateTemplate(tmpl); err != nil {
		respondError(w, http.StatusBadRequest, "failed to update template", err)
		return
	}

	respondJSON(w, http.StatusOK, toTemplateResponse(tmpl))
}

// Delete template handler
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantId")
	templateID := chi.URLParam(r, "templateId")

	gen, err := s.manager.GetGenerator(tenantID)
	if err != nil {
		respondError(w, http.StatusNotFound, "tenant not found", err)
		return
	}

	if err := gen.DeleteTemplate(templateID); err != nil {
		respondError(w, http.StatusNotFound, "template not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	log := logger.Setup("formula-service")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Error("DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	server, err := NewServer(databaseURL, log)
	if err != nil {
		log.Error("failed to create server", "error", err)
		os.Exit(1)
	}
	defer server.db.Close()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		log.Error("logger shutdown error", "error", err)
	}

	log.Info("server stopped")
}
