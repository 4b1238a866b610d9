// Package api provides HTTP handlers for the DockaForge API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
	authmw "github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/api/middleware"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/api/openapi"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/pipeline"
	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/shell/store"
)

// DefaultMaxUploadBytes caps the multipart request size.
const DefaultMaxUploadBytes = 512 << 20

// =============================================================================
// Dependencies
// =============================================================================

// Deployer runs one deployment to completion.
type Deployer interface {
	Deploy(ctx context.Context, req pipeline.Request) deployment.Result
}

// History reads past deployments.
type History interface {
	GetDeployment(ctx context.Context, id string) (deployment.Result, error)
	ListDeployments(ctx context.Context, opts store.ListOptions) ([]deployment.Result, error)
	CountDeployments(ctx context.Context, status deployment.Status) (int, error)
}

// Pinger reports whether the image daemon is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds handler configuration.
type Config struct {
	UploadDir      string // Temporary archive location; "" uses the OS default
	MaxUploadBytes int64  // 0 uses DefaultMaxUploadBytes
	APIToken       string // Optional bearer token for /api routes
}

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	deployer Deployer
	history  History
	docker   Pinger
	cfg      Config
	logger   *slog.Logger
	openapi  *openapi.Generator
}

// NewHandler creates a new API handler. docker may be nil, in which case
// readiness only reports the database.
func NewHandler(d Deployer, h History, docker Pinger, cfg Config, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}

	gen := openapi.NewGenerator(
		openapi.WithTitle("DockaForge API"),
		openapi.WithVersion("1.0.0"),
		openapi.WithDescription("Containerize uploaded projects and publish image and source"),
		openapi.WithServer("/"),
	)
	gen.RegisterResource(openapi.ResourceInfo{
		Name:         "deployments",
		Model:        DeploymentResponse{},
		ListFilters:  []string{"status"},
		SupportsList: true,
		SupportsGet:  true,
		Upload: &openapi.UploadForm{
			FileField: FieldArchive,
			Fields:    []string{FieldRegistryUsername, FieldGitHubUsername},
			Secret:    []string{FieldRegistryPassword, FieldGitHubToken},
		},
	})

	return &Handler{
		deployer: d,
		history:  h,
		docker:   docker,
		cfg:      cfg,
		logger:   l,
		openapi:  gen,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/openapi.json", h.openapi.Handler())

	// API v1 routes
	auth := authmw.NewAuthMiddleware(authmw.AuthConfig{Token: h.cfg.APIToken, Logger: h.logger})
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Handler)
		r.Use(h.jsonContentType)

		r.Route("/deployments", func(r chi.Router) {
			r.Post("/", h.handleCreateDeployment)
			r.Get("/", h.handleListDeployments)
			r.Get("/{id}", h.handleGetDeployment)
		})
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	checks := make(map[string]string)

	// Check database (implicit - if we got here, store was created)
	checks["database"] = "ok"

	if h.docker != nil {
		if err := h.docker.Ping(r.Context()); err != nil {
			h.logger.Warn("docker not reachable", "error", err)
			checks["docker"] = "failed"
			h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
				Status: "not_ready",
				Checks: checks,
			})
			return
		}
		checks["docker"] = "ok"
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Deployment Handlers
// =============================================================================

func (h *Handler) handleCreateDeployment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "upload too large", "upload_too_large")
			return
		}
		h.writeError(w, http.StatusBadRequest, "expected multipart form data", "invalid_request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	req := pipeline.Request{
		RegistryUsername: strings.TrimSpace(r.FormValue(FieldRegistryUsername)),
		RegistryPassword: r.FormValue(FieldRegistryPassword),
		HostingUsername:  strings.TrimSpace(r.FormValue(FieldGitHubUsername)),
		HostingToken:     r.FormValue(FieldGitHubToken),
	}
	if missing := missingFields(req); len(missing) > 0 {
		h.writeError(w, http.StatusBadRequest, "missing fields: "+strings.Join(missing, ", "), "validation_error")
		return
	}

	archivePath, err := h.saveUpload(r)
	if err != nil {
		h.logger.Warn("archive upload rejected", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error(), "invalid_archive")
		return
	}
	defer os.Remove(archivePath)
	req.ArchivePath = archivePath

	result := h.deployer.Deploy(r.Context(), req)

	status := http.StatusCreated
	if result.Status == deployment.StatusFatal {
		status = http.StatusUnprocessableEntity
	}
	h.writeJSON(w, status, toDeploymentResponse(result))
}

func (h *Handler) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.history.GetDeployment(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			h.writeError(w, http.StatusNotFound, "deployment not found", "deployment_not_found")
			return
		}
		h.logger.Error("failed to get deployment", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get deployment", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, toDeploymentResponse(result))
}

func (h *Handler) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	opts := store.DefaultListOptions()

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}
	if status := r.URL.Query().Get("status"); status != "" {
		opts.Status = deployment.Status(status)
	}
	opts = opts.Normalize()

	results, err := h.history.ListDeployments(r.Context(), opts)
	if err != nil {
		h.logger.Error("failed to list deployments", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list deployments", "internal_error")
		return
	}
	total, err := h.history.CountDeployments(r.Context(), opts.Status)
	if err != nil {
		h.logger.Error("failed to count deployments", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list deployments", "internal_error")
		return
	}

	resp := ListDeploymentsResponse{
		Deployments: make([]DeploymentResponse, 0, len(results)),
		Total:       total,
		Limit:       opts.Limit,
		Offset:      opts.Offset,
	}
	for _, res := range results {
		resp.Deployments = append(resp.Deployments, toDeploymentResponse(res))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Helpers
// =============================================================================

// saveUpload copies the archive part to a temporary file.
func (h *Handler) saveUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile(FieldArchive)
	if err != nil {
		return "", fmt.Errorf("missing %q file part", FieldArchive)
	}
	defer file.Close()

	if h.cfg.UploadDir != "" {
		if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
			return "", fmt.Errorf("prepare upload directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(h.cfg.UploadDir, "upload-*.zip")
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload %s: %w", header.Filename, err)
	}
	return tmp.Name(), nil
}

func missingFields(req pipeline.Request) []string {
	var missing []string
	if req.RegistryUsername == "" {
		missing = append(missing, FieldRegistryUsername)
	}
	if req.RegistryPassword == "" {
		missing = append(missing, FieldRegistryPassword)
	}
	if req.HostingUsername == "" {
		missing = append(missing, FieldGitHubUsername)
	}
	if req.HostingToken == "" {
		missing = append(missing, FieldGitHubToken)
	}
	return missing
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return errors.Is(storeErr.Unwrap(), store.ErrNotFound)
	}
	return false
}
