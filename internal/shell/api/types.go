package api

import (
	"time"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
)

// =============================================================================
// Request Fields
// =============================================================================

// Multipart field names accepted by POST /api/v1/deployments.
const (
	FieldArchive          = "archive"
	FieldRegistryUsername = "registry_username"
	FieldRegistryPassword = "registry_password"
	FieldGitHubUsername   = "github_username"
	FieldGitHubToken      = "github_token"
)

// =============================================================================
// Response Types
// =============================================================================

// DeploymentResponse is the response for deployment operations.
type DeploymentResponse struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	Stage         string     `json:"stage"`
	Kind          string     `json:"kind,omitempty"`
	Language      string     `json:"language,omitempty"`
	WorkspaceDir  string     `json:"workspace_dir,omitempty"`
	ImageRef      string     `json:"image_ref,omitempty"`
	ImageDigest   string     `json:"image_digest,omitempty"`
	RepositoryURL string     `json:"repository_url,omitempty"`
	Error         string     `json:"error,omitempty"`
	Report        string     `json:"report"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// ListDeploymentsResponse is the response for listing deployments.
type ListDeploymentsResponse struct {
	Deployments []DeploymentResponse `json:"deployments"`
	Total       int                  `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func toDeploymentResponse(r deployment.Result) DeploymentResponse {
	resp := DeploymentResponse{
		ID:            r.ID,
		Status:        string(r.Status),
		Stage:         string(r.Stage),
		Kind:          string(r.Kind),
		Language:      r.Language,
		WorkspaceDir:  r.WorkspaceDir,
		ImageRef:      r.ImageRef,
		ImageDigest:   r.ImageDigest,
		RepositoryURL: r.RepositoryURL,
		Error:         r.Error,
		Report:        r.Report(),
		StartedAt:     r.StartedAt,
	}
	if !r.FinishedAt.IsZero() {
		finished := r.FinishedAt
		resp.FinishedAt = &finished
	}
	return resp
}
