package store

import (
	"context"

	"github.com/jwrhw7tueydwtt7575g/DockaForge/internal/core/deployment"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for deployment history.
// Credentials are never part of a stored record.
type Store interface {
	// Deployment operations
	CreateDeployment(ctx context.Context, result deployment.Result) error
	GetDeployment(ctx context.Context, id string) (deployment.Result, error)
	UpdateDeployment(ctx context.Context, result deployment.Result) error
	ListDeployments(ctx context.Context, opts ListOptions) ([]deployment.Result, error)
	CountDeployments(ctx context.Context, status deployment.Status) (int, error)

	// Pipeline hooks
	RecordStarted(ctx context.Context, result deployment.Result) error
	RecordFinished(ctx context.Context, result deployment.Result) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination and filtering options.
type ListOptions struct {
	Limit  int
	Offset int
	Status deployment.Status // Empty matches every status
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
