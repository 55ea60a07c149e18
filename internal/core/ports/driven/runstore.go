package driven

import (
	"context"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
)

// RunStore persists split runs and their fragments.
type RunStore interface {
	// Save stores or replaces a run, including its fragments.
	Save(ctx context.Context, run *domain.SplitRun) error

	// Get retrieves a run by ID.
	// Returns domain.ErrNotFound if the run does not exist.
	Get(ctx context.Context, id string) (*domain.SplitRun, error)

	// List returns runs newest first. A limit <= 0 means no limit.
	List(ctx context.Context, limit int) ([]domain.SplitRun, error)

	// Delete removes a run and its fragments.
	Delete(ctx context.Context, id string) error
}
