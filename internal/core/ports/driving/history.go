package driving

import (
	"context"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
)

// HistoryService exposes previously recorded split runs.
type HistoryService interface {
	// List returns the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]domain.SplitRun, error)

	// Get retrieves a run by ID.
	Get(ctx context.Context, id string) (*domain.SplitRun, error)

	// Delete removes a run from history.
	Delete(ctx context.Context, id string) error
}
