package driving

import (
	"context"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
)

// SplitService splits documents into size-bounded fragments.
type SplitService interface {
	// Split partitions req.Input and writes its fragments.
	// The returned run is non-nil whenever processing started, even on error.
	Split(ctx context.Context, req domain.SplitRequest) (*domain.SplitRun, error)
}
