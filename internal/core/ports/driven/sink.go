package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
)

// FragmentBody streams a fragment's serialized bytes into w.
type FragmentBody func(w io.Writer) (int64, error)

// FragmentSink persists finalized fragments.
type FragmentSink interface {
	// Write stores the fragment under name. Implementations must not leave
	// a partially written file visible under name when body fails.
	// The returned fragment carries the final Path and Digest.
	Write(ctx context.Context, name string, frag domain.Fragment, body FragmentBody) (domain.Fragment, error)
}
