package domain

import "time"

// ScratchKind selects where the builder keeps measurement bytes.
type ScratchKind string

const (
	// ScratchMemory keeps measurement bytes in an in-memory buffer.
	ScratchMemory ScratchKind = "memory"
	// ScratchDisk keeps measurement bytes in a temporary file.
	ScratchDisk ScratchKind = "disk"
)

// IsValid returns true if the kind is a known value.
func (k ScratchKind) IsValid() bool {
	return k == ScratchMemory || k == ScratchDisk
}

// String returns the string representation.
func (k ScratchKind) String() string {
	return string(k)
}

// Output naming markers.
const (
	// PartMarker separates the input base name from the part number.
	PartMarker = "_PART_"
	// OversizedMarker is appended to the part number of oversized fragments.
	OversizedMarker = "_OVERSIZED"
)

// SplitOptions are the resolved settings for a split.
type SplitOptions struct {
	// Limit is the fragment size ceiling.
	Limit SizeLimit

	// OutputDir receives the fragments. Empty means the input's directory.
	OutputDir string

	// Scratch selects the measurement buffer.
	Scratch ScratchKind

	// ScratchDir is where disk scratch files are created. Empty means os.TempDir.
	ScratchDir string

	// History records runs in the run store when true.
	History bool

	// WatchSettle is how long a watched file must be quiet before it is split.
	WatchSettle time.Duration
}

// DefaultSplitOptions returns the built-in defaults.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{
		Limit:       DefaultSizeLimit,
		Scratch:     ScratchMemory,
		History:     true,
		WatchSettle: 2 * time.Second,
	}
}

// ProgressFunc observes each fragment as it is emitted.
type ProgressFunc func(Fragment)

// SplitRequest asks for one document to be split.
type SplitRequest struct {
	// Input is the path of the document.
	Input string

	// Options are the resolved settings.
	Options SplitOptions

	// DryRun measures and reports fragments without writing them.
	DryRun bool

	// Progress is called once per emitted fragment. May be nil.
	Progress ProgressFunc
}
