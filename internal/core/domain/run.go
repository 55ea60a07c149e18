package domain

import "time"

// RunStatus is the lifecycle state of a split run.
type RunStatus string

const (
	// RunRunning means the partitioner is still walking the document.
	RunRunning RunStatus = "running"
	// RunCompleted means every fragment was emitted.
	RunCompleted RunStatus = "completed"
	// RunFailed means the run aborted. Fragments already emitted remain valid.
	RunFailed RunStatus = "failed"
)

// IsValid returns true if the status is a known value.
func (s RunStatus) IsValid() bool {
	switch s {
	case RunRunning, RunCompleted, RunFailed:
		return true
	}
	return false
}

// String returns the string representation.
func (s RunStatus) String() string {
	return string(s)
}

// SplitRun records one split invocation and the fragments it produced.
type SplitRun struct {
	// ID is the unique identifier for the run.
	ID string

	// Input is the path of the split document.
	Input string

	// Limit is the size ceiling used for the run.
	Limit SizeLimit

	// PageCount is the number of pages in the input.
	PageCount int

	// DryRun is true when fragments were measured but not written.
	DryRun bool

	// Status is the lifecycle state.
	Status RunStatus

	// Error holds the failure message for failed runs.
	Error string

	// Fragments lists emitted fragments in page order.
	Fragments []Fragment

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed or failed. Zero while running.
	FinishedAt time.Time
}

// OversizedCount returns how many fragments exceed the limit on their own.
func (r *SplitRun) OversizedCount() int {
	n := 0
	for i := range r.Fragments {
		if r.Fragments[i].Oversized {
			n++
		}
	}
	return n
}

// TotalSize returns the sum of fragment sizes.
func (r *SplitRun) TotalSize() int64 {
	var total int64
	for i := range r.Fragments {
		total += r.Fragments[i].Size
	}
	return total
}
