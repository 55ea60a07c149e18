package domain

import "fmt"

// SizeLimit is the maximum byte size of a normal fragment.
type SizeLimit int64

// DefaultSizeLimit is 4.8 MiB rounded down to whole bytes.
// Comparing sizes against the floor gives the same decisions as the fractional value.
const DefaultSizeLimit SizeLimit = 5033164

// Validate reports ErrInvalidLimit unless the limit is positive.
func (l SizeLimit) Validate() error {
	if l <= 0 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidLimit, int64(l))
	}
	return nil
}

// Exceeded reports whether size is strictly larger than the limit.
func (l SizeLimit) Exceeded(size int64) bool {
	return size > int64(l)
}
