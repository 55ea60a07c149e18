package domain

// Page is an opaque page of a source document.
// Only the document that produced it knows how to serialize it.
type Page struct {
	// Index is the 0-based position of the page in its document.
	Index int
}

// Fragment is a contiguous run of source pages written as one output unit.
type Fragment struct {
	// Part is the 1-based output counter. Oversized fragments consume a part number too.
	Part int

	// Start is the index of the first page (inclusive).
	Start int

	// End is the index after the last page (exclusive).
	End int

	// Oversized marks a single page whose serialized size alone exceeds the limit.
	Oversized bool

	// Size is the measured serialized size in bytes.
	Size int64

	// Path is where the sink stored the fragment. Empty for dry runs.
	Path string

	// Digest is the hex BLAKE3 digest of the written bytes.
	Digest string
}

// Pages returns the number of pages in the fragment.
func (f Fragment) Pages() int {
	return f.End - f.Start
}

// FirstPage returns the 1-based number of the first page, as shown to users.
func (f Fragment) FirstPage() int {
	return f.Start + 1
}

// LastPage returns the 1-based number of the last page, as shown to users.
func (f Fragment) LastPage() int {
	return f.End
}
