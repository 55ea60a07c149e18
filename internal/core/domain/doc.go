// Package domain defines the core business entities for pdfcut.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Page: An opaque page of a source document, addressed by index
//   - Fragment: A contiguous run of pages destined for one output file
//   - SizeLimit: The byte ceiling a normal fragment must respect
//   - SplitRun: The record of one split invocation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
