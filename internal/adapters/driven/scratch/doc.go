// Package scratch provides the measurement buffers used by fragment builders.
//
// Buffers:
//   - Memory: bytes held in process memory
//   - Disk: bytes held in a temporary file, removed on Close
package scratch
