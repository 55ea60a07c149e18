// Package pdf implements driven.DocumentLoader and driven.Document on top
// of pdfcpu.
//
// A Document keeps the parsed source in memory and serializes any ordered
// page subset as a standalone PDF. The source file stays open until Close.
package pdf
