// Package connectors provides sources that feed documents into pdfcut.
//
// The filesystem connector watches a directory and hands over each new PDF
// once it has stopped changing.
package connectors
