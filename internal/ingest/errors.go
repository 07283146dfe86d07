package ingest

import "errors"

var (
	// ErrUnsupportedFormat is returned for files other than .pdf, .md and .txt.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoText is returned when a document yields no extractable text.
	ErrNoText = errors.New("no text could be extracted from document")
)
