package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrRetrieval matches any *RetrievalError via errors.Is.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrEmptyCorpus is returned when an engine is built without chunks.
	ErrEmptyCorpus = errors.New("corpus is empty")
)

// RetrievalError wraps a similarity-index failure. It is fatal to the request.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for %q: %v", e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrRetrieval) match.
func (e *RetrievalError) Is(target error) bool {
	return target == ErrRetrieval
}
