package entities

import "errors"

// Sentinel errors shared across the pipeline
var (
	ErrMissingReference  = errors.New("missing reference data")
	ErrInvalidParameters = errors.New("invalid run parameters")
	ErrNotFound          = errors.New("not found")
)
