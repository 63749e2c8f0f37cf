package services

import "errors"

// Dashboard service errors
var (
	// Snapshot errors
	ErrNoSnapshot = errors.New("no snapshot loaded")

	// Lookup errors
	ErrFunctionNotFound = errors.New("function not found")
	ErrKPINotFound      = errors.New("kpi not found")
	ErrRoundNotFound    = errors.New("round not found")
)
