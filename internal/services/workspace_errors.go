package services

import "errors"

var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrSubmitInFlight    = errors.New("an optimization run is already in flight")
	// ErrIncompleteInput rejects a submission while a default or edge still
	// holds the empty value.
	ErrIncompleteInput = errors.New("matrix input incomplete")
	ErrNoOpenSession   = errors.New("no editing session is open")
	ErrUnknownEdge     = errors.New("unknown edge")
	// ErrWorkspaceLimit refuses a new workspace when memory holds the maximum
	// and none can be evicted.
	ErrWorkspaceLimit = errors.New("workspace limit reached")
)
