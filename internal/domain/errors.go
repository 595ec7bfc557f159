package domain

import "errors"

var (
	// ErrNotFound indicates an unknown knowledge base or document
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates a malformed request
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUpstream indicates a failure in the QA engine or messaging platform
	ErrUpstream = errors.New("upstream failure")
)
