package domain

import "errors"

// Error kinds for the lifecycle controller. Collaborator failures are wrapped
// with one of these so callers can classify with errors.Is without depending
// on adapter internals. None of them is fatal to the process.
var (
	ErrFetch     = errors.New("fetch failed")
	ErrRender    = errors.New("render failed")
	ErrDeliver   = errors.New("delivery failed")
	ErrRetention = errors.New("retention sweep failed")
)
