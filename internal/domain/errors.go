package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
	// ErrContention is returned when an optimistic write kept losing to
	// concurrent writers until the retry budget ran out.
	ErrContention = errors.New("contention")
)
