// Package handlers defines HTTP-layer error codes used by the admin API.
//
// Codes are lowercase snake_case and give clients a stable, machine-readable
// taxonomy supplementing the HTTP status. The webhook endpoint is excluded
// from this scheme: its platform contract is plain text.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeListFailed       = "list_failed"
	ErrCodeCreateFailed     = "create_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
