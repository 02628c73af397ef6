// Package services defines the business logic for webhook processing:
// orchestration, matching fan-out, and notification dispatch. This file
// centralizes common service-level error values so they can be consistently
// returned by service methods and checked by callers.
//
// Translation into HTTP responses is performed at the handler layer; the
// webhook contract only ever surfaces 200/401/500 to the platform.
package services

import "errors"

var (
	// ErrDealerDirectory indicates the dealer directory could not be read;
	// without a dealer list no matching can run.
	ErrDealerDirectory = errors.New("dealer directory unavailable")
)
