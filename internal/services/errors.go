// Package services defines the business logic for form submissions.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Validation failures are reported as *validation.ValidationError and are not
// wrapped. Translation into user-facing messages or HTTP status codes is
// performed at the handler layer.
package services

import "errors"

// ErrStoreFault indicates that the submission store failed to create or list
// records. The underlying cause is wrapped alongside it.
var ErrStoreFault = errors.New("submission store fault")
