package services

import (
	"errors"
	"fmt"

	"github.com/giftkitapp/giftkit/internal/shopify"
)

// Failure classes for the provisioning workflow. Handlers map these to HTTP
// statuses; everything under ErrUpstream is safe to retry as a whole because
// each step is idempotent by (handle, sku).
var (
	ErrValidation    = errors.New("validation failed")
	ErrUpstream      = errors.New("upstream request failed")
	ErrNotConfigured = errors.New("app is not configured")
	ErrNoAccessToken = errors.New("no access token for shop")
)

// StepError wraps a workflow step failure with the platform's user-level
// error details, keeping the failure class reachable via errors.Is.
type StepError struct {
	Class   error
	Step    string
	Details []shopify.UserError
}

func (e *StepError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Class.Error(), e.Step)
	}
	return fmt.Sprintf("%s: %s: %s", e.Class.Error(), e.Step, shopify.JoinUserErrors(e.Details))
}

func (e *StepError) Unwrap() error {
	return e.Class
}

func stepFailed(class error, step string, details []shopify.UserError) error {
	return &StepError{Class: class, Step: step, Details: details}
}
