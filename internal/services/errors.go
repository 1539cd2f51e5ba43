package services

import (
	"errors"
	"strings"
)

var (
	ErrRestaurantNotFound  = errors.New("restaurant not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrAccountNotReady     = errors.New("payment account not provisioned or not chargeable")
	ErrPricingDrift        = errors.New("checkout line items do not sum to the stored order total")
	ErrUnauthorizedWebhook = errors.New("webhook signature verification failed")
)

// ValidationError carries every problem found in a request so the caller
// can fix all of them at once.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Issues, "; ")
}
