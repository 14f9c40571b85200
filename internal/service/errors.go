package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation        = errors.New("invalid request")
	ErrInvalidPlan       = errors.New("invalid subscription plan")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPeriod     = errors.New("period end must be after period start")
	ErrMissingReference  = errors.New("notification carries no payment reference")
	ErrTokenMismatch     = errors.New("notification token does not match the payment")
	ErrWebhookURL        = errors.New("server.base_url is not configured")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentPermission = errors.New("payment belongs to another user")
	ErrGateway           = errors.New("payment gateway error")
	ErrPersistence       = errors.New("payment store error")
	ErrPartialFailure    = errors.New("payment approved but subscription grant failed")
)

// PartialFailureError reports an approved payment whose subscription grant failed.
// The approval stays recorded; the grant is retried on replay or by the repair worker.
type PartialFailureError struct {
	PaymentID string
	Cause     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("payment %s: %v: %v", e.PaymentID, ErrPartialFailure, e.Cause)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{ErrPartialFailure, e.Cause}
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func persistenceError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

const defaultStoreTimeout = 10 * time.Second

// storeContext bounds a single store call.
func storeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
