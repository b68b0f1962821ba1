package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("insufficient permissions")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCouponExhausted   = errors.New("coupon usage limit reached")
	ErrAmountMismatch    = errors.New("Amount mismatch")
	ErrVerification      = errors.New("payment verification failed")
	ErrPaymentNotSuccess = errors.New("payment was not successful")
	ErrConflict          = errors.New("already exists")
	ErrStaleUpdate       = errors.New("changed since it was loaded, reload and try again")
)

// CouponError carries the reason shown to the shopper when a coupon is refused.
type CouponError struct {
	Reason string
}

func (e *CouponError) Error() string { return e.Reason }

func couponErr(reason string) error { return &CouponError{Reason: reason} }
