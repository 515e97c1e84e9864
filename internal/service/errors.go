package service

import "errors"

var (
	ErrNotFound            = errors.New("not_found")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrNoSpinsAvailable    = errors.New("no_spins_available")
	ErrConcurrencyConflict = errors.New("concurrency_conflict")
	ErrInsufficientPoints  = errors.New("insufficient_points")
	ErrDuplicatePurchase   = errors.New("duplicate_purchase")
	ErrInvalidReferral     = errors.New("invalid_referral")
	ErrInvalidQuery        = errors.New("invalid_query")
)

var errUIDRequired = errors.New("uid is required")
