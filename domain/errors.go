package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrMedicineNotFound  = errors.New("medicine not found")
	ErrRequestNotFound   = errors.New("request not found")
	ErrSelfRequest       = errors.New("cannot request your own medicine")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient quantity available")
	ErrDuplicatePending  = errors.New("a pending request for this medicine already exists")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrAlreadyProcessed  = errors.New("request already processed")
	ErrNotPending        = errors.New("only pending requests can be cancelled")
	ErrInvalidStatus     = errors.New("status must be accepted or rejected")
)
