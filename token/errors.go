package token

import "errors"

var (
	// Guard errors
	ErrZeroAddress           = errors.New("token: zero address")
	ErrAmountRequired        = errors.New("token: amount required")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")

	// Arithmetic errors
	ErrSupplyOverflow = errors.New("token: total supply overflow")
)
