/*

Error taxonomy shared by every component. Each specific error belongs to one or
more kinds so callers can match either the precise failure or its category with
errors.Is.

*/

package types

import "errors"

// Error kinds.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSlippage          = errors.New("slippage")
)

// kindedError is a sentinel that also matches each of its kinds.
type kindedError struct {
	msg   string
	kinds []error
}

func (e *kindedError) Error() string { return e.msg }

func (e *kindedError) Is(target error) bool {
	for _, k := range e.kinds {
		if k == target {
			return true
		}
	}
	return false
}

func newError(msg string, kinds ...error) error {
	return &kindedError{msg: msg, kinds: kinds}
}

// Specific errors.
var (
	ErrPoolNotFound     = newError("pool not found", ErrNotFound)
	ErrPositionNotFound = newError("position not found", ErrNotFound)
	ErrStrategyNotFound = newError("strategy not found", ErrNotFound)

	ErrAlreadyAuthorized = newError("executor already authorized", ErrUnauthorized, ErrInvalidState)

	ErrAlreadyOpen      = newError("position already open", ErrInvalidState)
	ErrNoOpenPosition   = newError("no open position", ErrInvalidState)
	ErrNotInTransaction = newError("not inside a ledger transaction", ErrInvalidState)
	ErrUnsettledEscrow  = newError("escrow balance not settled", ErrInvalidState)

	ErrZeroValue          = newError("zero value", ErrInvalidInput)
	ErrTokenMismatch      = newError("token mismatch", ErrInvalidInput)
	ErrInvalidFeeTier     = newError("invalid fee tier", ErrInvalidInput)
	ErrInvalidAddress     = newError("invalid address", ErrInvalidInput)
	ErrInvalidTickRange   = newError("invalid tick range", ErrInvalidInput)
	ErrArithmeticOverflow = newError("arithmetic overflow", ErrInvalidInput)

	ErrInsufficientBalance   = newError("insufficient balance", ErrInsufficientFunds)
	ErrInsufficientLiquidity = newError("insufficient liquidity", ErrInsufficientFunds)

	ErrSlippageExceeded = newError("slippage exceeded", ErrSlippage)
)

// kindOrder decides which kind wins when an error carries several.
var kindOrder = []error{
	ErrNotFound,
	ErrInvalidState,
	ErrUnauthorized,
	ErrInvalidInput,
	ErrInsufficientFunds,
	ErrSlippage,
}

// KindOf returns the kind of err, or nil when err is not one of ours.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kindOrder {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName is the label used for err in receipts, metrics and API responses.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrNotFound:
		return "NotFound"
	case ErrInvalidState:
		return "InvalidState"
	case ErrUnauthorized:
		return "Unauthorized"
	case ErrInvalidInput:
		return "InvalidInput"
	case ErrInsufficientFunds:
		return "InsufficientFunds"
	case ErrSlippage:
		return "SlippageExceeded"
	}
	if err == nil {
		return ""
	}
	return "Internal"
}
