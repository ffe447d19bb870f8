package bankledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrOverloaded  = errors.New("service overloaded")
	ErrUnavailable = errors.New("service temporarily unavailable")
	ErrLogClosed   = errors.New("transaction log closed")
)

type ErrBadRequest struct {
	Fields map[string]string
}

func (e ErrBadRequest) Error() string {
	return fmt.Sprintf("missing/invalid params: %v", e.Fields)
}

type ErrInvalidAmount struct {
	Amount decimal.Decimal `json:"amount"`
}

func (e ErrInvalidAmount) Error() string {
	return fmt.Sprintf("invalid amount %s: must be greater than zero", e.Amount)
}

type ErrInsufficientFunds struct {
	Balance decimal.Decimal `json:"balance"`
	Amount  decimal.Decimal `json:"amount"`
}

func (e ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient balance: %s requested, %s available", e.Amount, e.Balance)
}

// ErrAccountNotFound carries the userID, name or account number that failed to resolve.
type ErrAccountNotFound struct {
	Key string `json:"key"`
}

func (e ErrAccountNotFound) Error() string {
	return fmt.Sprintf("account not found: %q", e.Key)
}

type ErrDuplicateUserID struct {
	UserID string `json:"user_id"`
}

func (e ErrDuplicateUserID) Error() string {
	return fmt.Sprintf("user ID %q already registered", e.UserID)
}

// ErrPersistence reports that a ledger entry could not be made durable.
// Any in-memory change depending on it has been undone by the time it is returned.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failure on %s: %v", e.Op, e.Err)
}

func (e ErrPersistence) Unwrap() error {
	return e.Err
}

// IsBusinessError reports whether err is a recoverable, caller-induced failure
// as opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	var (
		ia  ErrInvalidAmount
		isf ErrInsufficientFunds
		anf ErrAccountNotFound
		dup ErrDuplicateUserID
		br  ErrBadRequest
	)
	return errors.As(err, &ia) ||
		errors.As(err, &isf) ||
		errors.As(err, &anf) ||
		errors.As(err, &dup) ||
		errors.As(err, &br)
}
