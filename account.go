package bankledger

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Account owns a balance and its identity. Outside the package it is read-only:
// balance changes go through the service, which holds mu across the matching
// log append so that an account's entries are appended in admission order.
type Account struct {
	mu      sync.Mutex
	number  string
	owner   Identity
	balance decimal.Decimal
	// retired is set when an open is rolled back after the account was already
	// reachable; operations that acquire mu afterwards must treat it as absent.
	retired bool
}

func NewAccount(number string, owner Identity, balance decimal.Decimal) *Account {
	return &Account{
		number:  number,
		owner:   owner,
		balance: balance,
	}
}

func (a *Account) Number() string {
	return a.number
}

func (a *Account) OwnerUserID() string {
	return a.owner.UserID
}

func (a *Account) Owner() Identity {
	return a.owner
}

func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// deposit and withdraw expect mu to be held.
func (a *Account) deposit(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return a.balance, ErrInvalidAmount{Amount: amount}
	}
	a.balance = a.balance.Add(amount)
	return a.balance, nil
}

func (a *Account) withdraw(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return a.balance, ErrInvalidAmount{Amount: amount}
	}
	if a.balance.LessThan(amount) {
		return a.balance, ErrInsufficientFunds{Balance: a.balance, Amount: amount}
	}
	a.balance = a.balance.Sub(amount)
	return a.balance, nil
}
