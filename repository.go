package bankledger

import (
	"iter"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks . TransactionLog

// TransactionLog is the append-only, durable store of ledger entries.
//
// Append must not return nil until the entry survives a crash, and must not leave
// a partial entry behind when it fails. EntriesFor yields an account's entries in
// append order; the sequence may be ranged over more than once and stops at the
// first error it yields.
type TransactionLog interface {
	Append(entry LedgerEntry) error
	EntriesFor(accountNumber string) iter.Seq2[LedgerEntry, error]
	Close() error
}

// Collect drains an entry sequence into a slice.
func Collect(seq iter.Seq2[LedgerEntry, error]) ([]LedgerEntry, error) {
	var out []LedgerEntry
	for e, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}
