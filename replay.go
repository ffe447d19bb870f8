package bankledger

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrCorruptLog reports an entry sequence that could not have been produced by
// the service.
type ErrCorruptLog struct {
	AccountNumber string
	Index         int
	Reason        string
}

func (e ErrCorruptLog) Error() string {
	return fmt.Sprintf("corrupt log for %s at entry %d: %s", e.AccountNumber, e.Index, e.Reason)
}

type ReplayResult struct {
	Balance  decimal.Decimal
	Entries  int
	OpenedAt time.Time
}

// Replay folds an account's entries, starting from its OPEN entry, into the
// final balance. Every recorded resulting balance is checked against the
// recomputed one.
func Replay(seq iter.Seq2[LedgerEntry, error]) (ReplayResult, error) {
	var res ReplayResult
	i := 0
	for e, err := range seq {
		if err != nil {
			return res, err
		}
		corrupt := func(reason string) error {
			return ErrCorruptLog{AccountNumber: e.AccountNumber, Index: i, Reason: reason}
		}
		if !e.Amount.IsPositive() {
			return res, corrupt("non-positive amount " + e.Amount.String())
		}
		switch {
		case i == 0 && e.Kind != KindOpen:
			return res, corrupt("first entry is " + string(e.Kind))
		case i > 0 && e.Kind == KindOpen:
			return res, corrupt("repeated OPEN entry")
		}

		switch e.Kind {
		case KindOpen:
			res.Balance = e.Amount
			res.OpenedAt = e.Timestamp
		case KindDeposit:
			res.Balance = res.Balance.Add(e.Amount)
		case KindWithdraw:
			res.Balance = res.Balance.Sub(e.Amount)
		}
		if res.Balance.IsNegative() {
			return res, corrupt("balance drops below zero")
		}
		if !res.Balance.Equal(e.ResultingBalance) {
			return res, corrupt(fmt.Sprintf("recorded balance %s, replayed %s", e.ResultingBalance, res.Balance))
		}
		i++
	}
	res.Entries = i
	return res, nil
}

// Restore re-registers customers from their snapshots and rebuilds each
// balance from the transaction log. Snapshots whose account has no entries are
// skipped since the log never confirmed the opening. Customers are registered
// in the order their accounts were opened.
func (s *serviceImpl) Restore(snaps []AccountSnapshot) (int, error) {
	type restored struct {
		cust Customer
		res  ReplayResult
	}
	var accts []restored
	for _, snap := range snaps {
		res, err := Replay(s.log.EntriesFor(snap.AccountNumber))
		if err != nil {
			return 0, fmt.Errorf("restore %s: %w", snap.AccountNumber, err)
		}
		if res.Entries == 0 {
			continue
		}
		accts = append(accts, restored{cust: snap.Customer(), res: res})
	}
	sort.SliceStable(accts, func(i, j int) bool {
		return accts[i].res.OpenedAt.Before(accts[j].res.OpenedAt)
	})

	rsv, _ := s.ids.(reserver)
	for _, a := range accts {
		acct := NewAccount(a.cust.AccountNumber, a.cust.Identity, a.res.Balance)
		if err := s.registry.Register(a.cust.UserID, a.cust.Name, acct); err != nil {
			return 0, err
		}
		if rsv != nil {
			rsv.Reserve(a.cust.UserID)
		}
	}
	return len(accts), nil
}
