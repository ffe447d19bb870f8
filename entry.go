package bankledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type EntryKind string

const (
	KindOpen     EntryKind = "OPEN"
	KindDeposit  EntryKind = "DEPOSIT"
	KindWithdraw EntryKind = "WITHDRAW"
)

func ParseEntryKind(s string) (EntryKind, error) {
	switch k := EntryKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindOpen, KindDeposit, KindWithdraw:
		return k, nil
	default:
		return "", fmt.Errorf("unknown entry kind %q", s)
	}
}

// LedgerEntry is one immutable record of a balance-affecting event.
type LedgerEntry struct {
	AccountNumber    string          `json:"account_number"`
	Kind             EntryKind       `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	Timestamp        time.Time       `json:"timestamp"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
}

const (
	lineSep    = "|"
	lineFields = 5
)

// MarshalLine renders the entry as a single newline-terminated record:
//
//	accountNumber|kind|amount|timestamp|resultingBalance
func (e LedgerEntry) MarshalLine() []byte {
	var b strings.Builder
	b.WriteString(e.AccountNumber)
	b.WriteString(lineSep)
	b.WriteString(string(e.Kind))
	b.WriteString(lineSep)
	b.WriteString(e.Amount.String())
	b.WriteString(lineSep)
	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339Nano))
	b.WriteString(lineSep)
	b.WriteString(e.ResultingBalance.String())
	b.WriteByte('\n')
	return []byte(b.String())
}

func ParseLine(line string) (LedgerEntry, error) {
	var e LedgerEntry
	parts := strings.Split(strings.TrimRight(line, "\r\n"), lineSep)
	if len(parts) != lineFields {
		return e, fmt.Errorf("malformed ledger line %q: want %d fields, got %d", line, lineFields, len(parts))
	}
	if parts[0] == "" {
		return e, fmt.Errorf("malformed ledger line %q: empty account number", line)
	}
	kind, err := ParseEntryKind(parts[1])
	if err != nil {
		return e, err
	}
	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return e, fmt.Errorf("parse amount: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[3])
	if err != nil {
		return e, fmt.Errorf("parse timestamp: %w", err)
	}
	bal, err := decimal.NewFromString(parts[4])
	if err != nil {
		return e, fmt.Errorf("parse resulting balance: %w", err)
	}

	e = LedgerEntry{
		AccountNumber:    parts[0],
		Kind:             kind,
		Amount:           amount,
		Timestamp:        ts,
		ResultingBalance: bal,
	}
	return e, nil
}
