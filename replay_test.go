package bankledger_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/bankledger"
)

func seqOf(entries ...bankledger.LedgerEntry) func(func(bankledger.LedgerEntry, error) bool) {
	return func(yield func(bankledger.LedgerEntry, error) bool) {
		for _, e := range entries {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func TestReplay(t *testing.T) {
	t.Run("folds a valid history into its final balance", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		res, err := bankledger.Replay(seqOf(
			entry("ACC1", bankledger.KindOpen, "500", "500"),
			entry("ACC1", bankledger.KindDeposit, "200", "700"),
			entry("ACC1", bankledger.KindWithdraw, "700", "0"),
		))
		reqrd.NoError(err)
		as.True(res.Balance.IsZero())
		as.Equal(3, res.Entries)
		as.True(res.OpenedAt.Equal(fixedNow))
	})

	t.Run("returns a zero result for an empty history", func(tt *testing.T) {
		as := assert.New(tt)
		res, err := bankledger.Replay(seqOf())
		as.NoError(err)
		as.Equal(0, res.Entries)
	})

	t.Run("rejects histories the service could not have written", func(tt *testing.T) {
		cases := map[string][]bankledger.LedgerEntry{
			"missing OPEN": {
				entry("ACC1", bankledger.KindDeposit, "5", "5"),
			},
			"repeated OPEN": {
				entry("ACC1", bankledger.KindOpen, "5", "5"),
				entry("ACC1", bankledger.KindOpen, "5", "5"),
			},
			"overdraft": {
				entry("ACC1", bankledger.KindOpen, "5", "5"),
				entry("ACC1", bankledger.KindWithdraw, "6", "-1"),
			},
			"balance mismatch": {
				entry("ACC1", bankledger.KindOpen, "5", "5"),
				entry("ACC1", bankledger.KindDeposit, "5", "11"),
			},
			"zero amount": {
				entry("ACC1", bankledger.KindOpen, "5", "5"),
				entry("ACC1", bankledger.KindDeposit, "0", "5"),
			},
		}
		for name, entries := range cases {
			tt.Run(name, func(ttt *testing.T) {
				_, err := bankledger.Replay(seqOf(slices.Clone(entries)...))
				assert.ErrorAs(ttt, err, &bankledger.ErrCorruptLog{})
			})
		}
	})
}
