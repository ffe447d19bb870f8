package bankledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/bankledger"
)

func TestRegistry(t *testing.T) {
	newAcct := func(number, userID, name string) *bankledger.Account {
		return bankledger.NewAccount(number, bankledger.Identity{UserID: userID, Name: name}, dec("1"))
	}

	t.Run("finds accounts by user ID, account number and name", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		reg := bankledger.NewRegistry()
		acct := newAcct("ACC1", "Rahim01", "Rahim Uddin")
		reqrd.NoError(reg.Register("Rahim01", "Rahim Uddin", acct))

		got, err := reg.FindByUserID("rahim01")
		reqrd.NoError(err)
		as.Same(acct, got)
		got, err = reg.FindByAccountNumber("ACC1")
		reqrd.NoError(err)
		as.Same(acct, got)
		got, err = reg.FindByUserIDOrName(" rahim uddin ")
		reqrd.NoError(err)
		as.Same(acct, got)

		_, err = reg.FindByAccountNumber("ACC2")
		as.ErrorAs(err, &bankledger.ErrAccountNotFound{})
	})

	t.Run("prefers a user ID match over a name match", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		reg := bankledger.NewRegistry()
		named := newAcct("ACC1", "u1", "karim")
		byID := newAcct("ACC2", "karim", "Someone")
		reqrd.NoError(reg.Register("u1", "karim", named))
		reqrd.NoError(reg.Register("karim", "Someone", byID))

		got, err := reg.FindByUserIDOrName("Karim")
		reqrd.NoError(err)
		as.Same(byID, got)
	})

	t.Run("rejects a duplicate user ID regardless of case", func(tt *testing.T) {
		as := assert.New(tt)
		reg := bankledger.NewRegistry()
		as.NoError(reg.Register("u1", "A", newAcct("ACC1", "u1", "A")))

		err := reg.Register("U1", "B", newAcct("ACC2", "U1", "B"))
		as.ErrorAs(err, &bankledger.ErrDuplicateUserID{})
		as.Equal(1, reg.Len())
		_, err = reg.FindByAccountNumber("ACC2")
		as.Error(err)
	})

	t.Run("unregister removes every index and keeps name order", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		reg := bankledger.NewRegistry()
		first := newAcct("ACC1", "u1", "Nadia")
		second := newAcct("ACC2", "u2", "Nadia")
		reqrd.NoError(reg.Register("u1", "Nadia", first))
		reqrd.NoError(reg.Register("u2", "Nadia", second))

		as.True(reg.Unregister("u1"))
		as.False(reg.Unregister("u1"))
		_, err := reg.FindByUserID("u1")
		as.ErrorAs(err, &bankledger.ErrAccountNotFound{})
		_, err = reg.FindByAccountNumber("ACC1")
		as.ErrorAs(err, &bankledger.ErrAccountNotFound{})

		got, err := reg.FindByUserIDOrName("nadia")
		reqrd.NoError(err)
		as.Same(second, got)
		as.Equal(1, reg.Len())
	})
}
