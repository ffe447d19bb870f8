package bankledger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/bankledger"
)

func TestSnapshotStore(t *testing.T) {
	cust := bankledger.Customer{
		Identity: bankledger.Identity{
			UserID:     "00001",
			Name:       "Rahim Uddin",
			Phone:      "01700000000",
			DOB:        "1990-01-01",
			NationalID: "1234567890",
			FatherName: "Karim Uddin",
			MotherName: "Amena Begum",
			Address:    "Dhaka",
		},
		AccountNumber: "ACC1",
	}

	t.Run("saves and loads a snapshot", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		dir := tt.TempDir()
		store, err := bankledger.NewSnapshotStore(dir)
		reqrd.NoError(err)

		reqrd.NoError(store.Save(bankledger.NewAccountSnapshot(cust, dec("1234.56"), fixedNow)))
		got, err := store.Load("ACC1")
		reqrd.NoError(err)
		as.Equal(cust, got.Customer())
		assertDecimal(as, "1234.56", got.Balance)
		as.True(got.UpdatedAt.Equal(fixedNow))

		bits, err := os.ReadFile(filepath.Join(dir, "ACC1.yml"))
		reqrd.NoError(err)
		as.Contains(string(bits), "nid: \"1234567890\"")
		as.Contains(string(bits), "account: ACC1")
		_, err = os.Stat(filepath.Join(dir, "ACC1.yml.tmp"))
		as.True(os.IsNotExist(err))
	})

	t.Run("overwrites an existing snapshot", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		store, err := bankledger.NewSnapshotStore(tt.TempDir())
		reqrd.NoError(err)

		reqrd.NoError(store.Save(bankledger.NewAccountSnapshot(cust, dec("1"), fixedNow)))
		reqrd.NoError(store.Save(bankledger.NewAccountSnapshot(cust, dec("2"), fixedNow)))
		got, err := store.Load("ACC1")
		reqrd.NoError(err)
		assertDecimal(as, "2", got.Balance)
	})

	t.Run("returns ErrAccountNotFound for a missing snapshot", func(tt *testing.T) {
		store, err := bankledger.NewSnapshotStore(tt.TempDir())
		require.NoError(tt, err)
		_, err = store.Load("ACC9")
		assert.ErrorAs(tt, err, &bankledger.ErrAccountNotFound{})
	})

	t.Run("lists snapshots ordered by account number", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		dir := tt.TempDir()
		store, err := bankledger.NewSnapshotStore(dir)
		reqrd.NoError(err)
		for _, n := range []string{"ACC3", "ACC1", "ACC2"} {
			c := cust
			c.AccountNumber = n
			reqrd.NoError(store.Save(bankledger.NewAccountSnapshot(c, dec("1"), fixedNow)))
		}
		reqrd.NoError(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

		all, err := store.LoadAll()
		reqrd.NoError(err)
		reqrd.Len(all, 3)
		as.Equal("ACC1", all[0].AccountNumber)
		as.Equal("ACC3", all[2].AccountNumber)
	})

	t.Run("service snapshot fails without a store", func(tt *testing.T) {
		as := assert.New(tt)
		reqrd := require.New(tt)
		txlog, err := bankledger.OpenFileLog(filepath.Join(tt.TempDir(), "ledger.log"))
		reqrd.NoError(err)
		defer txlog.Close()
		svc, err := bankledger.NewService(txlog)
		reqrd.NoError(err)
		_, err = svc.OpenAccount(openReq("u1", "Rahim", "1"))
		reqrd.NoError(err)

		as.Error(svc.Snapshot(bankledger.SnapshotReq{UserID: "u1"}))
	})
}

func TestStatementPDF(t *testing.T) {
	as := assert.New(t)
	reqrd := require.New(t)
	stmt := bankledger.Statement{
		Customer: bankledger.Customer{
			Identity:      bankledger.Identity{UserID: "00001", Name: "Rahim"},
			AccountNumber: "ACC1",
		},
		Balance: dec("0"),
		Entries: []bankledger.LedgerEntry{
			entry("ACC1", bankledger.KindOpen, "500", "500"),
			entry("ACC1", bankledger.KindWithdraw, "500", "0"),
		},
		GeneratedAt: fixedNow,
	}

	buf := new(bytes.Buffer)
	reqrd.NoError(stmt.WritePDF(buf))
	as.True(bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	as.True(bytes.Contains(buf.Bytes(), []byte("%%EOF")))
}
