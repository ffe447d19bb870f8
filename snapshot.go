package bankledger

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const snapshotExt = ".yml"

// AccountSnapshot is the human-readable dump of a customer and their balance.
// It is a convenience view; the transaction log stays authoritative.
type AccountSnapshot struct {
	UserID        string          `yaml:"user_id"`
	Name          string          `yaml:"name"`
	Phone         string          `yaml:"phone"`
	DOB           string          `yaml:"dob"`
	NationalID    string          `yaml:"nid"`
	FatherName    string          `yaml:"father"`
	MotherName    string          `yaml:"mother"`
	Address       string          `yaml:"address"`
	AccountNumber string          `yaml:"account"`
	Balance       decimal.Decimal `yaml:"balance"`
	UpdatedAt     time.Time       `yaml:"updated_at"`
}

func NewAccountSnapshot(c Customer, balance decimal.Decimal, at time.Time) AccountSnapshot {
	return AccountSnapshot{
		UserID:        c.UserID,
		Name:          c.Name,
		Phone:         c.Phone,
		DOB:           c.DOB,
		NationalID:    c.NationalID,
		FatherName:    c.FatherName,
		MotherName:    c.MotherName,
		Address:       c.Address,
		AccountNumber: c.AccountNumber,
		Balance:       balance,
		UpdatedAt:     at.UTC(),
	}
}

func (s AccountSnapshot) Customer() Customer {
	return Customer{
		Identity: Identity{
			UserID:     s.UserID,
			Name:       s.Name,
			Phone:      s.Phone,
			DOB:        s.DOB,
			NationalID: s.NationalID,
			FatherName: s.FatherName,
			MotherName: s.MotherName,
			Address:    s.Address,
		},
		AccountNumber: s.AccountNumber,
	}
}

// SnapshotStore keeps one YAML file per account under a directory.
type SnapshotStore struct {
	dir string
}

func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &SnapshotStore{dir: dir}, nil
}

func (st *SnapshotStore) path(accountNumber string) string {
	return filepath.Join(st.dir, accountNumber+snapshotExt)
}

// Save overwrites the account's snapshot through a uniquely named temporary
// file and rename, so a reader never sees a half-written file.
func (st *SnapshotStore) Save(snap AccountSnapshot) error {
	if snap.AccountNumber == "" {
		return errors.New("snapshot without account number")
	}
	buf := new(bytes.Buffer)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path := st.path(snap.AccountNumber)
	f, err := os.CreateTemp(st.dir, snap.AccountNumber+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	tmp := f.Name()
	if _, err = f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return syncDir(st.dir)
}

// Remove deletes the account's snapshot; a missing file is not an error.
func (st *SnapshotStore) Remove(accountNumber string) error {
	if err := os.Remove(st.path(accountNumber)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return syncDir(st.dir)
}

func (st *SnapshotStore) Load(accountNumber string) (AccountSnapshot, error) {
	var snap AccountSnapshot
	bits, err := os.ReadFile(st.path(accountNumber))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snap, ErrAccountNotFound{Key: accountNumber}
		}
		return snap, err
	}
	if err = yaml.Unmarshal(bits, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot %s: %w", accountNumber, err)
	}
	return snap, nil
}

// LoadAll returns every snapshot in the directory ordered by account number.
func (st *SnapshotStore) LoadAll() ([]AccountSnapshot, error) {
	dirents, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var out []AccountSnapshot
	for _, de := range dirents {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, snapshotExt) {
			continue
		}
		snap, err := st.Load(strings.TrimSuffix(name, snapshotExt))
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AccountNumber < out[j].AccountNumber
	})
	return out, nil
}
