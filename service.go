package bankledger

import (
	"errors"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks . Service

// Identity is the customer data supplied by the identity provider at account
// opening. Only Name is required; an empty UserID is filled in by the service.
type Identity struct {
	UserID     string `yaml:"user_id" json:"user_id"`
	Name       string `yaml:"name" json:"name"`
	Phone      string `yaml:"phone" json:"phone"`
	DOB        string `yaml:"dob" json:"dob"`
	NationalID string `yaml:"nid" json:"nid"`
	FatherName string `yaml:"father" json:"father"`
	MotherName string `yaml:"mother" json:"mother"`
	Address    string `yaml:"address" json:"address"`
}

// Customer is a read-only view of a registered account holder.
type Customer struct {
	Identity
	AccountNumber string `json:"account_number"`
}

type OpenAccountReq struct {
	Identity       Identity
	InitialDeposit decimal.Decimal `json:"initial_deposit"`
}

type ChargeReq struct {
	UserID string
	Amount decimal.Decimal `json:"amount"`
}

type BalanceReq struct {
	UserID string
}

type HistoryReq struct {
	UserID string
}

type StatementReq struct {
	UserID string
}

type SnapshotReq struct {
	UserID string
}

type Service interface {
	OpenAccount(OpenAccountReq) (*Customer, error)
	Deposit(ChargeReq) (*decimal.Decimal, error)
	Withdraw(ChargeReq) (*decimal.Decimal, error)
	Balance(BalanceReq) (*decimal.Decimal, error)
	Lookup(token string) (*Customer, error)
	History(HistoryReq) (iter.Seq2[LedgerEntry, error], error)
	Statement(io.Writer, StatementReq) error
	Snapshot(SnapshotReq) error
}

type Option func(*serviceImpl)

func WithClock(now func() time.Time) Option {
	return func(s *serviceImpl) { s.now = now }
}

func WithIDGenerator(ids IDGenerator) Option {
	return func(s *serviceImpl) { s.ids = ids }
}

func WithSnapshotStore(store *SnapshotStore) Option {
	return func(s *serviceImpl) { s.snapshots = store }
}

func WithRegistry(reg *Registry) Option {
	return func(s *serviceImpl) { s.registry = reg }
}

var (
	_ Service = (*serviceImpl)(nil)

	errNoSnapshotStore = errors.New("snapshot store not configured")
)

func NewService(txlog TransactionLog, opts ...Option) (*serviceImpl, error) {
	if txlog == nil {
		return nil, errors.New("transaction log is required")
	}
	svc := &serviceImpl{
		log: txlog,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.registry == nil {
		svc.registry = NewRegistry()
	}
	if svc.ids == nil {
		ids, err := NewSnowflakeIDs(1)
		if err != nil {
			return nil, err
		}
		svc.ids = ids
	}
	return svc, nil
}

type serviceImpl struct {
	log       TransactionLog
	registry  *Registry
	ids       IDGenerator
	now       func() time.Time
	snapshots *SnapshotStore
}

func (s *serviceImpl) OpenAccount(req OpenAccountReq) (*Customer, error) {
	if !req.InitialDeposit.IsPositive() {
		return nil, ErrInvalidAmount{Amount: req.InitialDeposit}
	}
	ident := req.Identity
	ident.UserID = strings.TrimSpace(ident.UserID)
	ident.Name = strings.TrimSpace(ident.Name)
	if ident.Name == "" {
		return nil, ErrBadRequest{Fields: map[string]string{"name": "missing"}}
	}
	if ident.UserID == "" {
		ident.UserID = s.ids.NextUserID()
	}

	acct := NewAccount(s.ids.NextAccountNumber(), ident, req.InitialDeposit)
	// Held until the OPEN entry is durable so that concurrent callers who find
	// the account through the registry wait for the outcome.
	acct.mu.Lock()
	defer acct.mu.Unlock()

	if err := s.registry.Register(ident.UserID, ident.Name, acct); err != nil {
		return nil, err
	}
	rollback := func(cause error) error {
		s.registry.Unregister(ident.UserID)
		acct.retired = true
		return ErrPersistence{Op: "open", Err: cause}
	}

	now := s.now()
	// The identity record goes first: a snapshot without an OPEN entry is
	// ignored on restore, an OPEN entry without its identity would be lost.
	if s.snapshots != nil {
		if err := s.snapshots.Save(NewAccountSnapshot(*customerOf(acct), acct.balance, now)); err != nil {
			return nil, rollback(err)
		}
	}
	entry := LedgerEntry{
		AccountNumber:    acct.number,
		Kind:             KindOpen,
		Amount:           req.InitialDeposit,
		Timestamp:        now,
		ResultingBalance: acct.balance,
	}
	if err := s.log.Append(entry); err != nil {
		if s.snapshots != nil {
			_ = s.snapshots.Remove(acct.number)
		}
		return nil, rollback(err)
	}

	return customerOf(acct), nil
}

func (s *serviceImpl) Deposit(req ChargeReq) (*decimal.Decimal, error) {
	return s.mutate(req, KindDeposit, (*Account).deposit)
}

func (s *serviceImpl) Withdraw(req ChargeReq) (*decimal.Decimal, error) {
	return s.mutate(req, KindWithdraw, (*Account).withdraw)
}

// mutate applies a balance change and its ledger entry as one unit under the
// account's lock. A failed append restores the previous balance.
func (s *serviceImpl) mutate(
	req ChargeReq,
	kind EntryKind,
	apply func(*Account, decimal.Decimal) (decimal.Decimal, error),
) (*decimal.Decimal, error) {
	acct, err := s.find(req.UserID)
	if err != nil {
		return nil, err
	}
	defer acct.mu.Unlock()

	prev := acct.balance
	bal, err := apply(acct, req.Amount)
	if err != nil {
		return nil, err
	}
	entry := LedgerEntry{
		AccountNumber:    acct.number,
		Kind:             kind,
		Amount:           req.Amount,
		Timestamp:        s.now(),
		ResultingBalance: bal,
	}
	if err = s.log.Append(entry); err != nil {
		acct.balance = prev
		return nil, ErrPersistence{Op: strings.ToLower(string(kind)), Err: err}
	}

	return &bal, nil
}

// lockLive locks acct and reports ErrAccountNotFound, with the lock released,
// if a failed open retired it in the meantime.
func lockLive(acct *Account, key string) error {
	acct.mu.Lock()
	if acct.retired {
		acct.mu.Unlock()
		return ErrAccountNotFound{Key: key}
	}
	return nil
}

func (s *serviceImpl) find(userID string) (*Account, error) {
	acct, err := s.registry.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if err = lockLive(acct, userID); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *serviceImpl) Balance(req BalanceReq) (*decimal.Decimal, error) {
	acct, err := s.find(req.UserID)
	if err != nil {
		return nil, err
	}
	defer acct.mu.Unlock()
	bal := acct.balance
	return &bal, nil
}

func (s *serviceImpl) Lookup(token string) (*Customer, error) {
	acct, err := s.registry.FindByUserIDOrName(token)
	if err != nil {
		return nil, err
	}
	if err = lockLive(acct, token); err != nil {
		return nil, err
	}
	defer acct.mu.Unlock()
	return customerOf(acct), nil
}

func (s *serviceImpl) History(req HistoryReq) (iter.Seq2[LedgerEntry, error], error) {
	acct, err := s.find(req.UserID)
	if err != nil {
		return nil, err
	}
	defer acct.mu.Unlock()
	return s.log.EntriesFor(acct.number), nil
}

func (s *serviceImpl) Statement(w io.Writer, req StatementReq) error {
	acct, err := s.find(req.UserID)
	if err != nil {
		return err
	}
	entries, err := Collect(s.log.EntriesFor(acct.number))
	stmt := Statement{
		Customer:    *customerOf(acct),
		Balance:     acct.balance,
		Entries:     entries,
		GeneratedAt: s.now(),
	}
	acct.mu.Unlock()
	if err != nil {
		return ErrPersistence{Op: "statement", Err: err}
	}
	return stmt.WritePDF(w)
}

// Snapshot rewrites the account's snapshot under its lock, so the file never
// goes back to an older balance.
func (s *serviceImpl) Snapshot(req SnapshotReq) error {
	if s.snapshots == nil {
		return errNoSnapshotStore
	}
	acct, err := s.find(req.UserID)
	if err != nil {
		return err
	}
	defer acct.mu.Unlock()
	snap := NewAccountSnapshot(*customerOf(acct), acct.balance, s.now())
	if err = s.snapshots.Save(snap); err != nil {
		return ErrPersistence{Op: "snapshot", Err: err}
	}
	return nil
}

func customerOf(acct *Account) *Customer {
	return &Customer{
		Identity:      acct.owner,
		AccountNumber: acct.number,
	}
}
