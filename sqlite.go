package bankledger

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrationsFS embed.FS

const (
	sqliteInsertEntrySQL = `
		INSERT INTO ledger_entries (account_number, kind, amount, ts, resulting_balance)
		VALUES (?, ?, ?, ?, ?);
	`

	sqliteSelectEntriesSQL = `
		SELECT account_number, kind, amount, ts, resulting_balance
		FROM ledger_entries
		WHERE account_number = ?
		ORDER BY seq;
	`

	// FULL makes every commit fsync the WAL before returning.
	sqlitePragmas = "?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
)

// SQLiteLog is a TransactionLog kept in an embedded SQLite database.
type SQLiteLog struct {
	// writes serializes appends; readers use their own connections.
	writes sync.Mutex
	db     *sql.DB
}

var (
	_ TransactionLog = (*SQLiteLog)(nil)
)

func OpenSQLiteLog(dbPath string) (*SQLiteLog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := runSQLiteMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

func runSQLiteMigrations(dbPath string) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := migratesqlite.WithInstance(migrateDB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(sqliteMigrationsFS, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteLog) Append(entry LedgerEntry) error {
	s.writes.Lock()
	defer s.writes.Unlock()

	_, err := s.db.Exec(sqliteInsertEntrySQL,
		entry.AccountNumber,
		string(entry.Kind),
		entry.Amount.String(),
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.ResultingBalance.String(),
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (s *SQLiteLog) EntriesFor(accountNumber string) iter.Seq2[LedgerEntry, error] {
	return func(yield func(LedgerEntry, error) bool) {
		rows, err := s.db.Query(sqliteSelectEntriesSQL, accountNumber)
		if err != nil {
			yield(LedgerEntry{}, fmt.Errorf("query ledger entries: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var acct, kind, amt, ts, bal string
			if err = rows.Scan(&acct, &kind, &amt, &ts, &bal); err != nil {
				yield(LedgerEntry{}, fmt.Errorf("scan ledger entry: %w", err))
				return
			}
			e, err := decodeSQLiteRow(acct, kind, amt, ts, bal)
			if err != nil {
				yield(LedgerEntry{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
		if err = rows.Err(); err != nil {
			yield(LedgerEntry{}, err)
		}
	}
}

func decodeSQLiteRow(acct, kind, amt, ts, bal string) (LedgerEntry, error) {
	var (
		e   = LedgerEntry{AccountNumber: acct}
		err error
	)
	if e.Kind, err = ParseEntryKind(kind); err != nil {
		return e, err
	}
	if e.Amount, err = decimal.NewFromString(amt); err != nil {
		return e, fmt.Errorf("parse amount: %w", err)
	}
	if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return e, fmt.Errorf("parse timestamp: %w", err)
	}
	if e.ResultingBalance, err = decimal.NewFromString(bal); err != nil {
		return e, fmt.Errorf("parse resulting balance: %w", err)
	}
	return e, nil
}

func (s *SQLiteLog) Close() error {
	return s.db.Close()
}
