package bankledger

import (
	"context"
	"fmt"
	"iter"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	pgInsertEntrySQL = `
		INSERT INTO ledger_entries (account_number, kind, amount, ts, resulting_balance)
		VALUES ($1, $2, $3, $4, $5);
	`

	pgSelectEntriesSQL = `
		SELECT account_number, kind, amount, ts, resulting_balance
		FROM ledger_entries
		WHERE account_number = $1
		ORDER BY seq;
	`
)

// PostgresLog is a TransactionLog stored in the ledger_entries table. Each
// append is a single autocommitted INSERT, so a nil error means the commit
// reached the server's WAL.
type PostgresLog struct {
	pool *pgxpool.Pool
	log  *zerolog.Logger
}

var (
	_ TransactionLog = (*PostgresLog)(nil)
)

func NewPostgresLog(connStr string, log *zerolog.Logger) (*PostgresLog, error) {
	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	if err = pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	endpt := &PostgresLog{
		pool: pool,
		log:  log,
	}
	return endpt, err
}

func (pg *PostgresLog) Append(entry LedgerEntry) error {
	ctx := context.Background()
	conn, err := pg.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, pgInsertEntrySQL,
		entry.AccountNumber,
		string(entry.Kind),
		entry.Amount,
		entry.Timestamp.UTC(),
		entry.ResultingBalance,
	)
	if err != nil {
		pg.log.Err(err).
			Str("account", entry.AccountNumber).
			Str("kind", string(entry.Kind)).
			Msg("ledger entry insert fail")
		return err
	}
	return nil
}

func (pg *PostgresLog) EntriesFor(accountNumber string) iter.Seq2[LedgerEntry, error] {
	return func(yield func(LedgerEntry, error) bool) {
		ctx := context.Background()
		rows, err := pg.pool.Query(ctx, pgSelectEntriesSQL, accountNumber)
		if err != nil {
			yield(LedgerEntry{}, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				e    LedgerEntry
				kind string
				amt  decimal.Decimal
				bal  decimal.Decimal
			)
			if err = rows.Scan(&e.AccountNumber, &kind, &amt, &e.Timestamp, &bal); err != nil {
				yield(LedgerEntry{}, err)
				return
			}
			if e.Kind, err = ParseEntryKind(kind); err != nil {
				yield(LedgerEntry{}, fmt.Errorf("row for %s: %w", accountNumber, err))
				return
			}
			e.Amount, e.ResultingBalance = amt, bal
			if !yield(e, nil) {
				return
			}
		}
		if err = rows.Err(); err != nil {
			yield(LedgerEntry{}, err)
		}
	}
}

func (pg *PostgresLog) Close() error {
	pg.pool.Close()
	return nil
}
