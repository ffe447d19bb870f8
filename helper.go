package bankledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
)

// LocalHelper prepares a Postgres database for the ledger: schema creation for
// the seeder and setup/teardown for integration tests.
type LocalHelper struct {
	Conn   *pgx.Conn
	SQLDir string
}

func NewLocalHelper(connStr, sqlDir string) (*LocalHelper, error) {
	conn, err := pgx.Connect(context.Background(), connStr)
	if err != nil {
		return nil, err
	}
	if sqlDir == "" {
		sqlDir = "testdata"
	}
	return &LocalHelper{
		Conn:   conn,
		SQLDir: sqlDir,
	}, nil
}

// InitDB creates the ledger schema and returns a func that drops it again and
// closes the connection.
func (lh *LocalHelper) InitDB() (func(), error) {
	if err := lh.exec("init_db.sql"); err != nil {
		return nil, err
	}
	return lh.teardownDB(), nil
}

func (lh *LocalHelper) Close() error {
	return lh.Conn.Close(context.Background())
}

func (lh *LocalHelper) exec(file string) error {
	bits, err := os.ReadFile(filepath.Join(lh.SQLDir, file))
	if err != nil {
		return err
	}
	_, err = lh.Conn.Exec(context.Background(), string(bits))
	return err
}

func (lh *LocalHelper) teardownDB() func() {
	return func() {
		defer lh.Conn.Close(context.Background())

		if err := lh.exec("teardown_db.sql"); err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup exec teardown sql: %s", err.Error())
		}
	}
}
