package bankledger

import (
	"fmt"

	"github.com/rs/zerolog"
)

// OpenTransactionLog opens the log backend selected by cfg.
func OpenTransactionLog(cfg *Config, log *zerolog.Logger) (TransactionLog, error) {
	switch cfg.Ledger.Backend {
	case BackendFile:
		return OpenFileLog(cfg.Ledger.Path)
	case BackendSQLite:
		return OpenSQLiteLog(cfg.Ledger.Path)
	case BackendPostgres:
		return NewPostgresLog(cfg.Ledger.ConnectionString, log)
	default:
		return nil, fmt.Errorf("unsupported ledger backend %q", cfg.Ledger.Backend)
	}
}
