package bankledger

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Ledger struct {
		Backend          string `yaml:"backend"`
		Path             string `yaml:"path"`
		ConnectionString string `yaml:"conn_str"`
		SnapshotDir      string `yaml:"snapshot_dir"`
		NodeID           int64  `yaml:"node_id"`
	} `yaml:"ledger"`
	Limits struct {
		MaxInFlight    int64         `yaml:"max_in_flight"`
		AcquireTimeout time.Duration `yaml:"acquire_timeout"`
	} `yaml:"limits"`
	Breaker struct {
		MaxFailures uint32        `yaml:"max_failures"`
		OpenTimeout time.Duration `yaml:"open_timeout"`
	} `yaml:"breaker"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads a YAML config file. A .env file in the working directory,
// if present, is loaded first and ${VAR} references in the YAML are expanded
// from the environment.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	bits, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err = yaml.Unmarshal([]byte(os.ExpandEnv(string(bits))), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = BackendFile
	}
	if c.Ledger.Path == "" {
		switch c.Ledger.Backend {
		case BackendSQLite:
			c.Ledger.Path = "database/ledger.db"
		default:
			c.Ledger.Path = "database/ledger.log"
		}
	}
	if c.Ledger.SnapshotDir == "" {
		c.Ledger.SnapshotDir = "database/user"
	}
	if c.Ledger.NodeID == 0 {
		c.Ledger.NodeID = 1
	}
	if c.Limits.MaxInFlight == 0 {
		c.Limits.MaxInFlight = 64
	}
	if c.Limits.AcquireTimeout == 0 {
		c.Limits.AcquireTimeout = 500 * time.Millisecond
	}
	if c.Breaker.MaxFailures == 0 {
		c.Breaker.MaxFailures = 5
	}
	if c.Breaker.OpenTimeout == 0 {
		c.Breaker.OpenTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = zerolog.InfoLevel.String()
	}
}

func (c *Config) Validate() error {
	var problems []string

	switch c.Ledger.Backend {
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(c.Ledger.Path) == "" {
			problems = append(problems, fmt.Sprintf("ledger path cannot be empty for backend %q", c.Ledger.Backend))
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Ledger.ConnectionString) == "" {
			problems = append(problems, "conn_str cannot be empty for backend \"postgres\"")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid ledger backend %q: must be one of [file sqlite postgres]", c.Ledger.Backend))
	}
	if c.Ledger.NodeID < 0 || c.Ledger.NodeID > 1023 {
		problems = append(problems, fmt.Sprintf("invalid node_id %d: must be between 0 and 1023", c.Ledger.NodeID))
	}
	if c.Limits.MaxInFlight < 0 {
		problems = append(problems, "max_in_flight cannot be negative")
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("invalid logging level %q", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
