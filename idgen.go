package bankledger

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator allocates user IDs and account numbers for new accounts.
type IDGenerator interface {
	NextUserID() string
	NextAccountNumber() string
}

// reserver is implemented by generators that must skip identifiers restored
// from an earlier run.
type reserver interface {
	Reserve(userID string)
}

// SnowflakeIDs hands out zero-padded sequential user IDs ("00001", "00002", ...)
// and "ACC"-prefixed snowflake account numbers.
type SnowflakeIDs struct {
	mu   sync.Mutex
	seq  int64
	node *snowflake.Node
}

var (
	_ IDGenerator = (*SnowflakeIDs)(nil)
	_ IDGenerator = (*SequenceIDs)(nil)
)

func NewSnowflakeIDs(nodeID int64) (*SnowflakeIDs, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &SnowflakeIDs{node: node}, nil
}

func (g *SnowflakeIDs) NextUserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%05d", g.seq)
}

func (g *SnowflakeIDs) NextAccountNumber() string {
	return "ACC" + g.node.Generate().String()
}

// Reserve moves the sequence past userID when it is a numeric ID.
func (g *SnowflakeIDs) Reserve(userID string) {
	n, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if n > g.seq {
		g.seq = n
	}
}

// SequenceIDs is a deterministic generator: user IDs "00001"... and account
// numbers Prefix+"1", Prefix+"2"...
type SequenceIDs struct {
	Prefix string

	mu      sync.Mutex
	users   int64
	numbers int64
}

func (g *SequenceIDs) NextUserID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.users++
	return fmt.Sprintf("%05d", g.users)
}

func (g *SequenceIDs) NextAccountNumber() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.numbers++
	prefix := g.Prefix
	if prefix == "" {
		prefix = "ACC"
	}
	return prefix + strconv.FormatInt(g.numbers, 10)
}
