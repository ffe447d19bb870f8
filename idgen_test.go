package bankledger_test

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arhyth/bankledger"
)

func TestSnowflakeIDs(t *testing.T) {
	t.Run("hands out unique account numbers under concurrency", func(tt *testing.T) {
		as := assert.New(tt)
		ids, err := bankledger.NewSnowflakeIDs(3)
		require.NoError(tt, err)

		var (
			mu   sync.Mutex
			seen = make(map[string]struct{})
			wg   sync.WaitGroup
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					n := ids.NextAccountNumber()
					mu.Lock()
					seen[n] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		as.Len(seen, 800)
		for n := range seen {
			as.True(strings.HasPrefix(n, "ACC"), n)
		}
	})

	t.Run("continues the user ID sequence past reserved IDs", func(tt *testing.T) {
		as := assert.New(tt)
		ids, err := bankledger.NewSnowflakeIDs(1)
		require.NoError(tt, err)

		as.Equal("00001", ids.NextUserID())
		ids.Reserve("00042")
		ids.Reserve("alice")
		ids.Reserve("00007")
		as.Equal("00043", ids.NextUserID())
	})

	t.Run("rejects a node ID out of range", func(tt *testing.T) {
		_, err := bankledger.NewSnowflakeIDs(4096)
		assert.Error(tt, err)
	})
}

func TestSequenceIDs(t *testing.T) {
	as := assert.New(t)
	ids := &bankledger.SequenceIDs{Prefix: "T"}
	as.Equal("T1", ids.NextAccountNumber())
	as.Equal("T2", ids.NextAccountNumber())
	as.Equal("00001", ids.NextUserID())
}
