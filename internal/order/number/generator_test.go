package number

import (
	"context"
	"strings"
	"sync"
	"testing"

	"canteen/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerator_SequenceIsMonotonic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	gen := NewGenerator(db, "MRC", zap.NewNop())

	first, err := gen.Next(context.Background())
	require.NoError(t, err)
	second, err := gen.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "MRC000001", first)
	assert.Equal(t, "MRC000002", second)
}

func TestGenerator_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	gen := NewGenerator(db, "MRC", zap.NewNop())

	const callers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := gen.Next(context.Background())
			assert.NoError(t, err)
			mu.Lock()
			seen[n] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, callers)
}

func TestGenerator_FallsBackWhenCounterUnreachable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.SetupTestTables(t, db)
	testutil.CleanupTestDB(t, db) // closes the handle

	gen := NewGenerator(db, "MRC", zap.NewNop())

	n, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(n, "MRC"))
	assert.Len(t, n, len("MRC")+6)
}
