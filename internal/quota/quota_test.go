package quota

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryConcurrentConsumeIsExact(t *testing.T) {
	const limit, callers = 7, 50
	tr := NewMemory(limit)

	var granted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := tr.TryConsume(context.Background())
			assert.NoError(t, err)
			if ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(limit), granted.Load())
	u, err := tr.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, limit, u.Used)
	assert.Equal(t, 0, u.Remaining)
}

func TestMemoryRollsOverAtUTCMidnight(t *testing.T) {
	now := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	tr := NewMemory(1).WithClock(func() time.Time { return now })
	ctx := context.Background()

	ok, _ := tr.TryConsume(ctx)
	assert.True(t, ok)
	ok, _ = tr.TryConsume(ctx)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = tr.TryConsume(ctx)
	assert.True(t, ok, "new day starts at zero")

	assert.Equal(t, 1, tr.History("2024-03-01"), "previous day kept")
	u, _ := tr.Usage(ctx)
	assert.Equal(t, "2024-03-02", u.Date)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), u.ResetAt)
}

func TestNewUsageClampsRemaining(t *testing.T) {
	u := NewUsage(time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC), 30, 25)
	assert.Equal(t, 0, u.Remaining)
	assert.Equal(t, "2024-01-01", u.Date)
}
