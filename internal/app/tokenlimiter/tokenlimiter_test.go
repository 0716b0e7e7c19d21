package tokenlimiter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	client := "10.0.0.1"
	maxTokens := 2

	l := New(maxTokens)

	// release of unknown key is a no-op
	l.Release(client)
	require.Equal(t, 0, l.InUse(client))

	for i := 0; i < maxTokens; i++ {
		require.True(t, l.Acquire(client))
	}
	require.False(t, l.Acquire(client))
	require.True(t, l.Acquire("10.0.0.2"))

	l.Release(client)
	require.True(t, l.Acquire(client))

	for i := 0; i < maxTokens+1; i++ {
		l.Release(client)
	}

	require.Equal(t, 0, l.InUse(client))
	_, ok := l.m[client]
	require.False(t, ok)
}

func TestLimiterConcurrent(t *testing.T) {
	const (
		maxTokens = 3
		workers   = 32
	)

	l := New(maxTokens)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		acquired int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if l.Acquire("client") {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, maxTokens, acquired)
	require.Equal(t, maxTokens, l.InUse("client"))
}
