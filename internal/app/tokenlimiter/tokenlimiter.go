package tokenlimiter

import "sync"

// Limiter caps the number of concurrently held tokens per key.
// Keys whose tokens are all returned are forgotten.
type Limiter struct {
	maxTokens int

	m  map[string]int
	mu *sync.Mutex
}

func New(maxTokens int) *Limiter {
	return &Limiter{
		maxTokens: maxTokens,
		m:         make(map[string]int),
		mu:        new(sync.Mutex),
	}
}

// Acquire takes a token for key. It returns false when the key already
// holds maxTokens tokens.
func (l *Limiter) Acquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.m[key] >= l.maxTokens {
		return false
	}
	l.m[key]++
	return true
}

// Release returns a token previously taken by Acquire.
func (l *Limiter) Release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.m[key]
	if !ok {
		return
	}
	if n <= 1 {
		delete(l.m, key)
		return
	}
	l.m[key] = n - 1
}

// InUse returns the number of tokens currently held for key.
func (l *Limiter) InUse(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.m[key]
}
