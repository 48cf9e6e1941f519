package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTokenBucket_Take(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(10, 1.0, clock.Now)

	for i := 0; i < 10; i++ {
		allowed, _, _, _ := bucket.take()
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, remaining, _, wait := bucket.take()
	assert.False(t, allowed, "11th request should be denied")
	assert.Equal(t, 0, remaining)
	assert.Equal(t, time.Second, wait)
}

func TestTokenBucket_Refill(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(10, 1.0, clock.Now)
	for i := 0; i < 10; i++ {
		bucket.take()
	}

	clock.Advance(time.Second)

	allowed, _, _, _ := bucket.take()
	assert.True(t, allowed, "one token should have refilled")
	allowed, _, _, _ = bucket.take()
	assert.False(t, allowed)
}

func TestTokenBucket_RefillCapsAtCapacity(t *testing.T) {
	clock := newFakeClock()
	bucket := newTokenBucket(3, 1.0, clock.Now)
	bucket.take()

	clock.Advance(time.Hour)

	_, remaining, resetTime, _ := bucket.take()
	assert.Equal(t, 2, remaining)
	assert.Equal(t, clock.Now().Add(time.Second), resetTime)
}

func TestLimiter_Allow(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		Now:           clock.Now,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/other", "GET")
		require.True(t, allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 10, info.Limit)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/other", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.InDelta(t, 6.0, info.RetryAfter.Seconds(), 0.001)
}

func TestLimiter_AnalyzeEndpoints(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
		Now:             clock.Now,
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/analyze", "POST")
		require.True(t, allowed, "burst request %d should be allowed", i+1)
		assert.Equal(t, 30, info.Limit)
	}
	allowed, _ := limiter.Allow("10.0.0.1", "/analyze", "POST")
	assert.False(t, allowed, "burst exhausted")

	// The stream endpoint has its own bucket.
	allowed, _ = limiter.Allow("10.0.0.1", "/analyze/stream", "POST")
	assert.True(t, allowed)

	// 30 per hour refills one token every two minutes.
	clock.Advance(2*time.Minute + time.Second)
	allowed, _ = limiter.Allow("10.0.0.1", "/analyze", "POST")
	assert.True(t, allowed)
}

func TestLimiter_PerClient(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Now:           newFakeClock().Now,
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("a", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("a", "/x", "GET")
	assert.False(t, allowed)
	allowed, _ = limiter.Allow("b", "/x", "GET")
	assert.True(t, allowed, "other clients are unaffected")
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_WhitelistBlacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"10.0.0.1": true},
		Blacklist:     map[string]bool{"10.0.0.2": true},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("10.0.0.1", "/analyze", "POST")
		assert.True(t, allowed)
	}
	allowed, _ := limiter.Allow("10.0.0.2", "/analyze", "POST")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/analyze", "POST")
		require.True(t, allowed)
	}
}

func TestLimiter_CleanupIdleBuckets(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		IdleTTL:       10 * time.Minute,
		Now:           clock.Now,
	})
	defer limiter.Stop()

	limiter.Allow("old", "/x", "GET")
	clock.Advance(11 * time.Minute)
	limiter.Allow("fresh", "/x", "GET")
	require.Equal(t, 2, limiter.bucketCount())

	limiter.cleanupBuckets()
	assert.Equal(t, 1, limiter.bucketCount())
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Hour,
		Now:           newFakeClock().Now,
	})
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("shared", "/x", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestLimiter_StopIdempotent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Minute})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/analyze", Method: "POST", Limit: 30},
		{Path: "/admin/", Method: "GET", Limit: 5},
	}

	tests := []struct {
		path, method string
		wantLimit    int
		wantNil      bool
	}{
		{"/analyze", "POST", 30, false},
		{"/analyze", "GET", 0, true},
		{"/admin/stats", "GET", 5, false},
		{"/health", "GET", 0, false},
		{"/unknown", "GET", 0, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.path), func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_ANALYZE_LIMIT", "12")
	t.Setenv("RATE_LIMIT_ANALYZE_BURST", "2")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")

	cfg := LoadConfig()
	require.True(t, cfg.Enabled)
	require.Len(t, cfg.EndpointConfigs, 2)
	assert.Equal(t, 12, cfg.EndpointConfigs[0].Limit)
	assert.Equal(t, 2, cfg.EndpointConfigs[1].Burst)
	assert.Equal(t, time.Hour, cfg.EndpointConfigs[0].Window)
	assert.True(t, cfg.Whitelist["10.0.0.2"])
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
