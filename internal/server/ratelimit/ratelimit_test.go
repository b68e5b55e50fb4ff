package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
	assert.True(t, info.ResetTime.After(time.Now()))
}

func TestLimiter_Refill(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled: true,
		Rules:   []Rule{{Pattern: "GET /fast", Limit: 10, Window: time.Second, Burst: 1}},
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("c", "/fast", "GET")
	require.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/fast", "GET")
	require.False(t, allowed)

	time.Sleep(150 * time.Millisecond)

	allowed, _ = limiter.Allow("c", "/fast", "GET")
	assert.True(t, allowed)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("a", "/x", "GET")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("a", "/x", "GET")
	assert.False(t, allowed)
	allowed, _ = limiter.Allow("b", "/x", "GET")
	assert.True(t, allowed)
}

func TestLimiter_TrustedClient(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Trusted:       map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_BlockedClient(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blocked:       map[string]bool{"10.0.0.1": true},
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("10.0.0.1", "/test", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false, DefaultLimit: 1})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, _ := limiter.Allow("127.0.0.1", "/test", "GET")
		require.True(t, allowed)
	}
	assert.Zero(t, limiter.Size())
}

func TestLimiter_AIRoutesAreTighter(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		Rules:           DefaultRules(),
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := limiter.Allow("c", "/api/tailor", "POST")
		require.True(t, allowed)
		assert.Equal(t, 30, info.Limit)
	}
	allowed, _ := limiter.Allow("c", "/api/tailor", "POST")
	assert.False(t, allowed)

	allowed, info := limiter.Allow("c", "/api/resume", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_PrefixRoutesShareBucket(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled: true,
		Rules:   []Rule{{Pattern: "POST /api/export/", Limit: 2, Window: time.Hour, Burst: 2}},
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("c", "/api/export/pdf", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/api/export/docx", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("c", "/api/export/json", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 1, limiter.Size())
}

func TestLimiter_ExemptRoutes(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, Exempt: DefaultExempt()})
	defer limiter.Stop()

	for i := 0; i < 20; i++ {
		allowed, _ := limiter.Allow("c", "/health", "GET")
		require.True(t, allowed)
		allowed, _ = limiter.Allow("c", "/metrics", "GET")
		require.True(t, allowed)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
	defer limiter.Stop()

	var allowedCount atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("127.0.0.1", "/test", "GET"); ok {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), allowedCount.Load())
}

func TestLimiter_Cleanup(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/test", "GET")
	}
	require.Equal(t, 10, limiter.Size())

	limiter.cleanup(time.Now().Add(-time.Hour))
	assert.Equal(t, 10, limiter.Size())

	limiter.cleanup(time.Now().Add(time.Second))
	assert.Zero(t, limiter.Size())
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Minute, CleanupInterval: time.Millisecond})
	limiter.Stop()
	assert.NotPanics(t, limiter.Stop)
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	allowed, info := limiter.Allow("127.0.0.1", "/test", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1000, info.Limit)
}

func TestConfig_Match(t *testing.T) {
	cfg := &Config{
		Exempt: DefaultExempt(),
		Rules: []Rule{
			{Pattern: "POST /api/export/", Limit: 60, Window: time.Hour},
			{Pattern: "POST /api/export/pdf/", Limit: 5, Window: time.Hour},
			{Pattern: "POST /api/tailor", Limit: 30, Window: time.Hour},
		},
	}

	tests := []struct {
		method, path string
		want         string
		ok           bool
	}{
		{"POST", "/api/tailor", "POST /api/tailor", true},
		{"GET", "/api/tailor", "", false},
		{"POST", "/api/tailor/extra", "", false},
		{"POST", "/api/export/docx", "POST /api/export/", true},
		{"POST", "/api/export/pdf/a4", "POST /api/export/pdf/", true},
		{"GET", "/health", "GET /health", true},
		{"POST", "/health", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rule, ok := cfg.Match(tt.method, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, rule.Pattern)
		})
	}

	rule, _ := cfg.Match("GET", "/metrics")
	assert.Zero(t, rule.Limit)
}

func TestParseRule(t *testing.T) {
	r, err := parseRule("post /api/tailor=10/1h+2")
	require.NoError(t, err)
	assert.Equal(t, Rule{Pattern: "POST /api/tailor", Limit: 10, Window: time.Hour, Burst: 2}, r)

	r, err = parseRule("GET /api/resume=0/1m")
	require.NoError(t, err)
	assert.Zero(t, r.Limit)
	assert.Zero(t, r.Burst)

	for _, bad := range []string{"", "/api/tailor=1/1h", "POST api=1/1h", "POST /x=1", "POST /x=a/1h", "POST /x=1/soon", "POST /x=1/1h+b"} {
		_, err := parseRule(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT": "42",
		"RATE_LIMIT_TRUSTED":       "1.1.1.1, 2.2.2.2",
		"RATE_LIMIT_RULES":         "POST /api/tailor=3/1m;GET /api/resume=100/1m+10;garbage",
	}
	cfg := loadConfig(func(k string) string { return env[k] })

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, time.Minute, cfg.DefaultWindow)
	assert.True(t, cfg.Trusted["2.2.2.2"])
	assert.Empty(t, cfg.Blocked)
	assert.Len(t, cfg.Rules, len(DefaultRules())+1)

	rule, ok := cfg.Match("POST", "/api/tailor")
	require.True(t, ok)
	assert.Equal(t, 3, rule.Limit)
	rule, ok = cfg.Match("GET", "/api/resume")
	require.True(t, ok)
	assert.Equal(t, 10, rule.Burst)

	env["RATE_LIMIT_ENABLED"] = "false"
	assert.False(t, loadConfig(func(k string) string { return env[k] }).Enabled)
}
