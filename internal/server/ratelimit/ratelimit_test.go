package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(config *Config) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := NewLimiter(config)
	l.now = clock.now
	return l, clock
}

func TestBucket_AllowAndRefill(t *testing.T) {
	start := time.Now()
	b := newBucket(10, 1.0)

	for i := 0; i < 10; i++ {
		if !b.allow(start) {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if b.allow(start) {
		t.Error("Expected 11th request to be denied")
	}

	later := start.Add(1100 * time.Millisecond)
	if !b.allow(later) {
		t.Error("Expected request to be allowed after refill")
	}
	if b.allow(later) {
		t.Error("Expected request to be denied after consuming refilled token")
	}
}

func TestBucket_Status(t *testing.T) {
	now := time.Now()
	b := newBucket(10, 1.0)
	for i := 0; i < 5; i++ {
		b.allow(now)
	}

	remaining, resetTime := b.status(now)
	if remaining != 5 {
		t.Errorf("Expected 5 remaining tokens, got %d", remaining)
	}
	if want := now.Add(5 * time.Second); !resetTime.Equal(want) {
		t.Errorf("Expected reset at %v, got %v", want, resetTime)
	}
}

func TestLimiter_DefaultLimit(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/other", "GET")
		if !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/other", "GET")
	if allowed {
		t.Error("Expected 11th request to be denied")
	}
	if info.RetryAfter <= 0 {
		t.Error("Expected a positive RetryAfter on denial")
	}
}

func TestLimiter_AnalyzeEndpoint(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1", "/analyze", "POST"); !allowed {
			t.Fatalf("Expected burst request %d to be allowed", i+1)
		}
	}
	allowed, info := limiter.Allow("10.0.0.1", "/analyze", "POST")
	if allowed {
		t.Fatal("Expected request beyond burst to be denied")
	}
	if info.Limit != 20 {
		t.Errorf("Expected limit 20, got %d", info.Limit)
	}

	// 20/hour refills one token every 3 minutes
	clock.advance(3 * time.Minute)
	if allowed, _ := limiter.Allow("10.0.0.1", "/analyze", "POST"); !allowed {
		t.Error("Expected request to be allowed after refill")
	}

	// other clients and endpoints have their own buckets
	if allowed, _ := limiter.Allow("10.0.0.2", "/analyze", "POST"); !allowed {
		t.Error("Expected a different client to be allowed")
	}
	if allowed, _ := limiter.Allow("10.0.0.1", "/competitors", "POST"); !allowed {
		t.Error("Expected a different endpoint to be allowed")
	}
}

func TestLimiter_HealthAndPreflightUnlimited(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		if allowed, _ := limiter.Allow("127.0.0.1", "/health", "GET"); !allowed {
			t.Fatal("Health check should be unlimited")
		}
		if allowed, _ := limiter.Allow("127.0.0.1", "/analyze", "OPTIONS"); !allowed {
			t.Fatal("Preflight should be unlimited")
		}
	}
}

func TestLimiter_WhitelistBlacklistDisabled(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		Whitelist:     map[string]bool{"10.0.0.9": true},
		Blacklist:     map[string]bool{"6.6.6.6": true},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := limiter.Allow("10.0.0.9", "/x", "GET"); !allowed {
			t.Fatal("Whitelisted client should always be allowed")
		}
	}
	if allowed, _ := limiter.Allow("6.6.6.6", "/x", "GET"); allowed {
		t.Error("Blacklisted client should be denied")
	}

	disabled := NewLimiter(&Config{Enabled: false})
	defer disabled.Stop()
	for i := 0; i < 5; i++ {
		if allowed, _ := disabled.Allow("1.2.3.4", "/analyze", "POST"); !allowed {
			t.Fatal("Disabled limiter should allow everything")
		}
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter, _ := newTestLimiter(&Config{Enabled: true, DefaultLimit: 100, DefaultWindow: time.Hour})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow("127.0.0.1", "/x", "GET"); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 100 {
		t.Errorf("Expected exactly 100 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter, clock := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute})
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		limiter.Allow(fmt.Sprintf("10.0.0.%d", i), "/x", "GET")
	}
	clock.advance(2 * time.Hour)
	limiter.Allow("10.0.0.99", "/x", "GET")

	limiter.cleanupBuckets(clock.now().Add(-time.Hour))
	if n := limiter.bucketCount(); n != 1 {
		t.Errorf("Expected 1 bucket after cleanup, got %d", n)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	limiter.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/analyze", Method: "POST", Limit: 20},
		{Path: "/reports/", Method: "GET", Limit: 5},
	}

	tests := []struct {
		path, method string
		wantLimit    int
		wantNil      bool
	}{
		{path: "/analyze", method: "POST", wantLimit: 20},
		{path: "/analyze", method: "GET", wantNil: true},
		{path: "/reports/abc", method: "GET", wantLimit: 5},
		{path: "/health", method: "GET", wantLimit: 0},
		{path: "/unknown", method: "POST", wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Expected no match, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Expected a match")
			}
			if got.Limit != tt.wantLimit {
				t.Errorf("Expected limit %d, got %d", tt.wantLimit, got.Limit)
			}
		})
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")
	t.Setenv("RATE_LIMIT_ANALYZE_LIMIT", "5")

	cfg := LoadConfig()
	if cfg.DefaultLimit != 50 {
		t.Errorf("Expected default limit 50, got %d", cfg.DefaultLimit)
	}
	if !cfg.Whitelist["10.0.0.2"] {
		t.Error("Expected 10.0.0.2 to be whitelisted")
	}
	for _, ec := range cfg.EndpointConfigs {
		if ec.Path == "/analyze" && ec.Limit != 5 {
			t.Errorf("Expected /analyze limit 5, got %d", ec.Limit)
		}
		if ec.Path == "/competitors" && ec.Limit != 60 {
			t.Errorf("Expected /competitors limit unchanged, got %d", ec.Limit)
		}
	}

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	if LoadConfig().Enabled {
		t.Error("Expected rate limiting disabled")
	}
}
