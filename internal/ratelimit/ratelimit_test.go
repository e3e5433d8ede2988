package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryFixedWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(3, time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := m.Allow(ctx, "1.2.3.4")
		if err != nil || !ok {
			t.Fatalf("hit %d should pass: %v %v", i, ok, err)
		}
	}

	ok, retry, _ := m.Allow(ctx, "1.2.3.4")
	if ok {
		t.Fatal("4th hit should be limited")
	}
	if retry != time.Minute {
		t.Fatalf("retryAfter = %v, want 1m", retry)
	}

	if ok, _, _ := m.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatal("other keys have their own window")
	}

	now = now.Add(time.Minute + time.Second)
	if ok, _, _ := m.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatal("window should reset")
	}
}

func TestMemoryConcurrent(t *testing.T) {
	m := NewMemory(50, time.Hour)
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _, _ := m.Allow(context.Background(), "k"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Fatalf("allowed = %d, want 50", allowed)
	}
}

func TestMemorySweep(t *testing.T) {
	now := time.Now()
	m := NewMemory(1, time.Second)
	m.now = func() time.Time { return now }

	_, _, _ = m.Allow(context.Background(), "old")
	now = now.Add(2 * time.Second)
	m.sweep(now)

	if len(m.clients) != 0 {
		t.Fatalf("expired bucket not swept: %d left", len(m.clients))
	}
}

func TestRedisFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedis(rdb, "login:", 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "10.0.0.1")
		if err != nil || !ok {
			t.Fatalf("hit %d: %v %v", i, ok, err)
		}
	}

	ok, retry, err := l.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("3rd hit should be limited")
	}
	if retry <= 0 || retry > time.Minute {
		t.Fatalf("retryAfter = %v", retry)
	}

	if ttl := mr.TTL("login:10.0.0.1"); ttl != time.Minute {
		t.Fatalf("key ttl = %v, want 1m", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if ok, _, _ := l.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatal("window should reset after expiry")
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	if _, _, err := NewRedis(rdb, "login:", 1, time.Minute).Allow(context.Background(), "k"); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
