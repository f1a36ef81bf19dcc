package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return NewLoginLimiter(rdb, cfg), mr
}

func TestThrottleAfterMaxFailures(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Check(ctx, "13000000000", ""); err != nil {
			t.Fatalf("attempt %d throttled early: %v", i, err)
		}
		if err := l.RecordFailure(ctx, "13000000000", ""); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	if err := l.Check(ctx, "13000000000", ""); !errors.Is(err, ErrThrottled) {
		t.Fatalf("err = %v, want ErrThrottled", err)
	}
	if err := l.Check(ctx, "13000000001", ""); err != nil {
		t.Fatalf("other identifiers must not be throttled: %v", err)
	}
}

func TestWindowExpires(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.RecordFailure(ctx, "13000000000", ""); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if err := l.Check(ctx, "13000000000", ""); !errors.Is(err, ErrThrottled) {
		t.Fatalf("err = %v, want ErrThrottled", err)
	}

	mr.FastForward(61 * time.Second)
	if err := l.Check(ctx, "13000000000", ""); err != nil {
		t.Fatalf("window should have expired: %v", err)
	}
}

func TestResetClearsIdentifierOnly(t *testing.T) {
	l, _ := newLimiterTest(t, Config{MaxAttempts: 2, Window: time.Minute, EnableIPThrottle: true})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.RecordFailure(ctx, "13000000000", "10.0.0.1"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}
	if n, _ := l.Attempts(ctx, "13000000000"); n != 2 {
		t.Fatalf("attempts = %d, want 2", n)
	}

	if err := l.Reset(ctx, "13000000000"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := l.Attempts(ctx, "13000000000"); n != 0 {
		t.Fatalf("attempts after reset = %d", n)
	}
	if err := l.Check(ctx, "13000000000", "10.0.0.1"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("ip budget must survive reset, err = %v", err)
	}
	if err := l.Check(ctx, "13000000000", "10.0.0.2"); err != nil {
		t.Fatalf("fresh ip should pass: %v", err)
	}
}

func TestRedisDown(t *testing.T) {
	l, mr := newLimiterTest(t, Config{MaxAttempts: 1, Window: time.Minute})
	mr.Close()

	if err := l.Check(context.Background(), "13000000000", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("err = %v, want ErrRedisUnavailable", err)
	}
}
