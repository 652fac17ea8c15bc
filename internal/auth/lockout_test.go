package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *RedisAttemptStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAttemptStore(client, time.Hour)
}

func TestAttemptStoreIncrementAndClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.IncrementFailure(ctx, "maria")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Fatalf("count = %d, want %d", got, want)
		}
	}

	attempt, err := store.Attempts(ctx, "maria")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if attempt.Count != 3 {
		t.Fatalf("count = %d", attempt.Count)
	}
	if attempt.LastAttemptAt.IsZero() {
		t.Fatal("last attempt timestamp missing")
	}

	if err := store.Clear(ctx, "maria"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	attempt, err = store.Attempts(ctx, "maria")
	if err != nil {
		t.Fatalf("attempts after clear: %v", err)
	}
	if attempt.Count != 0 {
		t.Fatalf("count after clear = %d", attempt.Count)
	}
}

func TestAttemptStoreFoldsUsernames(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.IncrementFailure(ctx, "Maria"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if _, err := store.IncrementFailure(ctx, " maria "); err != nil {
		t.Fatalf("increment: %v", err)
	}
	attempt, err := store.Attempts(ctx, "MARIA")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if attempt.Count != 2 {
		t.Fatalf("case variants must share one counter, count = %d", attempt.Count)
	}
}

func TestAttemptStoreConcurrentIncrements(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.IncrementFailure(ctx, "shared"); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()

	attempt, err := store.Attempts(ctx, "shared")
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	if attempt.Count != 10 {
		t.Fatalf("count = %d, want 10", attempt.Count)
	}
}

func TestGuardThreshold(t *testing.T) {
	guard := NewGuard(newTestStore(t), 3)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		count, lockout, err := guard.RecordFailure(ctx, "maria")
		if err != nil {
			t.Fatalf("record failure: %v", err)
		}
		if lockout {
			t.Fatalf("lockout after %d failures", i)
		}
		if remaining := guard.Remaining(count); remaining != 3-i {
			t.Fatalf("remaining = %d after %d failures", remaining, i)
		}
	}

	_, lockout, err := guard.RecordFailure(ctx, "maria")
	if err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if !lockout {
		t.Fatal("third failure must trigger lockout")
	}

	suppressed, err := guard.Suppressed(ctx, "maria")
	if err != nil {
		t.Fatalf("suppressed: %v", err)
	}
	if !suppressed {
		t.Fatal("username must be suppressed after lockout")
	}
}

func TestGuardSuccessResetsCounter(t *testing.T) {
	guard := NewGuard(newTestStore(t), 3)
	ctx := context.Background()

	for range 2 {
		if _, _, err := guard.RecordFailure(ctx, "maria"); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}
	if err := guard.RecordSuccess(ctx, "maria"); err != nil {
		t.Fatalf("record success: %v", err)
	}

	count, lockout, err := guard.RecordFailure(ctx, "maria")
	if err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if count != 1 || lockout {
		t.Fatalf("counter did not reset: count=%d lockout=%v", count, lockout)
	}
}
