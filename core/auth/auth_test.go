package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/outlinehq/outline/core/llmerr"
)

// authFailure builds an error that the coordinator recognises as an auth
// rejection.
func authFailure() error {
	return llmerr.NewProviderError("testprovider", 401, "invalid api key")
}

// TestDo_SuccessNoRefresh verifies the happy path: one attempt, no refresh.
func TestDo_SuccessNoRefresh(t *testing.T) {
	refreshCalls := 0
	coordinator := NewRefreshCoordinator("key-1", func(ctx context.Context, old string) (string, error) {
		refreshCalls++
		return "key-2", nil
	})

	attempts := 0
	err := coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
		attempts++
		if key != "key-1" {
			t.Errorf("expected key-1, got %s", key)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 || refreshCalls != 0 {
		t.Errorf("expected 1 attempt and 0 refreshes, got %d and %d", attempts, refreshCalls)
	}
	if coordinator.State() != StateActive {
		t.Errorf("expected active state, got %s", coordinator.State())
	}
}

// TestDo_AuthFailureRefreshesOnceThenSucceeds verifies the retry path: the
// rejected key is exchanged and the attempt repeated exactly once.
func TestDo_AuthFailureRefreshesOnceThenSucceeds(t *testing.T) {
	coordinator := NewRefreshCoordinator("stale", func(ctx context.Context, old string) (string, error) {
		if old != "stale" {
			t.Errorf("expected stale key passed to refresh, got %s", old)
		}
		return "fresh", nil
	})

	var keys []string
	err := coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
		keys = append(keys, key)
		if key == "stale" {
			return authFailure()
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "stale" || keys[1] != "fresh" {
		t.Fatalf("expected attempts [stale fresh], got %v", keys)
	}
	if coordinator.Key() != "fresh" {
		t.Errorf("expected coordinator to hold the fresh key, got %s", coordinator.Key())
	}
}

// TestDo_SecondAuthFailureExhausts verifies that a rejected refreshed key
// surfaces the failure, marks the coordinator exhausted, and never triggers
// a third attempt.
func TestDo_SecondAuthFailureExhausts(t *testing.T) {
	coordinator := NewRefreshCoordinator("k1", func(ctx context.Context, old string) (string, error) {
		return "k2", nil
	})

	attempts := 0
	err := coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
		attempts++
		return authFailure()
	})

	if attempts != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", attempts)
	}
	if !errors.Is(err, ErrKeyExhausted) {
		t.Fatalf("expected ErrKeyExhausted, got %v", err)
	}
	if coordinator.State() != StateExhausted {
		t.Errorf("expected exhausted state, got %s", coordinator.State())
	}

	// Exhausted coordinators fail fast without calling the attempt.
	err = coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
		t.Error("attempt must not run while exhausted")
		return nil
	})
	if !errors.Is(err, ErrKeyExhausted) {
		t.Errorf("expected ErrKeyExhausted, got %v", err)
	}
}

// TestDo_RefreshFailureExhausts verifies that a failed key exchange surfaces
// both causes and exhausts the coordinator.
func TestDo_RefreshFailureExhausts(t *testing.T) {
	exchangeErr := errors.New("token endpoint down")
	coordinator := NewRefreshCoordinator("k1", func(ctx context.Context, old string) (string, error) {
		return "", exchangeErr
	})

	err := coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
		return authFailure()
	})

	if !errors.Is(err, exchangeErr) {
		t.Fatalf("expected the exchange error in the chain, got %v", err)
	}
	if coordinator.State() != StateExhausted {
		t.Errorf("expected exhausted state, got %s", coordinator.State())
	}
}

// TestDo_NonAuthErrorPassesThrough verifies that transport errors are never
// retried.
func TestDo_NonAuthErrorPassesThrough(t *testing.T) {
	refreshCalls := 0
	coordinator := NewRefreshCoordinator("k1", func(ctx context.Context, old string) (string, error) {
		refreshCalls++
		return "k2", nil
	})

	transportErr := errors.New("connection refused")
	err := coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
		return transportErr
	})

	if !errors.Is(err, transportErr) {
		t.Fatalf("expected the transport error, got %v", err)
	}
	if refreshCalls != 0 {
		t.Errorf("expected no refresh for non-auth failure, got %d", refreshCalls)
	}
}

// TestDo_NilRefreshDisablesRetry verifies auth failures surface directly
// when no refresh function is configured.
func TestDo_NilRefreshDisablesRetry(t *testing.T) {
	coordinator := NewRefreshCoordinator("k1", nil)

	attempts := 0
	err := coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
		attempts++
		return authFailure()
	})

	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
	if !llmerr.IsAuth(err) {
		t.Errorf("expected the auth error back, got %v", err)
	}
}

// TestDo_ConcurrentCallersShareOneRefresh verifies that simultaneous auth
// failures against the same stale key trigger a single key exchange.
func TestDo_ConcurrentCallersShareOneRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	coordinator := NewRefreshCoordinator("stale", func(ctx context.Context, old string) (string, error) {
		refreshCalls.Add(1)
		return "fresh", nil
	})

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
				if key == "stale" {
					return authFailure()
				}
				return nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if refreshCalls.Load() != 1 {
		t.Errorf("expected exactly 1 refresh across %d callers, got %d", callers, refreshCalls.Load())
	}
}

// TestSetKey_ResetsExhausted verifies that explicitly replacing the key
// reactivates an exhausted coordinator.
func TestSetKey_ResetsExhausted(t *testing.T) {
	coordinator := NewRefreshCoordinator("k1", func(ctx context.Context, old string) (string, error) {
		return "k2", nil
	})
	_ = coordinator.Do(context.Background(), func(ctx context.Context, key string) error {
		return authFailure()
	})
	if coordinator.State() != StateExhausted {
		t.Fatalf("precondition failed: expected exhausted state")
	}

	coordinator.SetKey("k3")
	if coordinator.State() != StateActive {
		t.Errorf("expected active after SetKey, got %s", coordinator.State())
	}
	if coordinator.Key() != "k3" {
		t.Errorf("expected k3, got %s", coordinator.Key())
	}
}
