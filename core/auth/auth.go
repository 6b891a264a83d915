package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/outlinehq/outline/core/llmerr"
	"github.com/outlinehq/outline/providers/observability"
)

// State tracks where a coordinator stands in the key lifecycle.
type State string

const (
	// StateActive means the current key is assumed valid.
	StateActive State = "active"
	// StateRefreshing means a refresh is in flight; concurrent callers wait
	// for it instead of triggering their own.
	StateRefreshing State = "refreshing"
	// StateExhausted means a refreshed key was also rejected. The coordinator
	// fails fast until the key is replaced explicitly.
	StateExhausted State = "exhausted"
)

// ErrKeyExhausted is returned when a refreshed key is rejected again or when
// the coordinator is already exhausted.
var ErrKeyExhausted = errors.New("auth: refreshed key rejected, giving up")

// RefreshFunc exchanges a rejected key for a new one. It is invoked at most
// once per failed attempt, never concurrently.
type RefreshFunc func(ctx context.Context, oldKey string) (string, error)

// Attempt performs one keyed operation. Returning an error for which
// llmerr.IsAuth holds triggers the refresh path.
type Attempt func(ctx context.Context, key string) error

// RefreshCoordinator serializes API-key refresh across concurrent requests.
// On an auth failure it refreshes the key once and retries the attempt once;
// a second auth failure marks the coordinator exhausted.
type RefreshCoordinator struct {
	mu      sync.Mutex
	key     string
	state   State
	refresh RefreshFunc
	waiting chan struct{}
}

// NewRefreshCoordinator builds a coordinator around the initial key. A nil
// refresh function disables the retry path: auth failures surface directly.
func NewRefreshCoordinator(key string, refresh RefreshFunc) *RefreshCoordinator {
	return &RefreshCoordinator{
		key:     key,
		state:   StateActive,
		refresh: refresh,
	}
}

// Key returns the current key.
func (c *RefreshCoordinator) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// State returns the current lifecycle state.
func (c *RefreshCoordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetKey replaces the key and resets the coordinator to active.
func (c *RefreshCoordinator) SetKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key = key
	c.state = StateActive
}

// Do runs the attempt with the current key. When the attempt fails with an
// auth error and a refresh function is configured, the key is refreshed and
// the attempt retried exactly once with the new key. Any further auth
// failure, or a refresh failure, exhausts the coordinator.
func (c *RefreshCoordinator) Do(ctx context.Context, attempt Attempt) error {
	key, err := c.currentKey(ctx)
	if err != nil {
		return err
	}

	err = attempt(ctx, key)
	if err == nil || !llmerr.IsAuth(err) || c.refresh == nil {
		return err
	}

	newKey, refreshErr := c.refreshKey(ctx, key, err)
	if refreshErr != nil {
		return refreshErr
	}

	retryErr := attempt(ctx, newKey)
	if retryErr != nil && llmerr.IsAuth(retryErr) {
		c.exhaust()
		return fmt.Errorf("%w: %w", ErrKeyExhausted, retryErr)
	}
	return retryErr
}

// currentKey returns the active key, waiting out an in-flight refresh first.
func (c *RefreshCoordinator) currentKey(ctx context.Context) (string, error) {
	for {
		c.mu.Lock()
		switch c.state {
		case StateExhausted:
			c.mu.Unlock()
			return "", ErrKeyExhausted
		case StateRefreshing:
			wait := c.waiting
			c.mu.Unlock()
			select {
			case <-wait:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		default:
			key := c.key
			c.mu.Unlock()
			return key, nil
		}
	}
}

// refreshKey runs the refresh function for a key that was just rejected.
// Only the first caller holding the stale key performs the exchange; callers
// that raced in after a successful refresh get the new key without a second
// refresh round-trip.
func (c *RefreshCoordinator) refreshKey(ctx context.Context, staleKey string, cause error) (string, error) {
	c.mu.Lock()
	if c.state == StateExhausted {
		c.mu.Unlock()
		return "", ErrKeyExhausted
	}
	if c.state == StateActive && c.key != staleKey {
		key := c.key
		c.mu.Unlock()
		return key, nil
	}
	if c.state == StateRefreshing {
		wait := c.waiting
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return c.currentKey(ctx)
	}

	c.state = StateRefreshing
	c.waiting = make(chan struct{})
	done := c.waiting
	c.mu.Unlock()

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventKeyRefresh)
	}

	newKey, err := c.refresh(ctx, staleKey)

	c.mu.Lock()
	close(done)
	c.waiting = nil
	if err != nil {
		c.state = StateExhausted
		c.mu.Unlock()
		return "", fmt.Errorf("auth: key refresh failed after %v: %w", cause, err)
	}
	c.key = newKey
	c.state = StateActive
	c.mu.Unlock()
	return newKey, nil
}

func (c *RefreshCoordinator) exhaust() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateExhausted
}
