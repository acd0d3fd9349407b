package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/name-similarity-service/internal/domain"
)

var errUpstream = errors.New("upstream failed")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(t *testing.T, cfg Config, onChange StateChangeFunc) (*Breaker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := NewBreaker("test", cfg, onChange)
	b.now = clock.Now
	return b, clock
}

func TestNewBreaker_Defaults(t *testing.T) {
	t.Parallel()

	b := NewBreaker("x", Config{}, nil)
	assert.Equal(t, 5, b.cfg.ConsecutiveThreshold)
	assert.Equal(t, 60*time.Second, b.cfg.Cooldown)
	assert.Equal(t, 1, b.cfg.HalfOpenProbes)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "x", b.Name())
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(t, Config{ConsecutiveThreshold: 3, Cooldown: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.Record(errUpstream)
	}
	assert.Equal(t, StateClosed, b.State())

	// A success resets the run.
	require.NoError(t, b.Allow())
	b.Record(nil)
	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.Record(errUpstream)
	}
	assert.Equal(t, StateClosed, b.State())

	require.NoError(t, b.Allow())
	b.Record(errUpstream)
	assert.Equal(t, StateOpen, b.State())

	err := b.Allow()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCircuitOpen))
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	t.Parallel()

	t.Run("successful probe closes", func(t *testing.T) {
		t.Parallel()
		b, clock := newTestBreaker(t, Config{ConsecutiveThreshold: 1, Cooldown: time.Minute}, nil)

		require.NoError(t, b.Allow())
		b.Record(errUpstream)
		require.ErrorIs(t, b.Allow(), domain.ErrCircuitOpen)

		clock.Advance(time.Minute)
		assert.Equal(t, StateHalfOpen, b.State())

		require.NoError(t, b.Allow())
		// Only one probe is admitted.
		require.ErrorIs(t, b.Allow(), domain.ErrCircuitOpen)

		b.Record(nil)
		assert.Equal(t, StateClosed, b.State())
		require.NoError(t, b.Allow())
		b.Record(nil)
	})

	t.Run("failed probe reopens", func(t *testing.T) {
		t.Parallel()
		b, clock := newTestBreaker(t, Config{ConsecutiveThreshold: 1, Cooldown: time.Minute}, nil)

		require.NoError(t, b.Allow())
		b.Record(errUpstream)
		clock.Advance(time.Minute)

		require.NoError(t, b.Allow())
		b.Record(errUpstream)
		assert.Equal(t, StateOpen, b.State())
		require.ErrorIs(t, b.Allow(), domain.ErrCircuitOpen)

		clock.Advance(30 * time.Second)
		assert.Equal(t, StateOpen, b.State())
	})
}

func TestBreaker_StateChangeCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var transitions []string
	onChange := func(name string, from, to State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, name+":"+from.String()+"->"+to.String())
	}

	b, clock := newTestBreaker(t, Config{ConsecutiveThreshold: 1, Cooldown: time.Second}, onChange)

	require.NoError(t, b.Allow())
	b.Record(errUpstream)
	clock.Advance(time.Second)
	require.NoError(t, b.Allow())
	b.Record(nil)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"test:closed->open",
		"test:open->half_open",
		"test:half_open->closed",
	}, transitions)
}

func TestBreaker_Execute(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(t, Config{ConsecutiveThreshold: 2, Cooldown: time.Minute}, nil)
	ctx := context.Background()

	calls := 0
	fail := func(context.Context) error {
		calls++
		return errUpstream
	}

	assert.ErrorIs(t, b.Execute(ctx, fail), errUpstream)
	assert.ErrorIs(t, b.Execute(ctx, fail), errUpstream)
	assert.ErrorIs(t, b.Execute(ctx, fail), domain.ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestBreaker_ExecuteIgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(t, Config{ConsecutiveThreshold: 1, Cooldown: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_Reset(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(t, Config{ConsecutiveThreshold: 1, Cooldown: time.Hour}, nil)
	require.NoError(t, b.Allow())
	b.Record(errUpstream)
	assert.Equal(t, StateOpen, b.State())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half_open", StateHalfOpen.String())
	assert.Equal(t, "state(9)", State(9).String())
}
