package rate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/moltbook/internal/kv"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time           { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rules Rules) (*Limiter, *kv.Memory, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := kv.NewMemory().WithClock(clock.now)
	return NewLimiter(store, rules).WithClock(clock.now), store, clock
}

func TestWindowCeiling(t *testing.T) {
	l, _, _ := newTestLimiter(Rules{ActionPost: {Requests: 3, Window: time.Hour}})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Admit(ctx, ActionPost, "agent-1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 3-i, res.Remaining)
	}

	res, err := l.Admit(ctx, ActionPost, "agent-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestRejectionKeepsResetAt(t *testing.T) {
	l, _, clock := newTestLimiter(Rules{ActionPost: {Requests: 1, Window: time.Hour}})
	ctx := context.Background()

	first, err := l.Admit(ctx, ActionPost, "a")
	require.NoError(t, err)
	clock.advance(10 * time.Minute)

	second, err := l.Admit(ctx, ActionPost, "a")
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.True(t, first.ResetAt.Equal(second.ResetAt))
	assert.Equal(t, 50*60, second.RetryAfter(clock.now()))
}

func TestWindowRollover(t *testing.T) {
	l, _, clock := newTestLimiter(Rules{ActionComment: {Requests: 2, Window: time.Minute}})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Admit(ctx, ActionComment, "a")
		require.NoError(t, err)
	}
	clock.advance(time.Minute)

	res, err := l.Admit(ctx, ActionComment, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining, "fresh window starts at count 1")
	assert.True(t, res.ResetAt.Equal(clock.now().Add(time.Minute)))
}

func TestRolloverWhenRecordOutlivesWindow(t *testing.T) {
	// A store that ignores TTLs must still roll the window over on reset_at.
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	store := kv.NewMemory()
	l := NewLimiter(store, Rules{ActionRead: {Requests: 1, Window: time.Minute}}).WithClock(clock.now)
	ctx := context.Background()

	_, err := l.Admit(ctx, ActionRead, "ip:1.2.3.4")
	require.NoError(t, err)
	clock.advance(2 * time.Minute)

	res, err := l.Admit(ctx, ActionRead, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestIndependence(t *testing.T) {
	l, _, _ := newTestLimiter(Rules{
		ActionPost:    {Requests: 1, Window: time.Hour},
		ActionComment: {Requests: 1, Window: time.Hour},
	})
	ctx := context.Background()

	res, err := l.Admit(ctx, ActionPost, "a")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = l.Admit(ctx, ActionComment, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "other action-class is unaffected")

	res, err = l.Admit(ctx, ActionPost, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "other subject is unaffected")

	res, err = l.Admit(ctx, ActionPost, "a")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
}

func TestContinuingWindowTTLIsRemainingTime(t *testing.T) {
	l, store, clock := newTestLimiter(Rules{ActionUpvote: {Requests: 10, Window: time.Hour}})
	ctx := context.Background()

	_, err := l.Admit(ctx, ActionUpvote, "a")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, store.TTL(Key(ActionUpvote, "a")))

	clock.advance(20*time.Minute + 500*time.Millisecond)
	_, err = l.Admit(ctx, ActionUpvote, "a")
	require.NoError(t, err)
	// 39m59.5s remaining, rounded up to whole seconds.
	assert.Equal(t, 40*time.Minute, store.TTL(Key(ActionUpvote, "a")))
}

func TestFailClosed(t *testing.T) {
	l, store, _ := newTestLimiter(DefaultRules())
	store.Fail(errors.New("dial tcp: connection refused"))

	res, err := l.Admit(context.Background(), ActionRegister, "10.0.0.1")
	require.Error(t, err)
	assert.ErrorIs(t, err, kv.ErrUnavailable)
	assert.False(t, res.Allowed)
}

func TestFailClosedOnWrite(t *testing.T) {
	l, store, _ := newTestLimiter(DefaultRules())
	ctx := context.Background()
	_, err := l.Admit(ctx, ActionPost, "a")
	require.NoError(t, err)

	failing := &failingPut{Store: store}
	l.store = failing
	res, err := l.Admit(ctx, ActionPost, "a")
	assert.ErrorIs(t, err, kv.ErrUnavailable)
	assert.False(t, res.Allowed)
}

type failingPut struct{ kv.Store }

func (f *failingPut) Put(context.Context, string, []byte, time.Duration) error {
	return fmt.Errorf("%w: timeout", kv.ErrUnavailable)
}

func TestUnknownAction(t *testing.T) {
	l, _, _ := newTestLimiter(Rules{})
	_, err := l.Admit(context.Background(), Action("teleport"), "a")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestCorruptRecordStartsNewWindow(t *testing.T) {
	l, store, _ := newTestLimiter(Rules{ActionPost: {Requests: 2, Window: time.Hour}})
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, Key(ActionPost, "a"), []byte("garbage"), time.Hour))

	res, err := l.Admit(ctx, ActionPost, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}

func TestUpvoteScenario(t *testing.T) {
	l, _, clock := newTestLimiter(DefaultRules())
	ctx := context.Background()

	for i := 1; i <= 50; i++ {
		res, err := l.Admit(ctx, ActionUpvote, "agent-A")
		require.NoError(t, err)
		require.True(t, res.Allowed, "upvote on P%d", i)
		clock.advance(time.Second)
	}
	res, err := l.Admit(ctx, ActionUpvote, "agent-A")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Greater(t, res.RetryAfter(clock.now()), 0)
}

func TestRetryAfter(t *testing.T) {
	now := time.Unix(100, 0)
	assert.Equal(t, 0, Result{ResetAt: now.Add(-time.Second)}.RetryAfter(now))
	assert.Equal(t, 1, Result{ResetAt: now.Add(10 * time.Millisecond)}.RetryAfter(now))
	assert.Equal(t, 60, Result{ResetAt: now.Add(time.Minute)}.RetryAfter(now))
}
