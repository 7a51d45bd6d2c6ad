// Package rate implements fixed-window request admission on top of a kv.Store.
//
// A window is read and written back non-atomically, so two concurrent requests
// that observe the same count can both be admitted; a burst straddling a window
// edge can reach twice the nominal rate. Both are accepted.
package rate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alphabot-ai/moltbook/internal/kv"
)

var ErrUnknownAction = errors.New("unknown rate limit action")

type Action string

const (
	ActionRegister Action = "register"
	ActionPost     Action = "post"
	ActionComment  Action = "comment"
	ActionUpvote   Action = "upvote"
	ActionRead     Action = "read"
	ActionFollow   Action = "follow"
)

type Rule struct {
	Requests int
	Window   time.Duration
}

type Rules map[Action]Rule

func DefaultRules() Rules {
	return Rules{
		ActionRegister: {Requests: 10, Window: time.Hour},
		ActionPost:     {Requests: 10, Window: time.Hour},
		ActionComment:  {Requests: 30, Window: time.Hour},
		ActionUpvote:   {Requests: 50, Window: time.Hour},
		ActionRead:     {Requests: 200, Window: time.Minute},
		ActionFollow:   {Requests: 50, Window: time.Hour},
	}
}

type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the whole number of seconds until the window resets, never negative.
func (r Result) RetryAfter(now time.Time) int {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

type window struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"reset_at"`
}

type Limiter struct {
	store kv.Store
	rules Rules
	now   func() time.Time
}

func NewLimiter(store kv.Store, rules Rules) *Limiter {
	return &Limiter{store: store, rules: rules, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func Key(action Action, subject string) string {
	return fmt.Sprintf("ratelimit:%s:%s", action, subject)
}

// Admit counts one request by subject against the action's window.
// Store failures are returned as errors with Allowed=false; callers must not proceed.
func (l *Limiter) Admit(ctx context.Context, action Action, subject string) (Result, error) {
	rule, ok := l.rules[action]
	if !ok || rule.Requests <= 0 || rule.Window <= 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return l.admit(ctx, Key(action, subject), rule)
}

func (l *Limiter) admit(ctx context.Context, key string, rule Rule) (Result, error) {
	now := l.now()

	raw, found, err := l.store.Get(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("read window %s: %w", key, err)
	}
	var w window
	if found {
		if err := json.Unmarshal(raw, &w); err != nil {
			// A corrupt record is treated as absent and overwritten.
			found = false
		}
	}

	resetAt := time.UnixMilli(w.ResetAt)
	if !found || !now.Before(resetAt) {
		w = window{Count: 1, ResetAt: now.Add(rule.Window).UnixMilli()}
		if err := l.put(ctx, key, w, rule.Window); err != nil {
			return Result{}, err
		}
		return Result{Allowed: true, Remaining: rule.Requests - 1, ResetAt: time.UnixMilli(w.ResetAt)}, nil
	}

	if w.Count >= rule.Requests {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	w.Count++
	if err := l.put(ctx, key, w, ceilSeconds(resetAt.Sub(now))); err != nil {
		return Result{}, err
	}
	return Result{Allowed: true, Remaining: rule.Requests - w.Count, ResetAt: resetAt}, nil
}

func (l *Limiter) put(ctx context.Context, key string, w window, ttl time.Duration) error {
	raw, err := json.Marshal(w)
	if err != nil {
		return err
	}
	if err := l.store.Put(ctx, key, raw, ttl); err != nil {
		return fmt.Errorf("write window %s: %w", key, err)
	}
	return nil
}

// ceilSeconds rounds d up to whole seconds, minimum one.
func ceilSeconds(d time.Duration) time.Duration {
	secs := (d + time.Second - 1) / time.Second
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}
