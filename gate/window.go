package gate

import (
	"time"

	"github.com/codetesla51/gatez/store"
)

// advance runs one attempt through the gate, mutating st in place. The bool
// reports whether st changed and needs to be persisted.
//
// Order matters here: an active cooldown denies before anything else and
// leaves the state untouched, an elapsed cooldown clears the whole window,
// and a denial at the cap starts the cooldown without recording the attempt.
func advance(st *store.State, cfg Config, now time.Time) (Result, bool) {
	n := now.UnixNano()

	if st.CooldownUntil != 0 && n < st.CooldownUntil {
		return Result{
			Allowed:    false,
			Limit:      cfg.MaxAttempts,
			Remaining:  0,
			RetryAfter: time.Duration(st.CooldownUntil - n),
		}, false
	}

	if st.CooldownUntil != 0 {
		// Cooldown served; the attempt list predates it and is dead
		st.CooldownUntil = 0
		st.Attempts = st.Attempts[:0]
	}

	// Keep only attempts still inside the window
	windowStart := n - cfg.Window.Nanoseconds()
	valid := st.Attempts[:0]
	for _, ts := range st.Attempts {
		if ts > windowStart {
			valid = append(valid, ts)
		}
	}
	st.Attempts = valid

	if len(st.Attempts) >= cfg.MaxAttempts {
		// The denied attempt itself is not recorded
		st.CooldownUntil = n + cfg.Cooldown.Nanoseconds()
		return Result{
			Allowed:    false,
			Limit:      cfg.MaxAttempts,
			Remaining:  0,
			RetryAfter: cfg.Cooldown,
		}, true
	}

	st.Attempts = append(st.Attempts, n)
	return Result{
		Allowed:    true,
		Limit:      cfg.MaxAttempts,
		Remaining:  cfg.MaxAttempts - len(st.Attempts),
		RetryAfter: 0,
	}, true
}

// peek computes what advance would decide at now without mutating st. When
// the window is at the cap but no cooldown has been triggered yet, it
// reports how long until the oldest in-window attempt ages out.
func peek(st *store.State, cfg Config, now time.Time) Result {
	n := now.UnixNano()

	if st.CooldownUntil != 0 && n < st.CooldownUntil {
		return Result{
			Allowed:    false,
			Limit:      cfg.MaxAttempts,
			Remaining:  0,
			RetryAfter: time.Duration(st.CooldownUntil - n),
		}
	}

	if st.CooldownUntil != 0 {
		// Cooldown served; the next attempt starts a fresh window
		return Result{Allowed: true, Limit: cfg.MaxAttempts, Remaining: cfg.MaxAttempts}
	}

	windowStart := n - cfg.Window.Nanoseconds()
	inWindow := 0
	oldest := int64(0)
	for _, ts := range st.Attempts {
		if ts > windowStart {
			if inWindow == 0 || ts < oldest {
				oldest = ts
			}
			inWindow++
		}
	}

	if inWindow >= cfg.MaxAttempts {
		return Result{
			Allowed:    false,
			Limit:      cfg.MaxAttempts,
			Remaining:  0,
			RetryAfter: time.Duration(oldest - windowStart),
		}
	}

	return Result{
		Allowed:   true,
		Limit:     cfg.MaxAttempts,
		Remaining: cfg.MaxAttempts - inWindow,
	}
}

// cooldownSeconds is the active cooldown remainder rounded up to whole
// seconds, 0 when none is active.
func cooldownSeconds(st *store.State, now time.Time) int {
	n := now.UnixNano()
	if st.CooldownUntil == 0 || n >= st.CooldownUntil {
		return 0
	}
	d := time.Duration(st.CooldownUntil - n)
	return int((d + time.Second - 1) / time.Second)
}
