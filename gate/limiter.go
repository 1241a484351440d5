package gate

import (
	"sync"
	"time"

	"github.com/codetesla51/gatez/store"
)

// Limiter gates a single action. A burst of Allow calls passes until
// MaxAttempts land inside the sliding window; the attempt that finds the
// window full is denied and starts the cooldown, and every call during the
// cooldown is denied without being recorded. State lives in memory; use
// KeyedLimiter to gate many subjects through a shared store.
type Limiter struct {
	cfg   Config
	state store.State
	now   func() time.Time
	mu    sync.Mutex
}

// New returns a Limiter for cfg, or ErrInvalidConfig.
func New(cfg Config) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Limiter{
		cfg: cfg,
		now: time.Now,
	}, nil
}

// Allow records one attempt if permitted and reports the verdict.
func (l *Limiter) Allow() Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, _ := advance(&l.state, l.cfg, l.now())
	return res
}

// Status reports the verdict Allow would return right now, without
// recording anything.
func (l *Limiter) Status() Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	return peek(&l.state, l.cfg, l.now())
}

// CooldownSeconds reports the remaining cooldown in whole seconds, rounded
// up. 0 when no cooldown is active.
func (l *Limiter) CooldownSeconds() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return cooldownSeconds(&l.state, l.now())
}

// Limited reports whether a cooldown is active right now.
func (l *Limiter) Limited() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := l.now().UnixNano()
	return l.state.CooldownUntil != 0 && n < l.state.CooldownUntil
}

// Remaining reports how many attempts are left in the current window: 0
// while a cooldown is active, the full cap once it has elapsed.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return peek(&l.state, l.cfg, l.now()).Remaining
}

// Reset clears all attempts and any cooldown.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = store.State{}
}
