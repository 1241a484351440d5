package gate

import "time"

// Result describes the outcome of one gate check.
type Result struct {
	Allowed    bool          // Whether the attempt may proceed
	Limit      int           // The configured attempt cap
	Remaining  int           // Attempts left in the current window
	RetryAfter time.Duration // Wait until the next attempt can succeed; 0 when Allowed
}

// RetryAfterSeconds reports RetryAfter in whole seconds, rounded up so a
// caller that waits that long is guaranteed to be past the deadline.
func (r Result) RetryAfterSeconds() int {
	if r.RetryAfter <= 0 {
		return 0
	}
	return int((r.RetryAfter + time.Second - 1) / time.Second)
}
