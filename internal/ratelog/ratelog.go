// Package ratelog throttles the handful of log sites inside tick() that
// can otherwise fire every frame: a starved BGM voice or a saturated SFX
// pool logs the same line on every subsequent tick until the condition
// clears. Built on golang.org/x/time/rate.
package ratelog

import (
	"log"

	"golang.org/x/time/rate"
)

// Limiter wraps a rate.Limiter with the log.Printf call site, so callers
// write one line instead of repeating the Allow-then-Printf pattern.
type Limiter struct {
	l *rate.Limiter
}

// New returns a Limiter allowing at most eventsPerSec log lines per
// second, with a burst of 1: ours is always a single noisy condition, so a
// burst of 1 is the right fit.
func New(eventsPerSec float64) *Limiter {
	return &Limiter{l: rate.NewLimiter(rate.Limit(eventsPerSec), 1)}
}

// Printf logs format/args if the limiter currently allows it, and is a
// silent no-op otherwise.
func (l *Limiter) Printf(format string, args ...any) {
	if l.l.Allow() {
		log.Printf(format, args...)
	}
}
