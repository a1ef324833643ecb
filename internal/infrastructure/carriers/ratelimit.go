package carriers

import (
	"sync"
	"time"
)

// slidingWindowLimiter caps outbound carrier calls to maxRequests per
// window. The timestamp window is shared process-wide across every caller
// of the adapter, so it is guarded by a mutex. Exceeding the budget fails
// fast locally instead of letting the carrier answer 429 for us.
type slidingWindowLimiter struct {
	mu          sync.Mutex
	window      time.Duration
	maxRequests int
	timestamps  []time.Time
	now         func() time.Time
}

func newSlidingWindowLimiter(window time.Duration, maxRequests int) *slidingWindowLimiter {
	return &slidingWindowLimiter{
		window:      window,
		maxRequests: maxRequests,
		now:         time.Now,
	}
}

// Allow records a request if the window has budget left and reports whether
// the call may proceed.
func (l *slidingWindowLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.timestamps[:0]
	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.timestamps = kept

	if len(l.timestamps) >= l.maxRequests {
		return false
	}

	l.timestamps = append(l.timestamps, now)
	return true
}

// InFlight returns how many requests currently count against the window
func (l *slidingWindowLimiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	count := 0
	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			count++
		}
	}
	return count
}
