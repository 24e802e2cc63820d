package resilience

import (
	"sync"
	"time"
)

// bucket holds one time slice's worth of outcome counts.
type bucket struct {
	start    time.Time
	total    int
	failures int
}

// SlidingWindow tracks request outcomes over a rolling time window split
// into fixed-width buckets, so old outcomes age out smoothly instead of
// all expiring at once. Grounded on the teacher's bucketed sliding-window
// circuit breaker metrics, trimmed to the counts this package's error-rate
// decision actually needs.
type SlidingWindow struct {
	mu          sync.Mutex
	bucketWidth time.Duration
	buckets     []bucket
}

// NewSlidingWindow builds a window of the given total duration split into
// bucketCount equal buckets.
func NewSlidingWindow(windowSize time.Duration, bucketCount int) *SlidingWindow {
	if bucketCount < 1 {
		bucketCount = 1
	}
	return &SlidingWindow{
		bucketWidth: windowSize / time.Duration(bucketCount),
		buckets:     make([]bucket, bucketCount),
	}
}

// RecordSuccess records a successful outcome at the current time.
func (w *SlidingWindow) RecordSuccess() {
	w.record(false)
}

// RecordFailure records a failed outcome at the current time.
func (w *SlidingWindow) RecordFailure() {
	w.record(true)
}

func (w *SlidingWindow) record(failed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b := w.currentBucketLocked()
	b.total++
	if failed {
		b.failures++
	}
}

// currentBucketLocked returns the bucket for "now", evicting any bucket
// whose slot has aged past one full window rotation. Must be called with
// w.mu held.
func (w *SlidingWindow) currentBucketLocked() *bucket {
	now := time.Now()
	idx := w.indexFor(now)
	b := &w.buckets[idx]
	if now.Sub(b.start) >= time.Duration(len(w.buckets))*w.bucketWidth {
		*b = bucket{start: now}
	}
	return b
}

func (w *SlidingWindow) indexFor(t time.Time) int {
	if w.bucketWidth <= 0 {
		return 0
	}
	return int(t.UnixNano()/int64(w.bucketWidth)) % len(w.buckets)
}

// Counts returns the total and failure counts across every bucket still
// within the window.
func (w *SlidingWindow) Counts() (total, failures int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	windowDur := time.Duration(len(w.buckets)) * w.bucketWidth
	for i := range w.buckets {
		b := &w.buckets[i]
		if b.start.IsZero() || now.Sub(b.start) >= windowDur {
			continue
		}
		total += b.total
		failures += b.failures
	}
	return total, failures
}

// Reset clears every bucket, used when the breaker closes after a
// successful half-open probe so stale failures don't linger.
func (w *SlidingWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.buckets {
		w.buckets[i] = bucket{}
	}
}
