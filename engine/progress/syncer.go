package progress

import "time"

// DefaultSyncInterval bounds mid-match score writes to the shared store
const DefaultSyncInterval = 2 * time.Second

// PushFunc delivers one experience value to the shared room store
type PushFunc func(xp int) error

// Syncer rate-limits outbound score writes: however many score-update
// events fire, at most one push happens per interval of wall-clock time.
type Syncer struct {
	Interval time.Duration

	push PushFunc
	now  func() time.Time
	last time.Time
}

// NewSyncer creates a syncer delivering through push. nil now selects the
// wall clock.
func NewSyncer(push PushFunc, now func() time.Time) *Syncer {
	if now == nil {
		now = time.Now
	}
	return &Syncer{
		Interval: DefaultSyncInterval,
		push:     push,
		now:      now,
	}
}

// Offer proposes a score value for sync. It pushes only when the throttle
// window has elapsed since the last push and reports whether a push
// happened. Push errors are returned but do not advance the window, so the
// next offer retries.
func (s *Syncer) Offer(xp int) (bool, error) {
	now := s.now()
	if now.Sub(s.last) <= s.Interval {
		return false, nil
	}
	if err := s.push(xp); err != nil {
		return false, err
	}
	s.last = now
	return true, nil
}

// Reset clears the throttle window, typically on session start
func (s *Syncer) Reset() {
	s.last = time.Time{}
}
