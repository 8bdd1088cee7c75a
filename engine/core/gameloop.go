package core

import "time"

// StepFunc advances the simulation by exactly one fixed step
type StepFunc func()

// Loop decouples simulation stepping from the render rate. Each displayed
// frame feeds its elapsed wall time into an accumulator which is drained in
// fixed-size steps, so the simulation advances at the same rate on a 60hz
// and a 120hz host. The loop itself never blocks and can be driven by any
// scheduling primitive (render callback, timer, test harness).
type Loop struct {
	StepRate   float64 // fixed steps per second
	MaxCatchUp int     // max steps drained per frame (spiral-of-death guard)

	step        StepFunc
	accumulator float64
	lastTime    time.Time
	started     bool
}

// maxFrameTime caps a single frame's contribution to the accumulator so a
// stalled frame cannot demand an unbounded catch-up burst
const maxFrameTime = 0.25

// NewLoop creates a loop stepping the given function at the given rate
func NewLoop(stepRate float64, step StepFunc) *Loop {
	return &Loop{
		StepRate:   stepRate,
		MaxCatchUp: 4,
		step:       step,
	}
}

// Update should be called once per rendered frame. It measures elapsed wall
// time, drains the accumulator, and returns the interpolation alpha for
// smooth rendering.
func (l *Loop) Update() float64 {
	now := time.Now()
	if !l.started {
		l.lastTime = now
		l.started = true
	}
	frameTime := now.Sub(l.lastTime).Seconds()
	l.lastTime = now
	return l.Advance(frameTime)
}

// Advance feeds an explicit frame duration (seconds) into the accumulator
// and runs up to MaxCatchUp fixed steps. Exposed separately from Update so a
// test harness can drive the loop without a wall clock.
func (l *Loop) Advance(frameTime float64) float64 {
	if frameTime > maxFrameTime {
		frameTime = maxFrameTime
	}

	dt := 1.0 / l.StepRate
	l.accumulator += frameTime

	steps := 0
	for l.accumulator >= dt && steps < l.MaxCatchUp {
		l.step()
		l.accumulator -= dt
		steps++
	}
	// A frame that exceeded the catch-up budget drops the remainder instead
	// of letting the accumulator grow without bound.
	if l.accumulator >= dt {
		l.accumulator = 0
	}

	return l.accumulator / dt
}

// Reset clears the accumulator and frame timing, typically on session start
func (l *Loop) Reset() {
	l.accumulator = 0
	l.started = false
}

// StepDuration returns the wall-time length of one fixed step
func (l *Loop) StepDuration() time.Duration {
	return time.Duration(float64(time.Second) / l.StepRate)
}
