package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoopDrainsFixedSteps(t *testing.T) {
	steps := 0
	l := NewLoop(60, func() { steps++ })

	// exactly three step durations of frame time
	l.Advance(3.0 / 60.0)
	assert.Equal(t, 3, steps)

	// less than one step leaves the accumulator partially filled
	alpha := l.Advance(0.5 / 60.0)
	assert.Equal(t, 3, steps)
	assert.InDelta(t, 0.5, alpha, 1e-9)
}

func TestLoopCapsCatchUp(t *testing.T) {
	steps := 0
	l := NewLoop(60, func() { steps++ })

	// a quarter-second stall would be 15 steps; the guard allows 4 and
	// discards the remainder rather than snowballing
	l.Advance(0.25)
	assert.Equal(t, 4, steps)

	steps = 0
	l.Advance(1.0 / 60.0)
	assert.Equal(t, 1, steps)
}

func TestLoopCapsFrameTime(t *testing.T) {
	steps := 0
	l := NewLoop(60, func() { steps++ })
	l.Advance(10.0) // an absurd stall contributes at most maxFrameTime
	assert.Equal(t, l.MaxCatchUp, steps)
}

func TestLoopReset(t *testing.T) {
	steps := 0
	l := NewLoop(60, func() { steps++ })
	l.Advance(0.5 / 60.0)
	l.Reset()
	alpha := l.Advance(0.5 / 60.0)
	assert.Equal(t, 0, steps)
	assert.InDelta(t, 0.5, alpha, 1e-9)
}

func TestEventBusQueuesUntilDispatch(t *testing.T) {
	eb := NewEventBus()
	var got []EventType
	eb.On(EvtScoreUpdate, func(e Event) { got = append(got, e.Type) })
	eb.On(EvtSessionEnded, func(e Event) { got = append(got, e.Type) })

	eb.Emit(Event{Type: EvtScoreUpdate})
	eb.Emit(Event{Type: EvtSessionEnded})
	assert.Empty(t, got)

	eb.Dispatch()
	assert.Equal(t, []EventType{EvtScoreUpdate, EvtSessionEnded}, got)

	// queue is drained, a second dispatch is a no-op
	eb.Dispatch()
	assert.Len(t, got, 2)
}

func TestEventBusDrainsHandlerEmits(t *testing.T) {
	eb := NewEventBus()
	var got []EventType
	eb.On(EvtPlayerHit, func(Event) {
		got = append(got, EvtPlayerHit)
		eb.Emit(Event{Type: EvtScoreUpdate})
	})
	eb.On(EvtScoreUpdate, func(e Event) { got = append(got, e.Type) })

	// an event emitted from inside a handler is delivered in the same
	// dispatch pass, not dropped
	eb.Emit(Event{Type: EvtPlayerHit})
	eb.Dispatch()
	assert.Equal(t, []EventType{EvtPlayerHit, EvtScoreUpdate}, got)

	eb.Dispatch()
	assert.Len(t, got, 2)
}
