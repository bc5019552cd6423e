// Package encoder turns raw rotary encoder pulses and button edges into logical
// rotation and press events.
//
// Pulse, Turn and Press are the producer side and may be called from a driver goroutine.
// Every other method belongs to the single consumer (the control loop).
package encoder

import (
	"fmt"
	"sync/atomic"
)

type Mode int

const (
	Clamping Mode = iota
	Wrapping
)

func (m Mode) String() string {
	switch m {
	case Clamping:
		return "clamping"
	case Wrapping:
		return "wrapping"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

type Direction int64

const (
	Forward Direction = 1
	Reverse Direction = -1
)

// Boundaries limits or recycles the detent position.
type Boundaries struct {
	Min  int64
	Max  int64
	Mode Mode
}

func (b Boundaries) normalized() Boundaries {
	if b.Min > b.Max {
		b.Min, b.Max = b.Max, b.Min
	}
	return b
}

// apply brings v back into [Min, Max] according to the mode.
func (b Boundaries) apply(v int64) int64 {
	if b.Mode == Wrapping {
		size := b.Max - b.Min + 1
		off := (v - b.Min) % size
		if off < 0 {
			off += size
		}
		return b.Min + off
	}
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Event is what the control loop consumes once per tick.
type Event struct {
	Rotate  int64
	Pressed bool
}

type Encoder struct {
	pending atomic.Int64
	pressed atomic.Bool

	stepsPerDetent int64
	direction      Direction

	residue  int64
	position int64
	baseline int64
	bounds   Boundaries
}

func New(stepsPerDetent int, direction Direction, bounds Boundaries) *Encoder {
	if stepsPerDetent < 1 {
		stepsPerDetent = 1
	}
	if direction != Reverse {
		direction = Forward
	}
	e := &Encoder{
		stepsPerDetent: int64(stepsPerDetent),
		direction:      direction,
		bounds:         bounds.normalized(),
	}
	e.position = e.bounds.apply(0)
	e.baseline = e.position
	return e
}

// Pulse records n raw quadrature steps (negative for counter-clockwise).
func (e *Encoder) Pulse(n int64) {
	e.pending.Add(n)
}

// Turn records whole detents as if the knob had been turned by hand, whatever the
// wiring direction.
func (e *Encoder) Turn(detents int64) {
	e.Pulse(detents * e.stepsPerDetent * int64(e.direction))
}

// Press latches a button press. Presses not yet consumed coalesce into one.
func (e *Encoder) Press() {
	e.pressed.Store(true)
}

// fold moves pending raw steps into the detent position.
func (e *Encoder) fold() {
	raw := e.pending.Swap(0) * int64(e.direction)
	if raw == 0 {
		return
	}
	e.residue += raw
	detents := e.residue / e.stepsPerDetent
	e.residue -= detents * e.stepsPerDetent
	if detents != 0 {
		e.position = e.bounds.apply(e.position + detents)
	}
}

func (e *Encoder) Boundaries() Boundaries {
	return e.bounds
}

// SetBoundaries reconfigures the counting range. Pending pulses are folded under the
// old range, then the position is brought into the new one and the tracking baseline
// is reset, so no delta leaks across the change.
func (e *Encoder) SetBoundaries(min, max int64, mode Mode) {
	e.fold()
	e.bounds = Boundaries{Min: min, Max: max, Mode: mode}.normalized()
	e.residue = 0
	e.position = e.bounds.apply(e.position)
	e.baseline = e.position
}

// SetPosition moves the counter to v (brought into range) and resets the baseline.
// Pulses not folded yet are kept and count from the new position.
func (e *Encoder) SetPosition(v int64) {
	e.residue = 0
	e.position = e.bounds.apply(v)
	e.baseline = e.position
}

func (e *Encoder) Position() int64 {
	e.fold()
	return e.position
}

// TakePress reads and clears the press latch in one step.
func (e *Encoder) TakePress() bool {
	return e.pressed.Swap(false)
}

// Delta returns the detents moved since the last call or baseline reset.
func (e *Encoder) Delta() int64 {
	e.fold()
	d := e.position - e.baseline
	e.baseline = e.position
	return d
}

func (e *Encoder) Poll() Event {
	pressed := e.TakePress()
	return Event{Rotate: e.Delta(), Pressed: pressed}
}
