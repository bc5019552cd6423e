package device

import "time"

// quadratureSteps is indexed by previous AB state << 2 | current AB state.
// Invalid transitions (both channels changed) count as 0.
var quadratureSteps = [16]int8{
	0, -1, 1, 0,
	1, 0, 0, -1,
	-1, 0, 0, 1,
	0, 1, -1, 0,
}

// Quadrature decodes the A/B channels of an incremental encoder into raw steps.
type Quadrature struct {
	state  uint8
	primed bool
}

func abState(a, b bool) uint8 {
	var s uint8
	if a {
		s |= 2
	}
	if b {
		s |= 1
	}
	return s
}

// Update feeds one sample of both channels and returns the step it produced.
func (q *Quadrature) Update(a, b bool) int {
	cur := abState(a, b)
	if !q.primed {
		q.state = cur
		q.primed = true
		return 0
	}
	step := quadratureSteps[q.state<<2|cur]
	q.state = cur
	return int(step)
}

// Debouncer reports a press once the button level has been stable for the delay.
type Debouncer struct {
	delay     time.Duration
	stable    bool
	candidate bool
	since     time.Time
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Update returns true on a debounced released to pressed transition.
func (d *Debouncer) Update(pressed bool, now time.Time) bool {
	if pressed != d.candidate {
		d.candidate = pressed
		d.since = now
	}
	if d.candidate == d.stable || now.Sub(d.since) < d.delay {
		return false
	}
	d.stable = d.candidate
	return d.stable
}
