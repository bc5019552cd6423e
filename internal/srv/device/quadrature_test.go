package device

import (
	"testing"
	"time"
)

type ab struct{ a, b bool }

// one full forward cycle, starting from and returning to rest (both high)
var forwardCycle = []ab{{true, true}, {false, true}, {false, false}, {true, false}, {true, true}}

func feed(q *Quadrature, samples []ab) int {
	total := 0
	for _, s := range samples {
		total += q.Update(s.a, s.b)
	}
	return total
}

func reversed(samples []ab) []ab {
	out := make([]ab, len(samples))
	for i, s := range samples {
		out[len(samples)-1-i] = s
	}
	return out
}

func TestQuadratureFullCycle(t *testing.T) {
	q := &Quadrature{}
	got := feed(q, forwardCycle)
	if got != 4 && got != -4 {
		t.Fatalf("expected 4 steps for a full cycle, got %d", got)
	}

	q2 := &Quadrature{}
	if back := feed(q2, reversed(forwardCycle)); back != -got {
		t.Errorf("expected reverse cycle to give %d, got %d", -got, back)
	}
}

func TestQuadratureFirstSampleIsReference(t *testing.T) {
	q := &Quadrature{}
	if step := q.Update(false, false); step != 0 {
		t.Errorf("expected 0 on the first sample, got %d", step)
	}
}

func TestQuadratureIgnoresBounceAndInvalid(t *testing.T) {
	q := &Quadrature{}
	// A bounces, net zero
	samples := []ab{{true, true}, {false, true}, {true, true}, {false, true}, {true, true}}
	if got := feed(q, samples); got != 0 {
		t.Errorf("bounce should cancel out, got %d", got)
	}

	q = &Quadrature{}
	// both channels changed at once
	if got := feed(q, []ab{{true, true}, {false, false}}); got != 0 {
		t.Errorf("invalid transition should count 0, got %d", got)
	}
}

func TestDebouncer(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ms := func(n int) time.Time { return start.Add(time.Duration(n) * time.Millisecond) }

	tests := []struct {
		name    string
		samples []bool
		want    int
	}{
		{"held press", []bool{true, true, true, true, true, true, true, true}, 1},
		{"short glitch", []bool{true, false, false, false, false, false, false, false}, 0},
		{"bouncy press", []bool{true, false, true, false, true, true, true, true, true, true, true}, 1},
		{"two presses", []bool{true, true, true, true, true, true, false, false, false, false, false, false, true, true, true, true, true, true}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(50 * time.Millisecond)
			presses := 0
			for i, s := range tt.samples {
				if d.Update(s, ms(i*10)) {
					presses++
				}
			}
			if presses != tt.want {
				t.Errorf("expected %d presses, got %d", tt.want, presses)
			}
		})
	}
}

func TestAnnouncerTxtRecords(t *testing.T) {
	txt := NewAnnouncer("heatbox", 8443, true).TxtRecords()
	want := map[string]bool{"scheme=https": false, "path=/api": false, "simulation=true": false}
	for _, r := range txt {
		if _, ok := want[r]; ok {
			want[r] = true
		}
	}
	for r, seen := range want {
		if !seen {
			t.Errorf("missing txt record %q in %v", r, txt)
		}
	}
}
