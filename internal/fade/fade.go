// Package fade eases the overlay in and out as the marker appears and
// disappears.
package fade

// DefaultDuration is the time in seconds for a full fade.
const DefaultDuration = 0.3

// Ramp moves an opacity between 0 and 1 at 1/Duration per second.
// Duration <= 0 switches instantly.
type Ramp struct {
	Duration float64
	value    float64
}

// Step moves the opacity towards 1 when visible, else towards 0, and
// returns it.
func (r *Ramp) Step(visible bool, dt float64) float64 {
	target := 0.0
	if visible {
		target = 1
	}
	if r.Duration <= 0 {
		r.value = target
		return r.value
	}
	delta := dt / r.Duration
	if delta < 0 {
		delta = 0
	}
	if r.value < target {
		r.value = min(target, r.value+delta)
	} else {
		r.value = max(target, r.value-delta)
	}
	return r.value
}

// Value returns the current opacity.
func (r *Ramp) Value() float64 {
	return r.value
}

// Set jumps to v, clamped to [0, 1].
func (r *Ramp) Set(v float64) {
	r.value = min(1, max(0, v))
}
