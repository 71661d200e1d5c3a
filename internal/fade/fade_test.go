package fade

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRampFadesInAndOut(t *testing.T) {
	t.Parallel()

	r := Ramp{Duration: 0.5}
	assert.InDelta(t, 0.25, r.Step(true, 0.125), 1e-12)
	assert.InDelta(t, 0.5, r.Step(true, 0.125), 1e-12)
	assert.Equal(t, 1.0, r.Step(true, 10))
	assert.Equal(t, 1.0, r.Step(true, 0.1), "clamped at 1")

	assert.InDelta(t, 0.8, r.Step(false, 0.1), 1e-12)
	assert.Equal(t, 0.0, r.Step(false, 1))
	assert.Equal(t, 0.0, r.Value())
}

func TestRampInstantWithoutDuration(t *testing.T) {
	t.Parallel()

	var r Ramp
	assert.Equal(t, 1.0, r.Step(true, 0))
	assert.Equal(t, 0.0, r.Step(false, 0))
}

func TestRampIgnoresNegativeTime(t *testing.T) {
	t.Parallel()

	r := Ramp{Duration: 1}
	r.Set(0.5)
	assert.Equal(t, 0.5, r.Step(true, -3))
	r.Set(7)
	assert.Equal(t, 1.0, r.Value())
}
