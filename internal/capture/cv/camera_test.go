package cv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenSourceRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := OpenSource("not-a-device-or-file")
	assert.ErrorIs(t, err, ErrOpen)
}

func TestExhausted(t *testing.T) {
	t.Parallel()

	assert.False(t, exhausted(10, 120))
	assert.True(t, exhausted(120, 120))
	assert.True(t, exhausted(121, 120))
	assert.False(t, exhausted(500, 0), "unknown length never ends")
	assert.False(t, exhausted(0, -1))
}
