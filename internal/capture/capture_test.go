package capture

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameEmpty(t *testing.T) {
	t.Parallel()

	assert.True(t, Frame{}.Empty())
	assert.True(t, NewFrame(image.NewRGBA(image.Rect(0, 0, 0, 0))).Empty())
	assert.False(t, NewFrame(image.NewRGBA(image.Rect(0, 0, 4, 3))).Empty())
	assert.Nil(t, NewFrame(image.NewRGBA(image.Rect(0, 0, 4, 3))).Native)
}
