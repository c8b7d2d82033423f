package easing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurvesHitEndpoints(t *testing.T) {
	for name, f := range byName {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, 0.0, f(0), 1e-9)
			assert.InDelta(t, 1.0, f(1), 1e-9)
		})
	}
}

func TestInOutMidpoint(t *testing.T) {
	assert.InDelta(t, 0.5, QuadraticEaseInOut(0.5), 1e-9)
	assert.InDelta(t, 0.5, CubicEaseInOut(0.5), 1e-9)
	assert.InDelta(t, 0.5, QuarticEaseInOut(0.5), 1e-9)
}

func TestByName(t *testing.T) {
	f, err := ByName("quartic-ease-in")
	require.NoError(t, err)
	assert.InDelta(t, 0.0625, f(0.5), 1e-9)

	f, err = ByName("")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, f(0.3), 1e-9)

	_, err = ByName("bounce")
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1))
	assert.Equal(t, 1.0, Clamp(2))
	assert.Equal(t, 0.25, Clamp(0.25))
}
