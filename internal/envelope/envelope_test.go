package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_NewSine_startsAndEndsNearZero(t *testing.T) {
	e := NewSine()
	assert.InDelta(t, 0.0, e.At(0), 1e-6)
	assert.InDelta(t, 1.0, e.At(0.5), 1e-2)
	assert.InDelta(t, 0.0, e.At(1.0-1.0/TableLen), 1e-2)
}

func Test_NewAll0_NewAll1(t *testing.T) {
	zero := NewAll0()
	one := NewAll1()
	for _, p := range []float64{0, 0.25, 0.5, 0.99} {
		assert.Equal(t, float32(0), zero.At(p))
		assert.Equal(t, float32(1), one.At(p))
	}
}

func Test_At_neverPanicsOutOfRange(t *testing.T) {
	e := NewSine()
	rapid.Check(t, func(t *rapid.T) {
		p := rapid.Float64Range(-10, 10).Draw(t, "p")
		assert.NotPanics(t, func() { e.At(p) })
	})
}
