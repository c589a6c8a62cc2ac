package downmix

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_Simple_energyInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		x := float32(rapid.Float64Range(-1, 1).Draw(t, "x"))

		in := make([]float32, n)
		for i := range in {
			in[i] = x
		}
		out := make([]float32, n)
		SimpleToBuffer(in, out)

		expected := x * float32(math.Sqrt(float64(n))) / float32(n)
		for _, v := range out {
			assert.InDelta(t, expected, v, 1e-4)
		}
	})
}

func Test_Simple_zeroChannelsIsNoop(t *testing.T) {
	out := []float32{}
	assert.NotPanics(t, func() { SimpleToBuffer([]float32{1, 2, 3}, out) })
}

func Test_Panning_emptyInputLeavesZeroed(t *testing.T) {
	out := []float32{1, 1, 1}
	PanningToBuffer(nil, out)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func Test_Panning_sameChannelsIsCopy(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := make([]float32, 3)
	PanningToBuffer(in, out)
	assert.Equal(t, in, out)

	out2 := make([]float32, 3)
	PanningFastToBuffer(in, out2)
	assert.Equal(t, in, out2)
}

func Test_PanningFast_zeroOutputChannels(t *testing.T) {
	out := []float32{}
	assert.NotPanics(t, func() { PanningFastToBuffer([]float32{1, 2}, out) })
}

func Test_Downmix_MtoN_spreadsAcrossOutputs(t *testing.T) {
	// M==1 is a degenerate case inherited from the original (dividing the
	// input's normalized position by M-1==0), so this exercises the
	// general M>1, M!=N path instead.
	in := []float32{1.0, 1.0}
	out := make([]float32, 4)
	PanningToBuffer(in, out)
	var total float32
	for _, v := range out {
		total += v
	}
	assert.Greater(t, total, float32(0))
}
