package grain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_New_panicsOnDegenerateRange(t *testing.T) {
	assert.Panics(t, func() { New(5, 5, 0, true) })
	assert.Panics(t, func() { New(6, 5, 0, true) })
}

func Test_Advance_finishesAtEnd(t *testing.T) {
	g := New(10, 13, 1, true)

	frame, ok := g.Advance()
	require.True(t, ok)
	assert.Equal(t, uint32(10), frame)
	assert.False(t, g.Finished())

	frame, ok = g.Advance()
	require.True(t, ok)
	assert.Equal(t, uint32(11), frame)
	assert.False(t, g.Finished())

	frame, ok = g.Advance()
	require.True(t, ok)
	assert.Equal(t, uint32(12), frame)
	assert.True(t, g.Finished())

	_, ok = g.Advance()
	assert.False(t, ok, "advancing a finished grain must return none")
}

func Test_Advance_invariant_startLEcurrentLEend(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Uint32Range(0, 1000).Draw(t, "start")
		length := rapid.Uint32Range(1, 500).Draw(t, "length")
		end := start + length

		g := New(start, end, 0, true)
		for i := uint32(0); i < length+5; i++ {
			assert.GreaterOrEqual(t, g.Current(), g.Start())
			assert.LessOrEqual(t, g.Current(), g.End())
			assert.Equal(t, g.Current() == g.End(), g.Finished())
			g.Advance()
		}
	})
}

func Test_CalculateExceedsSelection(t *testing.T) {
	g := New(100, 200, 0, true)

	assert.False(t, g.CalculateExceedsSelection(0, 300))
	assert.True(t, g.CalculateExceedsSelection(150, 300), "current (100) < selStart (150)")
	assert.True(t, g.CalculateExceedsSelection(0, 150), "end (200) > selEnd (150)")
}

func Test_Reinit_resetsState(t *testing.T) {
	g := New(0, 10, 42, true)
	for !g.Finished() {
		g.Advance()
	}
	g.SetExceedsSelection(true)

	g.Reinit(5, 15)

	assert.Equal(t, uint32(42), g.UID(), "uid must survive reinit")
	assert.Equal(t, uint32(5), g.Current())
	assert.False(t, g.Finished())
	assert.False(t, g.ExceedsSelection())
}
