package dac

import (
	"testing"

	"github.com/resonix-audio/resonix/internal/audioctx"
	"github.com/resonix-audio/resonix/internal/graph"
	"github.com/resonix-audio/resonix/internal/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callback never opens a real device, so it is exercised directly against
// a Stream built by hand rather than through Open (which calls into
// portaudio and requires a real audio backend).
func newTestStream(t *testing.T, channels units.NumChannels) (*Stream, graph.NodeUID) {
	t.Helper()
	ctx := audioctx.New()
	cUID, err := ctx.AddNode(graph.NewConstantNode(0.5, channels))
	require.NoError(t, err)
	dUID, err := ctx.AddNode(graph.NewDACNode(channels))
	require.NoError(t, err)
	_, err = ctx.Connect(cUID, dUID, 0, 0)
	require.NoError(t, err)

	proc := ctx.InitializeDAC()
	proc.UpdateFromDACConfig(44100, channels)

	return &Stream{
		ctx:        ctx,
		onError:    func(error) {},
		channels:   channels,
		sampleRate: 44100,
		sumScratch: make([]float32, channels),
	}, dUID
}

func Test_Callback_FillsEveryFrameWithDACSum(t *testing.T) {
	s, _ := newTestStream(t, 2)

	out := make([]float32, 2*4) // 4 frames, stereo
	s.callback(out)

	for i, v := range out {
		assert.InDelta(t, 0.5, v, 1e-6, "sample %d", i)
	}
}

func Test_Callback_ZeroChannelsNoOp(t *testing.T) {
	s, _ := newTestStream(t, 0)
	out := make([]float32, 8)
	assert.NotPanics(t, func() { s.callback(out) })
}

func Test_Callback_HealthyGraphReportsNoError(t *testing.T) {
	s, _ := newTestStream(t, 1)
	var captured error
	s.onError = func(err error) { captured = err }

	out := make([]float32, 1)
	s.callback(out)
	assert.NoError(t, captured)
}
