package audioctx

import (
	"testing"

	"github.com/resonix-audio/resonix/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Uninit_AddNodeAndConnectApplyImmediately(t *testing.T) {
	ctx := New()
	assert.Equal(t, StateUninit, ctx.State())

	c, err := ctx.AddNode(graph.NewConstantNode(0.5, 1))
	require.NoError(t, err)
	d, err := ctx.AddNode(graph.NewDACNode(1))
	require.NoError(t, err)

	_, err = ctx.Connect(c, d, 0, 0)
	require.NoError(t, err)

	require.NoError(t, ctx.Processor().Tick())
	n, ok := ctx.Processor().NodeByUID(d)
	require.True(t, ok)
	assert.Equal(t, []float32{0.5}, n.(*graph.DACNode).LastData())
}

func Test_NodeHandle_MutateAppliesInUninit(t *testing.T) {
	ctx := New()
	cUID, err := ctx.AddNode(graph.NewConstantNode(1, 1))
	require.NoError(t, err)

	h := NewNodeHandle[*graph.ConstantNode](ctx, cUID)
	err = h.Mutate(func(n *graph.ConstantNode) error {
		n.SetValue(9)
		return nil
	})
	require.NoError(t, err)

	got, err := Get(h, func(n *graph.ConstantNode) float32 { return n.Value() })
	require.NoError(t, err)
	assert.Equal(t, float32(9), got)
}

func Test_NodeHandle_WrongTypeErrors(t *testing.T) {
	ctx := New()
	cUID, err := ctx.AddNode(graph.NewConstantNode(1, 1))
	require.NoError(t, err)

	h := NewNodeHandle[*graph.SineNode](ctx, cUID)
	err = h.Mutate(func(n *graph.SineNode) error {
		n.SetFrequency(440)
		return nil
	})
	require.ErrorIs(t, err, ErrWrongNodeType)
}

func Test_Init_StructuralMessagesRouteThroughDrain(t *testing.T) {
	ctx := New()
	proc := ctx.InitializeDAC()
	assert.Equal(t, StateInit, ctx.State())

	done := make(chan struct{})
	var cUID, dUID graph.NodeUID
	var addErr, connectErr error
	go func() {
		cUID, addErr = ctx.AddNode(graph.NewConstantNode(0.25, 1))
		dUID, addErr = ctx.AddNode(graph.NewDACNode(1))
		_, connectErr = ctx.Connect(cUID, dUID, 0, 0)
		close(done)
	}()

	// The audio thread drains messages; without this the goroutine above
	// would block forever on its reply channel, exactly as spec.md §5
	// describes for the control thread awaiting a reply in Init mode.
	drainUntil(ctx, done)

	require.NoError(t, addErr)
	require.NoError(t, connectErr)

	require.NoError(t, proc.Tick())
	n, ok := proc.NodeByUID(dUID)
	require.True(t, ok)
	assert.Equal(t, []float32{0.25}, n.(*graph.DACNode).LastData())
}

func Test_Init_NodeUpdateRoutesThroughDrain(t *testing.T) {
	ctx := New()
	cUID, err := ctx.AddNode(graph.NewConstantNode(1, 1))
	require.NoError(t, err)
	ctx.InitializeDAC()

	h := NewNodeHandle[*graph.ConstantNode](ctx, cUID)
	done := make(chan struct{})
	var mutateErr, getErr error
	var got float32
	go func() {
		mutateErr = h.Mutate(func(n *graph.ConstantNode) error {
			n.SetValue(42)
			return nil
		})
		// In Init mode Get is a round trip too, answered by the drain below.
		got, getErr = Get(h, func(n *graph.ConstantNode) float32 { return n.Value() })
		close(done)
	}()

	drainUntil(ctx, done)
	require.NoError(t, mutateErr)

	require.NoError(t, getErr)
	assert.Equal(t, float32(42), got)
}

// drainUntil plays the audio thread: it keeps draining queued messages
// until done is closed, so every request the control goroutine sends is
// answered however late it is sent.
func drainUntil(ctx *AudioContext, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
			ctx.DrainMessages()
		}
	}
}
