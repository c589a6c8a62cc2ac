package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ConstantIntoDAC(t *testing.T) {
	p := NewProcessor()
	c := p.AddNode(NewConstantNode(0.5, 2))
	d := p.AddNode(NewDACNode(2))

	_, err := p.Connect(c, d, 0, 0)
	require.NoError(t, err)

	require.NoError(t, p.Tick())

	dac := mustDAC(t, p, d)
	assert.Equal(t, []float32{0.5, 0.5}, dac.LastData())
}

func Test_SineAt4xSampleRate(t *testing.T) {
	p := NewProcessor()
	sineUID := p.AddNode(NewSineNode(1))
	d := p.AddNode(NewDACNode(1))
	_, err := p.Connect(sineUID, d, 0, 0)
	require.NoError(t, err)

	p.UpdateFromDACConfig(4, 1)

	dac := mustDAC(t, p, d)
	want := []float32{0, 1, 0, -1, 0}
	for _, w := range want {
		require.NoError(t, p.Tick())
		assert.InDelta(t, w, dac.LastData()[0], 1e-4)
	}
}

func Test_PassThroughChainPreservesValue(t *testing.T) {
	p := NewProcessor()
	c := p.AddNode(NewConstantNode(0.25, 1))
	pt1 := p.AddNode(NewPassThroughNode(1))
	pt2 := p.AddNode(NewPassThroughNode(1))
	pt3 := p.AddNode(NewPassThroughNode(1))
	d := p.AddNode(NewDACNode(1))

	for _, edge := range [][2]NodeUID{{c, pt1}, {pt1, pt2}, {pt2, pt3}, {pt3, d}} {
		_, err := p.Connect(edge[0], edge[1], 0, 0)
		require.NoError(t, err)
	}

	require.NoError(t, p.Tick())
	dac := mustDAC(t, p, d)
	assert.Equal(t, []float32{0.25}, dac.LastData())
}

func Test_VisitOrder_precedesConsumers(t *testing.T) {
	p := NewProcessor()
	c := p.AddNode(NewConstantNode(1, 1))
	pt := p.AddNode(NewPassThroughNode(1))
	d := p.AddNode(NewDACNode(1))
	_, err := p.Connect(c, pt, 0, 0)
	require.NoError(t, err)
	_, err = p.Connect(pt, d, 0, 0)
	require.NoError(t, err)

	order, err := p.VisitOrder()
	require.NoError(t, err)
	require.Len(t, order, 3)

	index := map[NodeUID]int{}
	for i, uid := range order {
		index[uid] = i
	}
	assert.Less(t, index[c], index[pt])
	assert.Less(t, index[pt], index[d])
}

func Test_Connect_invalidPortIndex(t *testing.T) {
	p := NewProcessor()
	c := p.AddNode(NewConstantNode(1, 1))
	d := p.AddNode(NewDACNode(1))

	_, err := p.Connect(c, d, 5, 0)
	require.Error(t, err)

	var portErr *PortIndexOutOfBoundsError
	require.ErrorAs(t, err, &portErr)
}

func Test_Connect_unknownNode(t *testing.T) {
	p := NewProcessor()
	d := p.AddNode(NewDACNode(1))

	_, err := p.Connect(NodeUID(999), d, 0, 0)
	require.ErrorIs(t, err, ErrNodeNotFound)
}

func Test_AddNodeWithUID_collision(t *testing.T) {
	p := NewProcessor()
	require.NoError(t, p.AddNodeWithUID(NewConstantNode(1, 1), 7))
	err := p.AddNodeWithUID(NewConstantNode(1, 1), 7)
	require.ErrorIs(t, err, ErrNodeAlreadyExists)
}

func Test_DACSum_mixesMultipleSinks(t *testing.T) {
	p := NewProcessor()
	c1 := p.AddNode(NewConstantNode(0.3, 1))
	c2 := p.AddNode(NewConstantNode(0.4, 1))
	d1 := p.AddNode(NewDACNode(1))
	d2 := p.AddNode(NewDACNode(1))

	_, err := p.Connect(c1, d1, 0, 0)
	require.NoError(t, err)
	_, err = p.Connect(c2, d2, 0, 0)
	require.NoError(t, err)

	require.NoError(t, p.Tick())

	out := make([]float32, 1)
	p.DACSum(out)
	assert.InDelta(t, 0.7, out[0], 1e-6)
}

func mustDAC(t *testing.T, p *Processor, uid NodeUID) *DACNode {
	t.Helper()
	n, ok := p.NodeByUID(uid)
	require.True(t, ok)
	dac, ok := n.(*DACNode)
	require.True(t, ok)
	return dac
}
