package graph

import "github.com/resonix-audio/resonix/internal/units"

// NodeUID is a stable, small integer identifier for a node within one
// Processor, assigned by the processor on insertion.
type NodeUID uint64

// Kind classifies a node by its position in the graph, used by the
// processor for input/sink bookkeeping.
type Kind int

const (
	KindInput Kind = iota
	KindEffect
	KindSink
)

// Node is the uniform unit of computation in the graph (spec.md §4.6). A
// node's Process method must not block or allocate on the audio thread;
// node-specific mutators are reached by a plain Go type assertion on the
// Node interface value (Go's answer to the original's downcast-by-Any
// hook — no separate AsAny indirection is needed).
type Node interface {
	// Process reads inputs and writes outputs for one tick. Both slices
	// are ordered by the edge index used when the connection was made.
	Process(inputs []*Connection, outputs []*Connection)

	NumInputConnections() int
	NumOutputConnections() int
	NumIncomingChannels() units.NumChannels
	NumOutgoingChannels() units.NumChannels

	UID() NodeUID
	SetUID(NodeUID)
	Name() string
	NodeKind() Kind

	// RequiresAudioUpdates reports whether the processor should call
	// UpdateFromDACConfig once the audio device's sample rate and channel
	// count are known (used by Sine and GranularSynthesizer to learn the
	// real sample rate instead of a default).
	RequiresAudioUpdates() bool
	UpdateFromDACConfig(sampleRate units.SampleRate, numChannels units.NumChannels)
}

// baseNode factors the uid/name bookkeeping shared by every built-in node.
type baseNode struct {
	uid  NodeUID
	name string
}

func (b *baseNode) UID() NodeUID     { return b.uid }
func (b *baseNode) SetUID(u NodeUID) { b.uid = u }
func (b *baseNode) Name() string     { return b.name }

// RequiresAudioUpdates/UpdateFromDACConfig default to a no-op; Sine and
// GranularSynthesizer override them.
func (b *baseNode) RequiresAudioUpdates() bool { return false }
func (b *baseNode) UpdateFromDACConfig(units.SampleRate, units.NumChannels) {}
