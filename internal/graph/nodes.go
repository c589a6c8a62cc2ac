package graph

import (
	"math"

	"github.com/resonix-audio/resonix/internal/downmix"
	"github.com/resonix-audio/resonix/internal/synth"
	"github.com/resonix-audio/resonix/internal/units"
)

// ConstantNode (spec.md §4.6): 0 inputs, 1 output of a user-specified
// channel count, fills its output with a fixed scalar value.
type ConstantNode struct {
	baseNode
	value    float32
	channels units.NumChannels
}

// NewConstantNode builds a Constant node emitting value on a channels-wide
// output.
func NewConstantNode(value float32, channels units.NumChannels) *ConstantNode {
	return &ConstantNode{baseNode: baseNode{name: "ConstantNode"}, value: value, channels: channels}
}

func (n *ConstantNode) SetValue(v float32) { n.value = v }
func (n *ConstantNode) Value() float32     { return n.value }

func (n *ConstantNode) Process(_ []*Connection, outputs []*Connection) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0].DataMut()
	for i := range out {
		out[i] = n.value
	}
}

func (n *ConstantNode) NumInputConnections() int               { return 0 }
func (n *ConstantNode) NumOutputConnections() int               { return 1 }
func (n *ConstantNode) NumIncomingChannels() units.NumChannels  { return 0 }
func (n *ConstantNode) NumOutgoingChannels() units.NumChannels  { return n.channels }
func (n *ConstantNode) NodeKind() Kind                          { return KindInput }

// SineNode (spec.md §4.6): 0 inputs, 1 mono output. A phase accumulator;
// next sample = sin(phi); phi += 2*pi*frequency/sampleRate, wrapping
// modulo 2*pi.
type SineNode struct {
	baseNode
	frequency  float32
	sampleRate units.SampleRate
	phase      float64
}

// NewSineNode builds a Sine node at the given frequency. Its sample rate
// defaults to 44100 Hz until UpdateFromDACConfig supplies the real one.
func NewSineNode(frequency float32) *SineNode {
	return &SineNode{baseNode: baseNode{name: "SineNode"}, frequency: frequency, sampleRate: 44100}
}

func (n *SineNode) SetFrequency(f float32)    { n.frequency = f }
func (n *SineNode) Frequency() float32        { return n.frequency }
func (n *SineNode) SetSampleRate(sr units.SampleRate) { n.sampleRate = sr }
func (n *SineNode) SampleRate() units.SampleRate      { return n.sampleRate }

func (n *SineNode) Process(_ []*Connection, outputs []*Connection) {
	if len(outputs) == 0 {
		return
	}
	sample := float32(math.Sin(n.phase))
	out := outputs[0].DataMut()
	if len(out) > 0 {
		out[0] = sample
	}

	if n.sampleRate > 0 {
		n.phase += 2 * math.Pi * float64(n.frequency) / float64(n.sampleRate)
		n.phase = math.Mod(n.phase, 2*math.Pi)
	}
}

func (n *SineNode) NumInputConnections() int              { return 0 }
func (n *SineNode) NumOutputConnections() int              { return 1 }
func (n *SineNode) NumIncomingChannels() units.NumChannels { return 0 }
func (n *SineNode) NumOutgoingChannels() units.NumChannels { return 1 }
func (n *SineNode) NodeKind() Kind                         { return KindInput }
func (n *SineNode) RequiresAudioUpdates() bool              { return true }
func (n *SineNode) UpdateFromDACConfig(sr units.SampleRate, _ units.NumChannels) {
	n.sampleRate = sr
}

// PassThroughNode (spec.md §4.6): 1 input, 1 output; copies input to
// output unaltered.
type PassThroughNode struct {
	baseNode
	channels units.NumChannels
}

func NewPassThroughNode(channels units.NumChannels) *PassThroughNode {
	return &PassThroughNode{baseNode: baseNode{name: "PassThroughNode"}, channels: channels}
}

func (n *PassThroughNode) Process(inputs []*Connection, outputs []*Connection) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0].DataMut()
	if len(inputs) == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	copy(out, inputs[0].Data())
}

func (n *PassThroughNode) NumInputConnections() int              { return 1 }
func (n *PassThroughNode) NumOutputConnections() int              { return 1 }
func (n *PassThroughNode) NumIncomingChannels() units.NumChannels { return n.channels }
func (n *PassThroughNode) NumOutgoingChannels() units.NumChannels { return n.channels }
func (n *PassThroughNode) NodeKind() Kind                         { return KindEffect }

// MultiplyNode (spec.md §4.6): 2 inputs, 1 output; output[k] = in0[k] *
// in1[k].
type MultiplyNode struct {
	baseNode
	channels units.NumChannels
}

func NewMultiplyNode(channels units.NumChannels) *MultiplyNode {
	return &MultiplyNode{baseNode: baseNode{name: "MultiplyNode"}, channels: channels}
}

func (n *MultiplyNode) Process(inputs []*Connection, outputs []*Connection) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0].DataMut()
	var a, b []float32
	if len(inputs) > 0 {
		a = inputs[0].Data()
	}
	if len(inputs) > 1 {
		b = inputs[1].Data()
	}
	for i := range out {
		var av, bv float32
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		out[i] = av * bv
	}
}

func (n *MultiplyNode) NumInputConnections() int              { return 2 }
func (n *MultiplyNode) NumOutputConnections() int              { return 1 }
func (n *MultiplyNode) NumIncomingChannels() units.NumChannels { return n.channels }
func (n *MultiplyNode) NumOutgoingChannels() units.NumChannels { return n.channels }
func (n *MultiplyNode) NodeKind() Kind                         { return KindEffect }

// DownmixNode (spec.md §4.6): 1 M-channel input, 1 N-channel output;
// applies a chosen downmix.Strategy.
type DownmixNode struct {
	baseNode
	incoming units.NumChannels
	outgoing units.NumChannels
	strategy downmix.Strategy
}

func NewDownmixNode(incoming, outgoing units.NumChannels, strategy downmix.Strategy) *DownmixNode {
	return &DownmixNode{
		baseNode: baseNode{name: "DownmixNode"},
		incoming: incoming,
		outgoing: outgoing,
		strategy: strategy,
	}
}

func (n *DownmixNode) Process(inputs []*Connection, outputs []*Connection) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0].DataMut()
	var in []float32
	if len(inputs) > 0 {
		in = inputs[0].Data()
	}
	downmix.ToBuffer(n.strategy, in, out)
}

func (n *DownmixNode) NumInputConnections() int              { return 1 }
func (n *DownmixNode) NumOutputConnections() int              { return 1 }
func (n *DownmixNode) NumIncomingChannels() units.NumChannels { return n.incoming }
func (n *DownmixNode) NumOutgoingChannels() units.NumChannels { return n.outgoing }
func (n *DownmixNode) NodeKind() Kind                         { return KindEffect }

// MulticoreNode (spec.md §4.6): M mono inputs, packed into 1 M-channel
// output ("Multicore-combine").
type MulticoreNode struct {
	baseNode
	numInputs int
}

func NewMulticoreNode(numInputs int) *MulticoreNode {
	return &MulticoreNode{baseNode: baseNode{name: "MulticoreNode"}, numInputs: numInputs}
}

func (n *MulticoreNode) Process(inputs []*Connection, outputs []*Connection) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0].DataMut()
	for i := range out {
		if i < len(inputs) {
			d := inputs[i].Data()
			if len(d) > 0 {
				out[i] = d[0]
				continue
			}
		}
		out[i] = 0
	}
}

func (n *MulticoreNode) NumInputConnections() int              { return n.numInputs }
func (n *MulticoreNode) NumOutputConnections() int              { return 1 }
func (n *MulticoreNode) NumIncomingChannels() units.NumChannels { return 1 }
func (n *MulticoreNode) NumOutgoingChannels() units.NumChannels {
	return units.NumChannels(n.numInputs)
}
func (n *MulticoreNode) NodeKind() Kind { return KindEffect }

// GranularSynthesizerNode (spec.md §4.6): 0 inputs, 1 C-channel output;
// writes the next synthesizer frame each tick.
type GranularSynthesizerNode struct {
	baseNode
	synth *synth.GranularSynthesizer
}

func NewGranularSynthesizerNode(s *synth.GranularSynthesizer) *GranularSynthesizerNode {
	return &GranularSynthesizerNode{baseNode: baseNode{name: "GranularSynthesizerNode"}, synth: s}
}

// Synth exposes the underlying synthesizer for NodeHandle-style mutators.
func (n *GranularSynthesizerNode) Synth() *synth.GranularSynthesizer { return n.synth }

func (n *GranularSynthesizerNode) Process(_ []*Connection, outputs []*Connection) {
	if len(outputs) == 0 {
		return
	}
	n.synth.NextFrameInto(outputs[0].DataMut())
}

func (n *GranularSynthesizerNode) NumInputConnections() int { return 0 }
func (n *GranularSynthesizerNode) NumOutputConnections() int { return 1 }
func (n *GranularSynthesizerNode) NumIncomingChannels() units.NumChannels { return 0 }
func (n *GranularSynthesizerNode) NumOutgoingChannels() units.NumChannels {
	return units.NumChannels(n.synth.NumChannels())
}
func (n *GranularSynthesizerNode) NodeKind() Kind            { return KindInput }
func (n *GranularSynthesizerNode) RequiresAudioUpdates() bool { return true }
func (n *GranularSynthesizerNode) UpdateFromDACConfig(sr units.SampleRate, _ units.NumChannels) {
	n.synth.SetSampleRate(sr)
}

// DACNode (spec.md §4.6): the sink node — 1 input, 0 outputs. Records its
// input each tick; the audio callback reads its last value(s) via
// LastData.
type DACNode struct {
	baseNode
	channels units.NumChannels
	last     []float32
}

func NewDACNode(channels units.NumChannels) *DACNode {
	return &DACNode{baseNode: baseNode{name: "DACNode"}, channels: channels, last: make([]float32, channels)}
}

// LastData returns the samples the DAC node recorded on its most recent
// tick.
func (n *DACNode) LastData() []float32 { return n.last }

func (n *DACNode) Process(inputs []*Connection, _ []*Connection) {
	if len(inputs) == 0 {
		for i := range n.last {
			n.last[i] = 0
		}
		return
	}
	copy(n.last, inputs[0].Data())
}

func (n *DACNode) NumInputConnections() int              { return 1 }
func (n *DACNode) NumOutputConnections() int              { return 0 }
func (n *DACNode) NumIncomingChannels() units.NumChannels { return n.channels }
func (n *DACNode) NumOutgoingChannels() units.NumChannels { return 0 }
func (n *DACNode) NodeKind() Kind                         { return KindSink }

// RecordNode (supplemental, SPEC_FULL.md): a sink node that appends each
// tick's input samples to a growing in-memory buffer instead of exposing
// only the latest value, for the recording-output collaborator of
// spec.md §6. Grounded on original_source's
// crates/resonix_graph/src/nodes/record_node.rs. Unlike the other built-in
// nodes, its Process allocates whenever the recorded buffer grows.
type RecordNode struct {
	baseNode
	channels units.NumChannels
	recorded []float32
}

func NewRecordNode(channels units.NumChannels) *RecordNode {
	return &RecordNode{baseNode: baseNode{name: "RecordNode"}, channels: channels}
}

// Recorded returns every sample appended so far, interleaved by channel.
func (n *RecordNode) Recorded() []float32 { return n.recorded }

// Reset clears the recorded buffer.
func (n *RecordNode) Reset() { n.recorded = n.recorded[:0] }

func (n *RecordNode) Process(inputs []*Connection, _ []*Connection) {
	if len(inputs) == 0 {
		return
	}
	n.recorded = append(n.recorded, inputs[0].Data()...)
}

func (n *RecordNode) NumInputConnections() int              { return 1 }
func (n *RecordNode) NumOutputConnections() int              { return 0 }
func (n *RecordNode) NumIncomingChannels() units.NumChannels { return n.channels }
func (n *RecordNode) NumOutgoingChannels() units.NumChannels { return 0 }
func (n *RecordNode) NodeKind() Kind                         { return KindSink }
