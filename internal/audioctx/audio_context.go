// Package audioctx implements the control-thread/audio-thread boundary
// (spec.md §4.8, §5): an AudioContext that owns a graph.Processor
// synchronously while Uninit, then hands it to the audio callback and
// answers every further mutation through a pair of non-blocking
// channels, drained at the start of each callback tick.
//
// Grounded on original_source's crates/resonix_graph/src/
// {audio_context.rs,node_handle.rs,message.rs,messages.rs}; see
// DESIGN.md for why stdlib chan replaces the original's async-channel
// crate.
package audioctx

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/resonix-audio/resonix/internal/graph"
)

// logger reports structural/node-update errors routed through the
// async reply channels at Error level, independent of any per-binary
// logx.New level, since a caller can discard the reply without noticing.
var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

// State distinguishes the two AudioContext lifecycle phases (spec.md
// §4.8).
type State int32

const (
	// StateUninit: the processor lives on the control thread; mutations
	// apply synchronously in-place.
	StateUninit State = iota
	// StateInit: the processor has moved into the audio callback's
	// closure; mutations are enqueued and applied at the start of the
	// next callback.
	StateInit
)

// ErrWrongNodeType is returned by NodeHandle.Mutate when the uid no
// longer names a node of the handle's type parameter.
var ErrWrongNodeType = errors.New("node is not of the expected type")

// messageQueueDepth bounds each control channel; a full queue means the
// control thread is producing faster than audio callbacks can drain,
// which is a misconfiguration this package surfaces as a send-time
// blocking wait rather than silently growing without bound.
const messageQueueDepth = 256

// maxMessagesPerDrain bounds the per-callback drain loop so a burst of
// queued requests cannot starve the audio deadline (spec.md §4.9).
const maxMessagesPerDrain = 64

// AudioContext is the single owner of a graph.Processor across its
// Uninit/Init lifecycle.
type AudioContext struct {
	state atomic.Int32

	processor *graph.Processor

	structuralCh chan *structuralRequest
	nodeUpdateCh chan *nodeUpdateRequest

	nextCorrelationID atomic.Uint64
}

// New builds an AudioContext in the Uninit state, owning a fresh,
// empty processor.
func New() *AudioContext {
	return &AudioContext{
		processor:    graph.NewProcessor(),
		structuralCh: make(chan *structuralRequest, messageQueueDepth),
		nodeUpdateCh: make(chan *nodeUpdateRequest, messageQueueDepth),
	}
}

// State reports the context's current lifecycle phase.
func (ctx *AudioContext) State() State {
	return State(ctx.state.Load())
}

// InitializeDAC transitions Uninit -> Init and returns the processor the
// audio callback must now own exclusively; after this call the control
// thread must reach the processor only through AddNode/Connect/NodeHandle,
// never directly.
func (ctx *AudioContext) InitializeDAC() *graph.Processor {
	ctx.state.Store(int32(StateInit))
	return ctx.processor
}

// AddNode inserts n, synchronously if Uninit, or via the structural
// channel (round-tripping to the audio thread) if Init.
func (ctx *AudioContext) AddNode(n graph.Node) (graph.NodeUID, error) {
	if ctx.State() == StateUninit {
		return ctx.processor.AddNode(n), nil
	}

	req := &structuralRequest{
		kind:  structuralAddNode,
		node:  n,
		reply: make(chan structuralReply, 1),
	}
	ctx.structuralCh <- req
	resp := <-req.reply
	return resp.nodeUID, resp.err
}

// Connect wires parentUID's fromIdx output to childUID's toIdx input,
// synchronously if Uninit, or via the structural channel if Init.
func (ctx *AudioContext) Connect(parentUID, childUID graph.NodeUID, fromIdx, toIdx int) (graph.ConnectionID, error) {
	if ctx.State() == StateUninit {
		return ctx.processor.Connect(parentUID, childUID, fromIdx, toIdx)
	}

	req := &structuralRequest{
		kind:      structuralConnect,
		parentUID: parentUID, childUID: childUID,
		fromIdx: fromIdx, toIdx: toIdx,
		reply: make(chan structuralReply, 1),
	}
	ctx.structuralCh <- req
	resp := <-req.reply
	return resp.connID, resp.err
}

// mutate applies fn to the node stored under uid, synchronously if
// Uninit, or via the per-node update channel if Init. It is the shared
// implementation behind every NodeHandle[N].Mutate call.
func (ctx *AudioContext) mutate(uid graph.NodeUID, apply func(graph.Node) error) error {
	if ctx.State() == StateUninit {
		n, ok := ctx.processor.NodeByUID(uid)
		if !ok {
			logger.Error("mutate", "uid", uid, "err", graph.ErrNodeNotFound)
			return fmt.Errorf("mutate node %d: %w", uid, graph.ErrNodeNotFound)
		}
		return apply(n)
	}

	req := &nodeUpdateRequest{uid: uid, apply: apply, reply: make(chan error, 1)}
	ctx.nodeUpdateCh <- req
	return <-req.reply
}

// DrainMessages applies every queued structural and per-node message in
// send order, up to maxMessagesPerDrain each, then returns. It must be
// called by the audio callback before each processor.Tick (spec.md
// §4.9 step 1) and must never block: both channel receives below are
// non-blocking, so a burst larger than the bound is simply left for the
// next callback.
func (ctx *AudioContext) DrainMessages() {
structuralLoop:
	for i := 0; i < maxMessagesPerDrain; i++ {
		select {
		case req := <-ctx.structuralCh:
			ctx.handleStructural(req)
		default:
			break structuralLoop
		}
	}

nodeUpdateLoop:
	for i := 0; i < maxMessagesPerDrain; i++ {
		select {
		case req := <-ctx.nodeUpdateCh:
			n, ok := ctx.processor.NodeByUID(req.uid)
			if !ok {
				logger.Error("mutate", "uid", req.uid, "err", graph.ErrNodeNotFound)
				req.reply <- fmt.Errorf("mutate node %d: %w", req.uid, graph.ErrNodeNotFound)
				continue
			}
			req.reply <- req.apply(n)
		default:
			break nodeUpdateLoop
		}
	}
}

func (ctx *AudioContext) handleStructural(req *structuralRequest) {
	switch req.kind {
	case structuralAddNode:
		uid := ctx.processor.AddNode(req.node)
		req.reply <- structuralReply{nodeUID: uid}
	case structuralConnect:
		connID, err := ctx.processor.Connect(req.parentUID, req.childUID, req.fromIdx, req.toIdx)
		req.reply <- structuralReply{connID: connID, err: err}
	}
}

// Processor exposes the owned processor for the dac adapter's Tick/DACSum
// calls once Init; callers other than the dac adapter should prefer
// AddNode/Connect/NodeHandle so mutations stay correctly routed.
func (ctx *AudioContext) Processor() *graph.Processor {
	return ctx.processor
}
