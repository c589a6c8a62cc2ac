package graph

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/resonix-audio/resonix/internal/units"
)

// logger reports structural graph errors at Error level before they are
// returned, so a CLI operator sees the failure even if the caller
// ignores it. Independent of any per-binary logx.New level, since these
// are never meant to be filtered out.
var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

// Error kinds from spec.md §7. Callers use errors.Is/errors.As to
// distinguish them; PortIndexOutOfBoundsError additionally carries the
// offending names and expected maxima.
var (
	ErrNodeAlreadyExists = errors.New("node already exists")
	ErrNodeNotFound      = errors.New("node not found")
	ErrGraphCycle        = errors.New("graph cycle: visit order did not converge")
)

// PortIndexOutOfBoundsError is returned by Connect when from/to index is
// not a valid port on the named node.
type PortIndexOutOfBoundsError struct {
	ParentName     string
	ChildName      string
	FromIndex      int
	ExpectedFromMax int
	ToIndex        int
	ExpectedToMax  int
}

func (e *PortIndexOutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"port index out of bounds: connecting %q (output %d, max %d) to %q (input %d, max %d)",
		e.ParentName, e.FromIndex, e.ExpectedFromMax, e.ChildName, e.ToIndex, e.ExpectedToMax,
	)
}

// MaxGraphVisits bounds the visit-order readiness loop; exceeding it
// indicates a cycle (spec.md §4.7, §7 GraphCycle).
const MaxGraphVisits = 1 << 16

// Processor owns the directed graph: every node by uid, every connection
// by id, and the cached visit order (spec.md §4.7). It is the structure
// that is transferred, as a whole, from the control thread to the audio
// callback closure on DAC initialization (spec.md §5).
type Processor struct {
	nodes       map[NodeUID]Node
	connections map[ConnectionID]*Connection

	outgoing map[NodeUID][]ConnectionID
	incoming map[NodeUID][]ConnectionID
	connTo   map[ConnectionID]NodeUID

	inputNodeUIDs []NodeUID
	dacNodeUIDs   []NodeUID

	nextNodeUID NodeUID
	nextConnID  ConnectionID

	visitOrder      []NodeUID
	visitOrderValid bool

	inScratch  []*Connection
	outScratch []*Connection
}

// NewProcessor builds an empty Processor.
func NewProcessor() *Processor {
	return &Processor{
		nodes:       make(map[NodeUID]Node),
		connections: make(map[ConnectionID]*Connection),
		outgoing:    make(map[NodeUID][]ConnectionID),
		incoming:    make(map[NodeUID][]ConnectionID),
		connTo:      make(map[ConnectionID]NodeUID),
	}
}

// AddNode inserts n, assigning it a fresh uid, and returns that uid. A
// processor-minted uid can never collide, so this never errors; it exists
// alongside AddNodeWithUID, which does surface NodeAlreadyExists, for
// callers (e.g. a control-thread message replaying a specific uid) that
// need the collision check.
func (p *Processor) AddNode(n Node) NodeUID {
	uid := p.nextNodeUID
	p.nextNodeUID++
	// a fresh counter value can never already be present.
	_ = p.AddNodeWithUID(n, uid)
	return uid
}

// AddNodeWithUID inserts n under an explicit uid, failing with
// ErrNodeAlreadyExists if that uid is already in use.
func (p *Processor) AddNodeWithUID(n Node, uid NodeUID) error {
	if _, exists := p.nodes[uid]; exists {
		logger.Error("add node", "name", n.Name(), "uid", uid, "err", ErrNodeAlreadyExists)
		return fmt.Errorf("add node %q (uid %d): %w", n.Name(), uid, ErrNodeAlreadyExists)
	}

	n.SetUID(uid)
	p.nodes[uid] = n
	if _, ok := p.outgoing[uid]; !ok {
		p.outgoing[uid] = nil
	}
	if _, ok := p.incoming[uid]; !ok {
		p.incoming[uid] = nil
	}
	if uid >= p.nextNodeUID {
		p.nextNodeUID = uid + 1
	}

	if n.NumInputConnections() == 0 {
		p.inputNodeUIDs = append(p.inputNodeUIDs, uid)
	}
	if _, ok := n.(*DACNode); ok {
		p.dacNodeUIDs = append(p.dacNodeUIDs, uid)
	}

	p.invalidateVisitOrder()
	return nil
}

// NodeByUID returns the node stored under uid, for callers that need to
// type-assert it to a concrete type to reach node-specific mutators.
func (p *Processor) NodeByUID(uid NodeUID) (Node, bool) {
	n, ok := p.nodes[uid]
	return n, ok
}

// Connect wires parentUID's fromIdx-th output to childUID's toIdx-th
// input, creating a new Connection sized to the parent's outgoing channel
// count. Both endpoints must already exist; fromIdx/toIdx are validated
// against the endpoints' declared port counts.
func (p *Processor) Connect(parentUID, childUID NodeUID, fromIdx, toIdx int) (ConnectionID, error) {
	parent, ok := p.nodes[parentUID]
	if !ok {
		logger.Error("connect", "parent_uid", parentUID, "err", ErrNodeNotFound)
		return 0, fmt.Errorf("connect: parent uid %d: %w", parentUID, ErrNodeNotFound)
	}
	child, ok := p.nodes[childUID]
	if !ok {
		logger.Error("connect", "child_uid", childUID, "err", ErrNodeNotFound)
		return 0, fmt.Errorf("connect: child uid %d: %w", childUID, ErrNodeNotFound)
	}

	if fromIdx < 0 || fromIdx >= parent.NumOutputConnections() {
		err := &PortIndexOutOfBoundsError{
			ParentName: parent.Name(), ChildName: child.Name(),
			FromIndex: fromIdx, ExpectedFromMax: parent.NumOutputConnections() - 1,
			ToIndex: toIdx, ExpectedToMax: child.NumInputConnections() - 1,
		}
		logger.Error("connect", "err", err)
		return 0, err
	}
	if toIdx < 0 || toIdx >= child.NumInputConnections() {
		err := &PortIndexOutOfBoundsError{
			ParentName: parent.Name(), ChildName: child.Name(),
			FromIndex: fromIdx, ExpectedFromMax: parent.NumOutputConnections() - 1,
			ToIndex: toIdx, ExpectedToMax: child.NumInputConnections() - 1,
		}
		logger.Error("connect", "err", err)
		return 0, err
	}

	connID := p.nextConnID
	p.nextConnID++

	channels := uint32(parent.NumOutgoingChannels())
	conn := NewConnection(connID, channels)
	p.connections[connID] = conn
	p.connTo[connID] = childUID

	p.outgoing[parentUID] = append(p.outgoing[parentUID], connID)
	p.incoming[childUID] = append(p.incoming[childUID], connID)

	p.invalidateVisitOrder()
	return connID, nil
}

// Connection returns the connection stored under id.
func (p *Processor) Connection(id ConnectionID) (*Connection, bool) {
	c, ok := p.connections[id]
	return c, ok
}

func (p *Processor) invalidateVisitOrder() {
	p.visitOrderValid = false
	p.visitOrder = nil
}

// VisitOrder returns the cached topological-ish traversal order, computing
// it first if the graph has been structurally mutated since the last
// computation.
func (p *Processor) VisitOrder() ([]NodeUID, error) {
	if p.visitOrderValid {
		return p.visitOrder, nil
	}
	order, err := p.computeVisitOrder()
	if err != nil {
		return nil, err
	}
	p.visitOrder = order
	p.visitOrderValid = true
	return order, nil
}

// computeVisitOrder implements spec.md §4.7's algorithm: DFS from every
// input node builds a candidate queue, then an iterative readiness loop
// emits a node once every incoming edge has been produced by an
// already-emitted node, re-queuing it otherwise. Bounded by
// MaxGraphVisits; exceeding it is a GraphCycle error rather than the
// original's panic (spec.md §7 — GraphCycle is fatal but recoverable by
// value, not a crash).
func (p *Processor) computeVisitOrder() ([]NodeUID, error) {
	if len(p.inputNodeUIDs) == 0 {
		return nil, nil
	}

	seenDFS := make(map[NodeUID]bool)
	var queue []NodeUID

	var dfs func(uid NodeUID)
	dfs = func(uid NodeUID) {
		if seenDFS[uid] {
			return
		}
		seenDFS[uid] = true
		queue = append(queue, uid)
		for _, connID := range p.outgoing[uid] {
			dfs(p.connTo[connID])
		}
	}
	for _, uid := range p.inputNodeUIDs {
		dfs(uid)
	}

	produced := make(map[ConnectionID]bool)
	emitted := make(map[NodeUID]bool)
	final := make([]NodeUID, 0, len(queue))

	iterations := 0
	for len(queue) > 0 {
		iterations++
		if iterations > MaxGraphVisits {
			logger.Error("compute visit order", "err", ErrGraphCycle, "iterations", iterations)
			return nil, ErrGraphCycle
		}

		uid := queue[0]
		queue = queue[1:]

		ready := true
		for _, connID := range p.incoming[uid] {
			if !produced[connID] {
				ready = false
				break
			}
		}
		if !ready {
			queue = append(queue, uid)
			continue
		}

		if !emitted[uid] {
			final = append(final, uid)
			emitted[uid] = true
		}
		for _, connID := range p.outgoing[uid] {
			produced[connID] = true
		}
	}

	return final, nil
}

// Tick computes the visit order (lazily, if invalidated) and runs every
// node's Process exactly once, in an order where every node's incoming
// connections have already been written by the time it runs.
func (p *Processor) Tick() error {
	order, err := p.VisitOrder()
	if err != nil {
		return err
	}

	for _, uid := range order {
		n := p.nodes[uid]
		inIDs := p.incoming[uid]
		outIDs := p.outgoing[uid]

		if cap(p.inScratch) < len(inIDs) {
			p.inScratch = make([]*Connection, len(inIDs))
		}
		ins := p.inScratch[:len(inIDs)]
		for i, id := range inIDs {
			ins[i] = p.connections[id]
		}

		if cap(p.outScratch) < len(outIDs) {
			p.outScratch = make([]*Connection, len(outIDs))
		}
		outs := p.outScratch[:len(outIDs)]
		for i, id := range outIDs {
			outs[i] = p.connections[id]
		}

		n.Process(ins, outs)
	}

	return nil
}

// DACSum writes into out the channel-aligned sum of every registered DAC
// sink node's last recorded frame (spec.md §4.7 "Sink extraction").
func (p *Processor) DACSum(out []float32) {
	for i := range out {
		out[i] = 0
	}
	for _, uid := range p.dacNodeUIDs {
		dac, ok := p.nodes[uid].(*DACNode)
		if !ok {
			continue
		}
		data := dac.LastData()
		for i := 0; i < len(data) && i < len(out); i++ {
			out[i] += data[i]
		}
	}
}

// UpdateFromDACConfig propagates the now-known sample rate and channel
// count to every node that requested it (Sine, GranularSynthesizer).
func (p *Processor) UpdateFromDACConfig(sampleRate units.SampleRate, numChannels units.NumChannels) {
	for _, n := range p.nodes {
		if n.RequiresAudioUpdates() {
			n.UpdateFromDACConfig(sampleRate, numChannels)
		}
	}
}
