// Package graph implements the audio processing graph (spec.md §4.5–4.7):
// typed multi-channel Connections, the Node interface and its built-ins,
// and the Processor that owns the graph, computes a cached visit order,
// and executes one tick.
//
// Grounded on original_source's crates/resonix_graph/src/{connection.rs,
// processor.rs,nodes/*.rs}; see DESIGN.md for how the multi-channel
// Connection shape was resolved against a stale single-float snapshot of
// connection.rs.
package graph

// ConnectionID identifies a Connection (graph edge) within one Processor.
type ConnectionID uint64

// Connection carries one frame's worth of samples across a graph edge: a
// channel count fixed at construction and a same-sized data vector. It
// has no buffering beyond the current frame — the graph is single-tick
// pull, so history is the consuming node's responsibility, per spec.md
// §4.5.
type Connection struct {
	id       ConnectionID
	channels uint32
	data     []float32
}

// NewConnection builds a Connection with channels samples, all zeroed.
func NewConnection(id ConnectionID, channels uint32) *Connection {
	return &Connection{id: id, channels: channels, data: make([]float32, channels)}
}

// ID returns the connection's stable identity.
func (c *Connection) ID() ConnectionID { return c.id }

// Channels returns the connection's fixed channel count.
func (c *Connection) Channels() uint32 { return c.channels }

// Data returns a read-only view of the current frame's samples. Callers
// must not mutate the returned slice.
func (c *Connection) Data() []float32 { return c.data }

// DataMut returns a writable view of the current frame's samples, sized
// to Channels().
func (c *Connection) DataMut() []float32 { return c.data }
