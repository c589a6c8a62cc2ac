package audioctx

import "github.com/resonix-audio/resonix/internal/graph"

// NodeHandle[N] is a cheap, copyable reference to a node of concrete type
// N living inside an AudioContext (spec.md §4.8). It carries only the
// node's uid plus the owning context, so cloning it is free; all the
// weight is in Mutate's single round-trip through the context's routing.
type NodeHandle[N graph.Node] struct {
	uid graph.NodeUID
	ctx *AudioContext
}

// NewNodeHandle builds a handle for the node already registered under uid.
func NewNodeHandle[N graph.Node](ctx *AudioContext, uid graph.NodeUID) NodeHandle[N] {
	return NodeHandle[N]{uid: uid, ctx: ctx}
}

// UID returns the handle's target node uid.
func (h NodeHandle[N]) UID() graph.NodeUID { return h.uid }

// Mutate type-asserts the underlying node to N and applies fn to it,
// wherever that node currently lives — synchronously if the context is
// still Uninit, or via a round trip to the audio thread if Init. This is
// the strongly-typed surface spec.md §4.8 describes ("set sine
// frequency"): callers build small closures like
// `handle.Mutate(func(n *SineNode) error { n.SetFrequency(440); return nil })`
// instead of hand-building an opaque payload.
func (h NodeHandle[N]) Mutate(fn func(N) error) error {
	return h.ctx.mutate(h.uid, func(n graph.Node) error {
		typed, ok := n.(N)
		if !ok {
			return ErrWrongNodeType
		}
		return fn(typed)
	})
}

// Get is a convenience for read-only inspection: it runs Mutate with a
// closure that copies out the value fn returns. Use for cheap, race-free
// accessor reads (e.g. a node's current frequency) rather than caching a
// local copy that Init-mode mutations would invalidate.
func Get[N graph.Node, R any](h NodeHandle[N], fn func(N) R) (R, error) {
	var result R
	err := h.Mutate(func(n N) error {
		result = fn(n)
		return nil
	})
	return result, err
}
