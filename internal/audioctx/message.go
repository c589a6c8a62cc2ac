package audioctx

import "github.com/resonix-audio/resonix/internal/graph"

// structuralKind distinguishes the two structural request shapes
// (spec.md §4.8).
type structuralKind int

const (
	structuralAddNode structuralKind = iota
	structuralConnect
)

// structuralRequest is the opaque structural message: AddNode or Connect,
// carrying a reply channel the audio thread replies on before moving to
// the next queued message.
type structuralRequest struct {
	kind structuralKind

	node graph.Node // AddNode

	parentUID, childUID graph.NodeUID // Connect
	fromIdx, toIdx       int

	reply chan structuralReply
}

// structuralReply carries back whichever result matches the request kind.
type structuralReply struct {
	nodeUID graph.NodeUID
	connID  graph.ConnectionID
	err     error
}

// nodeUpdateRequest is the opaque per-node payload: a closure the
// audio thread applies to the concrete node found under uid via a type
// assertion (Go's downcast-mutation hook, per spec.md §4.8).
type nodeUpdateRequest struct {
	uid   graph.NodeUID
	apply func(graph.Node) error
	reply chan error
}
