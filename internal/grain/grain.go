// Package grain implements the Grain state machine (spec.md §4.1): a read
// cursor that advances across a half-open [start,end) range exactly once.
//
// Grounded on original_source's
// audio/src/granular_synthesizer/granular_synthesizer_grain.rs.
package grain

// Grain is a bounded slice of a source buffer played back once, with a
// stable uid that survives every state transition of the same slot.
type Grain struct {
	start   uint32
	end     uint32
	current uint32
	uid     uint32

	initialized       bool
	finished          bool
	exceedsSelection  bool
}

// New builds a Grain over the half-open range [start,end). Preconditions:
// start < end. Violating it is a programming error, not a recoverable
// input — the caller is expected to have already validated the range
// before constructing a grain, so this panics rather than returning an
// error, matching the teacher's use of Assert() for internal invariants.
func New(start, end, uid uint32, initialized bool) Grain {
	if start >= end {
		panic("grain: start must be < end")
	}
	return Grain{
		start:       start,
		end:         end,
		current:     start,
		uid:         uid,
		initialized: initialized,
	}
}

// UID returns the grain's stable identity.
func (g *Grain) UID() uint32 { return g.uid }

// Initialized reports whether the grain has ever been given a playback
// range. A grain that played and was then moved back to the synthesizer's
// uninitialized collection still reports true.
func (g *Grain) Initialized() bool { return g.initialized }

// Finished reports whether the cursor has reached the end of its range.
func (g *Grain) Finished() bool { return g.finished }

// ExceedsSelection reports the flag set by ExceedsSelection-qualifying
// selection changes; see CalculateExceedsSelection.
func (g *Grain) ExceedsSelection() bool { return g.exceedsSelection }

// SetExceedsSelection stores the outcome of CalculateExceedsSelection for
// later use when the grain is recycled.
func (g *Grain) SetExceedsSelection(v bool) { g.exceedsSelection = v }

// Start, End, Current, Len expose the grain's current range.
func (g *Grain) Start() uint32   { return g.start }
func (g *Grain) End() uint32     { return g.end }
func (g *Grain) Current() uint32 { return g.current }
func (g *Grain) Len() uint32     { return g.end - g.start }

// Advance returns the pre-increment cursor and moves it forward by one.
// When the post-increment value equals end, the grain transitions to
// finished and future calls return (0, false).
func (g *Grain) Advance() (uint32, bool) {
	if g.finished {
		return 0, false
	}
	frame := g.current
	g.current++
	if g.current == g.end {
		g.finished = true
	}
	return frame, true
}

// RemainingSamples returns how many samples are left before the grain
// finishes.
func (g *Grain) RemainingSamples() uint32 {
	return g.end - g.current
}

// CalculateExceedsSelection reports whether the grain's current playback
// position has drifted outside [selStart, selEnd) — true iff current <
// selStart or end > selEnd.
func (g *Grain) CalculateExceedsSelection(selStart, selEnd uint32) bool {
	return g.current < selStart || g.end > selEnd
}

// Reinit moves a grain back into active playback over a new [start,end)
// range, reusing its uid and resetting finished/exceedsSelection.
func (g *Grain) Reinit(start, end uint32) {
	if start >= end {
		panic("grain: start must be < end")
	}
	g.start = start
	g.end = end
	g.current = start
	g.initialized = true
	g.finished = false
	g.exceedsSelection = false
}
