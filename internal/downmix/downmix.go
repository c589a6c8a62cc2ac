// Package downmix implements the three pure strategies mapping an
// M-channel frame to an N-channel frame (spec.md §4.3), grounded on
// original_source's
// crates/resonix_core/src/downmixers/{downmix_simple,downmix_panning,downmix_panning_fast}.rs.
//
// All three write into a caller-provided buffer; none allocates.
package downmix

import "math"

// Strategy selects which downmix algorithm a Downmix node runs.
type Strategy int

const (
	Simple Strategy = iota
	Panning
	PanningFast
)

// ToBuffer applies s, mapping in (M channels) onto out (N channels). out
// is zeroed and fully rewritten. M==0 or N==0 leaves out zeroed in all
// three strategies; M==N is a straight copy in the two panning strategies
// only, while Simple still applies its weighted sum.
func ToBuffer(s Strategy, in []float32, out []float32) {
	switch s {
	case Panning:
		PanningToBuffer(in, out)
	case PanningFast:
		PanningFastToBuffer(in, out)
	default:
		SimpleToBuffer(in, out)
	}
}

// SimpleToBuffer: every input contributes equally; each output sample is
// (1/sqrt(N)) * (1/N) * sum(inputs). O(M).
//
// Unlike the panning variants below, the original source's simple
// downmixer has no M==0/N==0/M==N short-circuit — it always runs the same
// weighted-sum formula, which is what makes the documented energy
// invariant (downmix_simple([x;N], N) == [x*sqrt(N)/N; N]) hold. Adding a
// straight-copy shortcut for M==N here, as spec.md's general edge-case
// bullet might suggest, would contradict that invariant and the original,
// so this follows the original exactly (see DESIGN.md).
func SimpleToBuffer(in []float32, out []float32) {
	n := len(out)
	if n == 0 {
		return
	}

	channelWeight := float32(1.0 / float64(n))
	var sum float32
	for _, s := range in {
		sum += s * channelWeight
	}
	normalization := float32(1.0 / math.Sqrt(float64(n)))
	sum *= normalization

	for i := range out {
		out[i] = sum
	}
}

// PanningToBuffer is the slower, perceptually accurate variant: weight is
// sqrt(1 - |p_in - p_out|) using (M-1)/(N-1)-normalized positions,
// normalized by N^2 at the end. O(M*N).
func PanningToBuffer(in []float32, out []float32) {
	m, n := len(in), len(out)
	if m == 0 || n == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	if m == n {
		copy(out, in)
		return
	}

	for i := range out {
		out[i] = 0
	}

	for i, sampleIn := range in {
		inProgress := float64(i) / float64(m-1)
		for j := range out {
			outProgress := float64(j) / float64(n-1)
			diff := inProgress - outProgress
			if diff < 0 {
				diff = -diff
			}
			weight := math.Sqrt(1.0 - diff)
			out[j] += sampleIn * float32(weight)
		}
	}

	normalization := float32(n) * float32(n)
	for i := range out {
		out[i] /= normalization
	}
}

// PanningFastToBuffer mirrors PanningToBuffer's shape but skips the
// sqrt (weight is 1 - |p_in - p_out|, positions normalized by M/N rather
// than (M-1)/(N-1)) and normalizes by cbrt(M/N) instead of N^2 — this
// matches the original source's fast variant exactly, which diverges from
// spec.md's simplified unified description of both panning variants (see
// DESIGN.md). O(M*N), no sqrt.
func PanningFastToBuffer(in []float32, out []float32) {
	m, n := len(in), len(out)
	if m == 0 || n == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	if m == n {
		copy(out, in)
		return
	}

	for i := range out {
		out[i] = 0
	}

	for i, sampleIn := range in {
		inProgress := float64(i) / float64(m)
		for j := range out {
			outProgress := float64(j) / float64(n)
			diff := outProgress - inProgress
			if diff < 0 {
				diff = -diff
			}
			weight := 1.0 - diff
			out[j] += sampleIn * float32(weight)
		}
	}

	scaleDivisor := math.Cbrt(float64(m) / float64(n))
	for i := range out {
		out[i] /= float32(scaleDivisor)
	}
}
