// Package units holds the small scalar and shared-buffer types that the
// rest of resonix is built from: clamped percentages, channel/sample-rate
// counts, durations with domain-specific bounds, and the immutable source
// audio buffer.
package units

import "time"

// Percentage is a scalar clamped to [0,1], used for selection boundaries.
type Percentage float64

// Clamp returns p constrained to [0,1].
func (p Percentage) Clamp() Percentage {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// NewPercentage builds a Percentage, clamping v into [0,1].
func NewPercentage(v float64) Percentage {
	return Percentage(v).Clamp()
}

// NumChannels is a positive channel count. Zero is a valid transient value
// (e.g. an empty graph edge) but most operations treat it as "no signal".
type NumChannels uint32

// SampleRate is a positive integer sample rate in Hz.
type SampleRate uint32

// Duration bounds used across the grain scheduler (spec.md §6).
const (
	MinGrainLength = 20 * time.Millisecond
	MaxGrainLength = 1000 * time.Millisecond

	// MaxGrainInitDelay bounds the grain-initialization delay to a small
	// non-negative range so that grains stagger without stalling for long
	// stretches between new voices.
	MaxGrainInitDelay = 250 * time.Millisecond

	// MaxChannelCount is the configurable safety cap on channel count.
	MaxChannelCount = 500
)

// ClampGrainLength constrains d to [MinGrainLength, MaxGrainLength].
func ClampGrainLength(d time.Duration) time.Duration {
	switch {
	case d < MinGrainLength:
		return MinGrainLength
	case d > MaxGrainLength:
		return MaxGrainLength
	default:
		return d
	}
}

// ClampGrainInitDelay constrains d to [0, MaxGrainInitDelay].
func ClampGrainInitDelay(d time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d > MaxGrainInitDelay:
		return MaxGrainInitDelay
	default:
		return d
	}
}

// DurationInSamples converts a duration to a sample count at the given
// sample rate, rounding to the nearest sample.
func DurationInSamples(d time.Duration, sr SampleRate) uint32 {
	if sr == 0 {
		return 0
	}
	samples := d.Seconds() * float64(sr)
	if samples < 0 {
		return 0
	}
	return uint32(samples + 0.5)
}

// Buffer is an immutable, shared, read-only sequence of 32-bit float mono
// samples with a known sample rate. It is created by a decoder
// collaborator outside this module's scope and shared by reference for as
// long as any holder (synthesizer, UI visualizer, ...) needs it — Go's
// garbage collector plays the role the original's reference-counted
// handle played, per SPEC_FULL.md's "Shared buffer vs. exclusive
// ownership" design note.
type Buffer struct {
	samples    []float32
	sampleRate SampleRate
}

// NewBuffer wraps samples (not copied) with the given sample rate.
func NewBuffer(samples []float32, sampleRate SampleRate) *Buffer {
	return &Buffer{samples: samples, sampleRate: sampleRate}
}

// Len returns the number of samples in the buffer.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.samples)
}

// SampleRate returns the buffer's sample rate.
func (b *Buffer) SampleRate() SampleRate {
	if b == nil {
		return 0
	}
	return b.sampleRate
}

// At returns the sample at index i. Out-of-range indices return 0 rather
// than panicking, since buffer/selection boundaries are continuous,
// UI-driven inputs that are clamped rather than rejected (spec.md §7).
func (b *Buffer) At(i int) float32 {
	if b == nil || i < 0 || i >= len(b.samples) {
		return 0
	}
	return b.samples[i]
}
