// Package wav writes 16-bit PCM WAV files from the float32 frames a
// graph.RecordNode accumulates (spec.md §6 "Recording output"). Grounded
// on the teacher's own hand-rolled binary framing in src/kiss_frame.go
// (manual header + encoding/binary.Write, no container-format library);
// RIFF/WAV's 44-byte header and interleaved PCM body get the same
// treatment here, since nothing in the pack carries a WAV codec to
// ground on instead.
package wav

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/resonix-audio/resonix/internal/units"
)

const (
	bitsPerSample = 16
	maxInt16      = 32767
)

// WriteFile writes samples (interleaved by channel, in [-1,1] float32) as
// a 16-bit PCM WAV file to w.
func WriteFile(w io.Writer, samples []float32, sampleRate units.SampleRate, channels units.NumChannels) error {
	bw := bufio.NewWriter(w)

	dataSize := len(samples) * 2
	byteRate := uint32(sampleRate) * uint32(channels) * bitsPerSample / 8
	blockAlign := uint16(uint32(channels) * bitsPerSample / 8)

	if err := writeHeader(bw, uint32(dataSize), sampleRate, channels, byteRate, blockAlign); err != nil {
		return err
	}

	for _, s := range samples {
		if err := binary.Write(bw, binary.LittleEndian, floatToPCM16(s)); err != nil {
			return fmt.Errorf("wav: write sample: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("wav: flush: %w", err)
	}
	return nil
}

func writeHeader(w io.Writer, dataSize uint32, sampleRate units.SampleRate, channels units.NumChannels, byteRate uint32, blockAlign uint16) error {
	fields := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		uint32(36 + dataSize),
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),            // fmt chunk size
		uint16(1),              // PCM
		uint16(channels),
		uint32(sampleRate),
		byteRate,
		blockAlign,
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("wav: write header: %w", err)
		}
	}
	return nil
}

// floatToPCM16 converts a float32 sample in [-1,1] to a signed 16-bit PCM
// sample, clamping out-of-range input rather than wrapping (spec.md §6's
// documented f32 -> i16 mapping, amplitude 32767).
func floatToPCM16(s float32) int16 {
	v := float64(s) * maxInt16
	switch {
	case v > maxInt16:
		v = maxInt16
	case v < -maxInt16-1:
		v = -maxInt16 - 1
	}
	return int16(math.Round(v))
}
