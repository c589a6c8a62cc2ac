// Package dac adapts a graph.Processor, owned through an audioctx.AudioContext,
// onto a real audio device via github.com/gordonklaus/portaudio. Grounded
// on other_examples' chriskillpack-modplayer main.go: its
// portaudio.OpenDefaultStream(..., player.audioCB) call and
// interleaved-callback shape are reused here, with []float32 samples and
// with the tracker-mixer body
// of audioCB replaced by drain-messages/tick/read-sink (spec.md §4.9).
package dac

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/resonix-audio/resonix/internal/audioctx"
	"github.com/resonix-audio/resonix/internal/units"
)

// OnErrorFunc receives the errors that processor.Tick returns inside the
// device callback; the callback then writes silence for that frame and
// carries on. Device errors are not passed to it: Open, Start, Stop and
// Close return them to their caller, and nothing reports device problems
// that occur during a callback.
type OnErrorFunc func(error)

// Stream wraps one open portaudio.Stream driving a single AudioContext.
type Stream struct {
	ctx     *audioctx.AudioContext
	stream  *portaudio.Stream
	onError OnErrorFunc

	channels   units.NumChannels
	sampleRate units.SampleRate

	sumScratch []float32
}

// Config describes the device parameters requested at stream open time.
type Config struct {
	SampleRate units.SampleRate
	Channels   units.NumChannels
	// FramesPerBuffer of 0 requests portaudio.FramesPerBufferUnspecified.
	FramesPerBuffer int
	OnError         OnErrorFunc
}

// Open initializes portaudio, transitions ctx to Init (handing the
// processor to this stream's callback closure, per spec.md §4.8's
// ownership-transfer rule), and opens the default output stream.
// Callers must call Close when done.
func Open(ctx *audioctx.AudioContext, cfg Config) (*Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("dac: initialize portaudio: %w", err)
	}

	proc := ctx.InitializeDAC()
	proc.UpdateFromDACConfig(cfg.SampleRate, cfg.Channels)

	s := &Stream{
		ctx:        ctx,
		onError:    cfg.OnError,
		channels:   cfg.Channels,
		sampleRate: cfg.SampleRate,
		sumScratch: make([]float32, cfg.Channels),
	}
	if s.onError == nil {
		s.onError = func(error) {}
	}

	framesPerBuffer := cfg.FramesPerBuffer
	paStream, err := portaudio.OpenDefaultStream(
		0, int(cfg.Channels), float64(cfg.SampleRate),
		framesPerBufferOrUnspecified(framesPerBuffer),
		s.callback,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("dac: open default stream: %w", err)
	}
	s.stream = paStream
	return s, nil
}

func framesPerBufferOrUnspecified(n int) int {
	if n <= 0 {
		return portaudio.FramesPerBufferUnspecified
	}
	return n
}

// Start begins audio callbacks.
func (s *Stream) Start() error {
	if err := s.stream.Start(); err != nil {
		return fmt.Errorf("dac: start stream: %w", err)
	}
	return nil
}

// Stop halts audio callbacks without closing the device.
func (s *Stream) Stop() error {
	if err := s.stream.Stop(); err != nil {
		return fmt.Errorf("dac: stop stream: %w", err)
	}
	return nil
}

// Close stops and releases the device, then terminates portaudio.
func (s *Stream) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	if err != nil {
		return fmt.Errorf("dac: close stream: %w", err)
	}
	return nil
}

// callback is the portaudio device callback: it implements spec.md §4.9's
// three steps per invocation, once per frame in the interleaved output
// buffer it's handed.
func (s *Stream) callback(out []float32) {
	proc := s.ctx.Processor()
	numCh := int(s.channels)
	if numCh == 0 {
		return
	}

	for frameStart := 0; frameStart+numCh <= len(out); frameStart += numCh {
		s.ctx.DrainMessages()

		if err := proc.Tick(); err != nil {
			s.onError(fmt.Errorf("dac: tick: %w", err))
			for i := 0; i < numCh; i++ {
				out[frameStart+i] = 0
			}
			continue
		}

		proc.DACSum(s.sumScratch)
		for i := 0; i < numCh; i++ {
			if i < len(s.sumScratch) {
				out[frameStart+i] = s.sumScratch[i]
			} else {
				out[frameStart+i] = 0
			}
		}
	}
}
