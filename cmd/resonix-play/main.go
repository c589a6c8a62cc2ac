// Command resonix-play builds a GranularSynthesizer -> Downmix -> DAC
// graph from a resonix.yaml config and a raw float32 buffer file, starts
// real playback through portaudio, and accepts line-oriented commands on
// stdin to mutate the running graph.
package main

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/resonix-audio/resonix/internal/audioctx"
	"github.com/resonix-audio/resonix/internal/config"
	"github.com/resonix-audio/resonix/internal/dac"
	"github.com/resonix-audio/resonix/internal/envelope"
	"github.com/resonix-audio/resonix/internal/graph"
	"github.com/resonix-audio/resonix/internal/logx"
	"github.com/resonix-audio/resonix/internal/synth"
	"github.com/resonix-audio/resonix/internal/units"
)

func main() {
	configPath := pflag.StringP("config", "c", "resonix.yaml", "Path to resonix.yaml")
	logLevel := pflag.StringP("log-level", "l", "info", "Log level: debug, info, warn, error")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - play a granular-synthesis graph through the default audio device.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	log := logx.New(*logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("load config", "err", err)
	}

	buf, err := loadF32Buffer(cfg.Synth.BufferPath, units.SampleRate(cfg.Audio.SampleRate))
	if err != nil {
		log.Fatal("load buffer", "err", err)
	}

	ctx := audioctx.New()
	synUID, downUID, err := buildGraph(ctx, cfg, buf)
	if err != nil {
		log.Fatal("build graph", "err", err)
	}
	_ = downUID

	stream, err := dac.Open(ctx, dac.Config{
		SampleRate:      units.SampleRate(cfg.Audio.SampleRate),
		Channels:        units.NumChannels(cfg.Audio.Channels),
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		OnError: func(err error) {
			log.Warn("audio callback", "err", err)
		},
	})
	if err != nil {
		log.Fatal("open device", "err", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		log.Fatal("start stream", "err", err)
	}
	defer stream.Stop()

	log.Info("playing", "sample_rate", cfg.Audio.SampleRate, "channels", cfg.Audio.Channels)

	synHandle := audioctx.NewNodeHandle[*graph.GranularSynthesizerNode](ctx, synUID)
	runControlLoop(synHandle)
}

func buildGraph(ctx *audioctx.AudioContext, cfg *config.Config, buf *units.Buffer) (graph.NodeUID, graph.NodeUID, error) {
	s := synth.New(cfg.Synth.Seed)
	s.SetBuffer(buf)
	s.SetNumChannels(cfg.Synth.NumChannels)
	s.SetSelectionStart(units.NewPercentage(cfg.Synth.SelectionStart))
	s.SetSelectionEnd(units.NewPercentage(cfg.Synth.SelectionEnd))
	s.SetGrainLen(time.Duration(cfg.Synth.GrainLenMillis) * time.Millisecond)
	s.SetGrainInitializationDelay(time.Duration(cfg.Synth.GrainInitDelayMs) * time.Millisecond)

	switch cfg.EnvelopeKind() {
	case envelope.All0:
		s.SetEnvelope(envelope.NewAll0())
	case envelope.All1:
		s.SetEnvelope(envelope.NewAll1())
	}

	synUID, err := ctx.AddNode(graph.NewGranularSynthesizerNode(s))
	if err != nil {
		return 0, 0, err
	}

	downUID, err := ctx.AddNode(graph.NewDownmixNode(
		units.NumChannels(cfg.Synth.NumChannels),
		units.NumChannels(cfg.Mix.OutputChannels),
		cfg.DownmixStrategy(),
	))
	if err != nil {
		return 0, 0, err
	}
	if _, err := ctx.Connect(synUID, downUID, 0, 0); err != nil {
		return 0, 0, err
	}

	dacUID, err := ctx.AddNode(graph.NewDACNode(units.NumChannels(cfg.Mix.OutputChannels)))
	if err != nil {
		return 0, 0, err
	}
	if _, err := ctx.Connect(downUID, dacUID, 0, 0); err != nil {
		return 0, 0, err
	}

	return synUID, downUID, nil
}

// loadF32Buffer reads a file of consecutive little-endian float32 samples.
func loadF32Buffer(path string, sampleRate units.SampleRate) (*units.Buffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw)%4 != 0 {
		raw = raw[:len(raw)-len(raw)%4]
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	return units.NewBuffer(samples, sampleRate), nil
}

// runControlLoop reads newline-delimited commands from stdin and applies
// them to the running synthesizer via its NodeHandle (spec.md §4.8's
// strongly-typed mutation surface); "quit" exits the loop.
func runControlLoop(h audioctx.NodeHandle[*graph.GranularSynthesizerNode]) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit":
			return
		case "selection":
			if len(fields) != 3 {
				continue
			}
			start, err1 := strconv.ParseFloat(fields[1], 64)
			end, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			h.Mutate(func(n *graph.GranularSynthesizerNode) error {
				n.Synth().SetSelectionStart(units.NewPercentage(start))
				n.Synth().SetSelectionEnd(units.NewPercentage(end))
				return nil
			})
		case "grain-length":
			if len(fields) != 2 {
				continue
			}
			d, err := time.ParseDuration(fields[1])
			if err != nil {
				continue
			}
			h.Mutate(func(n *graph.GranularSynthesizerNode) error {
				n.Synth().SetGrainLen(d)
				return nil
			})
		}
	}
}
