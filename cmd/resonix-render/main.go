// Command resonix-render builds the same graph shape as resonix-play but
// ends in a RecordNode instead of a DAC, runs a fixed number of ticks
// with no audio device, and writes the recorded frames to a WAV file.
// This is the binary spec.md §8's test-confidence scenarios are easiest
// to check by ear against.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/resonix-audio/resonix/internal/config"
	"github.com/resonix-audio/resonix/internal/envelope"
	"github.com/resonix-audio/resonix/internal/graph"
	"github.com/resonix-audio/resonix/internal/logx"
	"github.com/resonix-audio/resonix/internal/synth"
	"github.com/resonix-audio/resonix/internal/units"
	"github.com/resonix-audio/resonix/internal/wav"
)

func main() {
	configPath := pflag.StringP("config", "c", "resonix.yaml", "Path to resonix.yaml")
	logLevel := pflag.StringP("log-level", "l", "info", "Log level: debug, info, warn, error")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - render a granular-synthesis graph to a WAV file.\n", os.Args[0])
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

	proc, recUID, err := buildRenderGraph(cfg, buf)
	if err != nil {
		log.Fatal("build graph", "err", err)
	}
	proc.UpdateFromDACConfig(units.SampleRate(cfg.Audio.SampleRate), units.NumChannels(cfg.Mix.OutputChannels))

	numFrames := cfg.Record.NumFrames
	if numFrames == 0 {
		numFrames = uint64(cfg.Audio.SampleRate) * 5
	}

	start := time.Now()
	for i := uint64(0); i < numFrames; i++ {
		if err := proc.Tick(); err != nil {
			log.Fatal("tick", "err", err, "frame", i)
		}
	}
	log.Info("rendered", "frames", numFrames, "elapsed", time.Since(start))

	n, ok := proc.NodeByUID(recUID)
	if !ok {
		log.Fatal("record node missing after render")
	}
	rec := n.(*graph.RecordNode)

	out, err := os.Create(cfg.Record.WavPath)
	if err != nil {
		log.Fatal("create output", "err", err)
	}
	defer out.Close()

	if err := wav.WriteFile(out, rec.Recorded(), units.SampleRate(cfg.Audio.SampleRate), units.NumChannels(cfg.Mix.OutputChannels)); err != nil {
		log.Fatal("write wav", "err", err)
	}
	log.Info("wrote wav", "path", cfg.Record.WavPath, "samples", len(rec.Recorded()))
}

func buildRenderGraph(cfg *config.Config, buf *units.Buffer) (*graph.Processor, graph.NodeUID, error) {
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

	proc := graph.NewProcessor()
	synUID := proc.AddNode(graph.NewGranularSynthesizerNode(s))

	downUID := proc.AddNode(graph.NewDownmixNode(
		units.NumChannels(cfg.Synth.NumChannels),
		units.NumChannels(cfg.Mix.OutputChannels),
		cfg.DownmixStrategy(),
	))
	if _, err := proc.Connect(synUID, downUID, 0, 0); err != nil {
		return nil, 0, err
	}

	recUID := proc.AddNode(graph.NewRecordNode(units.NumChannels(cfg.Mix.OutputChannels)))
	if _, err := proc.Connect(downUID, recUID, 0, 0); err != nil {
		return nil, 0, err
	}

	return proc, recUID, nil
}

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
