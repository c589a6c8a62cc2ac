// Package config loads resonix.yaml, grounded on the teacher's own
// yaml.v3 usage in src/deviceid.go (there: tocalls.yaml describing
// vendor/model tables; here: a graph's starting parameters).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/resonix-audio/resonix/internal/downmix"
	"github.com/resonix-audio/resonix/internal/envelope"
	"github.com/resonix-audio/resonix/internal/units"
)

// Config is the top-level shape of resonix.yaml.
type Config struct {
	Audio  Audio  `yaml:"audio"`
	Synth  Synth  `yaml:"synth"`
	Mix    Mix    `yaml:"mix"`
	Record Record `yaml:"record"`
}

// Audio describes the device/output parameters.
type Audio struct {
	SampleRate      uint32 `yaml:"sample_rate"`
	Channels        uint32 `yaml:"channels"`
	FramesPerBuffer int    `yaml:"frames_per_buffer"`
}

// Synth describes the GranularSynthesizer's starting configuration.
type Synth struct {
	BufferPath          string  `yaml:"buffer_path"`
	NumChannels         uint32  `yaml:"num_channels"`
	SelectionStart      float64 `yaml:"selection_start"`
	SelectionEnd        float64 `yaml:"selection_end"`
	GrainLenMillis      int64   `yaml:"grain_len_ms"`
	GrainInitDelayMs    int64   `yaml:"grain_init_delay_ms"`
	Envelope            string  `yaml:"envelope"`
	Seed                int64   `yaml:"seed"`
}

// Mix describes the downmix stage.
type Mix struct {
	OutputChannels uint32 `yaml:"output_channels"`
	Strategy       string `yaml:"strategy"`
}

// Record describes the render binary's output file, if any.
type Record struct {
	WavPath   string `yaml:"wav_path"`
	NumFrames uint64 `yaml:"num_frames"`
}

// Load reads and parses the YAML config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 2
	}
	if c.Synth.NumChannels == 0 {
		c.Synth.NumChannels = 10
	}
	if c.Synth.GrainLenMillis == 0 {
		c.Synth.GrainLenMillis = int64(units.MinGrainLength.Milliseconds())
	}
	if c.Mix.OutputChannels == 0 {
		c.Mix.OutputChannels = c.Audio.Channels
	}
}

// DownmixStrategy maps the config's string name to a downmix.Strategy,
// defaulting to Panning (the perceptually correct variant) for an empty
// or unrecognized value.
func (c *Config) DownmixStrategy() downmix.Strategy {
	switch c.Mix.Strategy {
	case "simple":
		return downmix.Simple
	case "panning_fast":
		return downmix.PanningFast
	default:
		return downmix.Panning
	}
}

// EnvelopeKind maps the config's string name to an envelope.Type,
// defaulting to Sine for an empty or unrecognized value.
func (c *Config) EnvelopeKind() envelope.Type {
	switch c.Synth.Envelope {
	case "all0":
		return envelope.All0
	case "all1":
		return envelope.All1
	default:
		return envelope.Sine
	}
}
