package config

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/reelcore/internal/logging"
	"github.com/kikiluvv/reelcore/pkg/util"
)

type contextKey string

const configKey contextKey = "config"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REELCORE_"

// Config holds all application configuration
type Config struct {
	Render RenderConfig `yaml:"render" toml:"render"`
	Audio  AudioConfig  `yaml:"audio" toml:"audio"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg" toml:"ffmpeg"`
	Output OutputConfig `yaml:"output" toml:"output"`
	Log    LogConfig    `yaml:"log" toml:"log"`
}

type RenderConfig struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
	// FPS accepts "30000/1001", "25" or "29.97".
	FPS              util.FrameRate `yaml:"fps" toml:"fps"`
	Background       string         `yaml:"background" toml:"background"`
	TransitionPolicy string         `yaml:"transition_policy" toml:"transition_policy"`
	TrackLimit       int            `yaml:"track_limit" toml:"track_limit"`
}

type AudioConfig struct {
	SampleRate int `yaml:"sample_rate" toml:"sample_rate"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path" toml:"binary_path"`
	Threads    int    `yaml:"threads" toml:"threads"`
	Preset     string `yaml:"preset" toml:"preset"`
	CRF        int    `yaml:"crf" toml:"crf"`
}

type LogConfig struct {
	// Level applies when neither --log-level nor --verbose is given.
	Level string `yaml:"level" toml:"level"`
}

type OutputConfig struct {
	FramesDir string `yaml:"frames_dir" toml:"frames_dir"`
	Workers   int    `yaml:"workers" toml:"workers"`
}

// Load reads configuration from file or returns defaults. Files ending in
// .toml are parsed as TOML, anything else as YAML. Environment overrides
// are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := decode(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Unmarshal(data, cfg)
	}
	return yaml.Unmarshal(data, cfg)
}

// Save writes configuration to file in the format its extension names.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = toml.Marshal(c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Width:            1280,
			Height:           720,
			FPS:              util.NewFrameRate(30, 1),
			Background:       "#000000",
			TransitionPolicy: "previous-wins",
		},
		Audio: AudioConfig{
			SampleRate: 44100,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    0,
			Preset:     "medium",
			CRF:        20,
		},
		Output: OutputConfig{
			FramesDir: "./frames",
			Workers:   4,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate rejects unusable values and fills zero values with defaults.
func (c *Config) Validate() error {
	def := Default()
	if c.Render.Width < 0 || c.Render.Height < 0 {
		return fmt.Errorf("invalid render size %dx%d", c.Render.Width, c.Render.Height)
	}
	if c.Render.Width == 0 || c.Render.Height == 0 {
		c.Render.Width, c.Render.Height = def.Render.Width, def.Render.Height
	}
	if c.Render.FPS.IsZero() {
		c.Render.FPS = def.Render.FPS
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Render.Background == "" {
		c.Render.Background = def.Render.Background
	}
	if _, err := ParseColor(c.Render.Background); err != nil {
		return err
	}
	switch strings.ToLower(c.Render.TransitionPolicy) {
	case "":
		c.Render.TransitionPolicy = def.Render.TransitionPolicy
	case "previous-wins", "strict":
	default:
		return fmt.Errorf("unknown transition policy %q", c.Render.TransitionPolicy)
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = def.Audio.SampleRate
	}
	if c.FFmpeg.BinaryPath == "" {
		c.FFmpeg.BinaryPath = def.FFmpeg.BinaryPath
	}
	if c.Output.Workers <= 0 {
		c.Output.Workers = def.Output.Workers
	}
	return nil
}

// BackgroundColor parses Render.Background.
func (c *Config) BackgroundColor() color.Color {
	bg, err := ParseColor(c.Render.Background)
	if err != nil {
		return color.Black
	}
	return bg
}

// ParseColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// applyEnv overrides fields from REELCORE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("BACKGROUND", &c.Render.Background)
	str("TRANSITION_POLICY", &c.Render.TransitionPolicy)
	str("FFMPEG_PATH", &c.FFmpeg.BinaryPath)
	str("FRAMES_DIR", &c.Output.FramesDir)
	str("LOG_LEVEL", &c.Log.Level)

	for key, dst := range map[string]*int{
		"WIDTH":       &c.Render.Width,
		"HEIGHT":      &c.Render.Height,
		"SAMPLE_RATE": &c.Audio.SampleRate,
		"THREADS":     &c.FFmpeg.Threads,
		"WORKERS":     &c.Output.Workers,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}

	if v, ok := lookup(EnvPrefix + "FPS"); ok {
		fps, err := util.ParseRate(v)
		if err != nil {
			return fmt.Errorf("invalid %sFPS: %w", EnvPrefix, err)
		}
		c.Render.FPS = fps
	}
	return nil
}

func findConfigFile() string {
	candidates := []string{
		"./reelcore.yaml",
		"./reelcore.yml",
		"./reelcore.toml",
		filepath.Join(os.Getenv("HOME"), ".reelcore", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".reelcore", "config.toml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
