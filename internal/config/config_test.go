package config

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kikiluvv/reelcore/pkg/util"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
render:
  width: 640
  height: 360
  transition_policy: strict
  fps: 29.97
output:
  workers: 8
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Render.Width)
	assert.Equal(t, "strict", cfg.Render.TransitionPolicy)
	assert.Equal(t, util.FrameRate{Num: 30000, Den: 1001}, cfg.Render.FPS)
	assert.Equal(t, 8, cfg.Output.Workers)
	assert.Equal(t, 44100, cfg.Audio.SampleRate, "unset fields keep defaults")
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelcore.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[render]
fps = "24000/1001"
background = "#ff0000"

[ffmpeg]
threads = 2
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, util.FrameRate{Num: 24000, Den: 1001}, cfg.Render.FPS)
	assert.Equal(t, 2, cfg.FFmpeg.Threads)
	assert.Equal(t, color.Color(color.RGBA{R: 255, A: 255}), cfg.BackgroundColor())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Render, cfg.Render)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REELCORE_WIDTH", "320")
	t.Setenv("REELCORE_FPS", "12.5")
	t.Setenv("REELCORE_TRANSITION_POLICY", "strict")
	t.Setenv("REELCORE_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Render.Width)
	assert.Equal(t, util.FrameRate{Num: 25, Den: 2}, cfg.Render.FPS)
	assert.Equal(t, "strict", cfg.Render.TransitionPolicy)
	assert.Equal(t, "debug", cfg.Log.Level)

	t.Setenv("REELCORE_WORKERS", "many")
	_, err = Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero fills", func(c *Config) { c.Render.FPS = util.FrameRate{}; c.Output.Workers = 0 }, false},
		{"negative size", func(c *Config) { c.Render.Width = -1 }, true},
		{"bad color", func(c *Config) { c.Render.Background = "#zzz" }, true},
		{"bad policy", func(c *Config) { c.Render.TransitionPolicy = "latest" }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"empty log level", func(c *Config) { c.Log.Level = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, cfg.Render.FPS.Float())
			assert.Positive(t, cfg.Output.Workers)
		})
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#0f0")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, c)

	c, err = ParseColor("11223380")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x80}, c)
}

func TestSaveRoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.toml")
	cfg := Default()
	cfg.Render.Width = 1920
	cfg.Render.FPS = util.NewFrameRate(30000, 1001)
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, loaded.Render.Width)
	assert.Equal(t, util.FrameRate{Num: 30000, Den: 1001}, loaded.Render.FPS)
}

func TestContext(t *testing.T) {
	assert.Equal(t, Default(), FromContext(context.Background()))

	cfg := Default()
	cfg.Output.Workers = 2
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
