package ffmpeg

import (
	"context"
	"encoding/binary"
	"image"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/pkg/util"
)

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

// makeTestVideo renders a short synthetic clip with a tone track.
func makeTestVideo(t *testing.T, e *Executor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mp4")
	err := e.Run(context.Background(), RunOptions{
		Args: []string{
			"-f", "lavfi", "-i", "testsrc=size=320x240:rate=25:duration=2",
			"-f", "lavfi", "-i", "sine=frequency=440:duration=2",
			"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "aac", "-shortest",
			path,
		},
		Quiet: true,
	})
	if err != nil {
		t.Skipf("cannot synthesize test video: %v", err)
	}
	return path
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	skipIfNoFFmpeg(t)
	e, err := New(zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}), "", 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return e
}

func TestExecutorCreation(t *testing.T) {
	e := newTestExecutor(t)
	if e.ffmpegPath == "" {
		t.Error("ffmpeg path is empty")
	}
	if e.ffprobePath == "" {
		t.Error("ffprobe path is empty")
	}
}

func TestExecutorMissingBinary(t *testing.T) {
	_, err := New(zerolog.Nop(), "definitely-not-ffmpeg", 0)
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestProbeAndDecode(t *testing.T) {
	e := newTestExecutor(t)
	path := makeTestVideo(t, e)
	ctx := context.Background()

	info, err := e.ProbeVideo(ctx, path)
	if err != nil {
		t.Fatalf("ProbeVideo failed: %v", err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if !info.HasAudio {
		t.Error("expected an audio stream")
	}
	if info.Duration < time.Second {
		t.Errorf("duration too short: %v", info.Duration)
	}

	img, err := e.DecodeFrame(ctx, path, mediatime.FromSeconds(1, 600), image.Pt(160, 120))
	if err != nil {
		t.Fatalf("DecodeFrame failed: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(160, 120) {
		t.Errorf("expected 160x120 frame, got %v", got)
	}

	samples, err := e.DecodeAudio(ctx, path, mediatime.Seconds(0, 0.5), 8000)
	if err != nil {
		t.Fatalf("DecodeAudio failed: %v", err)
	}
	if len(samples) < 3900 || len(samples) > 4100 {
		t.Errorf("expected about 4000 samples, got %d", len(samples))
	}
}

func TestProbeVideoInvalidFile(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	if _, err := e.ProbeVideo(ctx, "nonexistent.mp4"); err == nil {
		t.Error("ProbeVideo should fail for non-existent file")
	}
	if _, err := e.ProbeVideo(ctx, ""); err == nil {
		t.Error("ProbeVideo should fail for empty path")
	}
}

func TestParseProbe(t *testing.T) {
	raw := []byte(`{
		"format": {"duration": "12.500000"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264", "width": 1080, "height": 1920,
			 "r_frame_rate": "30000/1001", "side_data_list": [{"rotation": -90}]},
			{"codec_type": "audio", "codec_name": "aac", "sample_rate": "48000"}
		]
	}`)

	info, err := parseProbe(raw)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.Duration != 12500*time.Millisecond {
		t.Errorf("unexpected duration %v", info.Duration)
	}
	if info.Rotation != 90 {
		t.Errorf("expected rotation 90, got %d", info.Rotation)
	}
	if math.Abs(info.FPS-29.97) > 0.01 {
		t.Errorf("unexpected fps %f", info.FPS)
	}
	if !info.HasAudio || info.SampleRate != 48000 {
		t.Errorf("unexpected audio info %+v", info)
	}

	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseF64LE(t *testing.T) {
	raw := make([]byte, 40)
	binary.LittleEndian.PutUint64(raw[0:], math.Float64bits(0.5))
	binary.LittleEndian.PutUint64(raw[8:], math.Float64bits(-0.25))
	binary.LittleEndian.PutUint64(raw[16:], math.Float64bits(1))
	binary.LittleEndian.PutUint64(raw[24:], math.Float64bits(0))

	samples := parseF64LE(raw)
	if len(samples) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(samples))
	}
	if samples[0] != [2]float64{0.5, -0.25} || samples[1] != [2]float64{1, 0} {
		t.Errorf("unexpected samples %v", samples)
	}
}

func TestFilterChain(t *testing.T) {
	chain := FilterChain{}.ScaleTo(image.Pt(1920, 1080)).EvenDimensions().PixelFormat("yuv420p")

	expected := "scale=1920:1080:flags=bilinear,crop=trunc(iw/2)*2:trunc(ih/2)*2:0:0,format=pix_fmts=yuv420p"
	if chain.String() != expected {
		t.Errorf("expected %q, got %q", expected, chain.String())
	}
	if got := chain.args("-vf"); len(got) != 2 || got[0] != "-vf" {
		t.Errorf("unexpected args %v", got)
	}
}

func TestFilterChainSkipsInvalid(t *testing.T) {
	chain := FilterChain{}.ScaleTo(image.Pt(0, 1080)).PixelFormat("").PadAudio(-1)
	if chain.String() != "" {
		t.Errorf("expected empty string, got %q", chain.String())
	}
	if got := chain.args("-af"); got != nil {
		t.Errorf("expected no args, got %v", got)
	}
	if got := (FilterChain{}).PadAudio(1.5).String(); got != "apad=whole_dur=1.500000" {
		t.Errorf("unexpected pad filter %q", got)
	}
}

func TestEncodeValidation(t *testing.T) {
	tests := []struct {
		name string
		opts EncodeOptions
	}{
		{"no pattern", EncodeOptions{Output: "out.mp4", Rate: util.NewFrameRate(30, 1)}},
		{"no output", EncodeOptions{Pattern: "%06d.png", Rate: util.NewFrameRate(30, 1)}},
		{"no rate", EncodeOptions{Pattern: "%06d.png", Output: "out.mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateEncodeOptions(tt.opts); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
