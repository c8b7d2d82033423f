package pipeline

import (
	"github.com/kikiluvv/reelcore/internal/generator"
	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/internal/project"
	"github.com/kikiluvv/reelcore/internal/timeline"
)

// Plan is a built project: its timeline and the three build artifacts.
type Plan struct {
	Project   *project.Project
	Timeline  *timeline.Timeline
	Generator *generator.Generator
	*generator.Result
}

// Frame is one rendered still.
type Frame struct {
	Index int
	At    mediatime.Time
	Path  string
}

// ExportOptions configures a full render
type ExportOptions struct {
	OutputPath string
	FramesDir  string
	KeepFrames bool
}

// Config holds pipeline-specific configuration
type Config struct {
	Workers    int
	TrackLimit int
	SampleRate int
	CRF        int
	Preset     string
}
