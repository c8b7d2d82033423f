// Package project reads declarative edit documents and resolves them into
// timelines.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/reelcore/internal/mediatime"
	"github.com/kikiluvv/reelcore/pkg/util"
)

// Timestamp is a time written as SS.mmm, MM:SS or HH:MM:SS.mmm.
type Timestamp time.Duration

func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	d, err := util.ParseTimestamp(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = Timestamp(d)
	return nil
}

func (t Timestamp) MarshalYAML() (interface{}, error) {
	return util.FormatDuration(time.Duration(t)), nil
}

// Time converts t to a media time.
func (t Timestamp) Time() mediatime.Time {
	return mediatime.FromDuration(time.Duration(t))
}

// Project is an edit document.
type Project struct {
	Name       string         `yaml:"name"`
	Background string         `yaml:"background,omitempty"`
	Filter     string         `yaml:"filter,omitempty"`
	Width      int            `yaml:"width,omitempty"`
	Height     int            `yaml:"height,omitempty"`
	FPS        util.FrameRate `yaml:"fps,omitempty"`
	Clips      []Clip         `yaml:"clips"`
	Overlays   []Overlay      `yaml:"overlays,omitempty"`
	Audios     []Audio        `yaml:"audios,omitempty"`

	// dir resolves relative media paths.
	dir string
}

// Source names the media behind a clip or overlay. Exactly one field is set.
type Source struct {
	File  string `yaml:"file,omitempty"`
	Image string `yaml:"image,omitempty"`
	Color string `yaml:"color,omitempty"`
}

// Clip is a main channel entry.
type Clip struct {
	Source      `yaml:",inline"`
	In          Timestamp   `yaml:"in,omitempty"`
	Duration    Timestamp   `yaml:"duration,omitempty"`
	Speed       float64     `yaml:"speed,omitempty"`
	Volume      *float64    `yaml:"volume,omitempty"`
	Opacity     *float64    `yaml:"opacity,omitempty"`
	ContentMode string      `yaml:"content_mode,omitempty"`
	Filter      string      `yaml:"filter,omitempty"`
	Transition  *Transition `yaml:"transition,omitempty"`
}

// Transition is the transition into the following clip.
type Transition struct {
	Name     string    `yaml:"name"`
	Duration Timestamp `yaml:"duration"`
	Audio    *bool     `yaml:"audio,omitempty"`
}

// Overlay is a free-floating picture over the main channel.
type Overlay struct {
	Source    `yaml:",inline"`
	Start     Timestamp  `yaml:"start"`
	Duration  Timestamp  `yaml:"duration"`
	Frame     []int      `yaml:"frame,omitempty"`
	Opacity   *float64   `yaml:"opacity,omitempty"`
	Keyframes []Keyframe `yaml:"keyframes,omitempty"`
}

// Keyframe animates an overlay relative to its start.
type Keyframe struct {
	At      Timestamp `yaml:"at"`
	Scale   float64   `yaml:"scale,omitempty"`
	X       float64   `yaml:"x,omitempty"`
	Y       float64   `yaml:"y,omitempty"`
	Opacity *float64  `yaml:"opacity,omitempty"`
	Easing  string    `yaml:"easing,omitempty"`
}

// Audio is a free-floating sound placed at Start.
type Audio struct {
	File     string    `yaml:"file"`
	Start    Timestamp `yaml:"start"`
	In       Timestamp `yaml:"in,omitempty"`
	Duration Timestamp `yaml:"duration,omitempty"`
	Volume   *float64  `yaml:"volume,omitempty"`
	FadeIn   Timestamp `yaml:"fade_in,omitempty"`
	FadeOut  Timestamp `yaml:"fade_out,omitempty"`
}

// Load reads a project document. Relative media paths resolve against
// the document's directory.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	if p.Name == "" {
		p.Name = util.TrimExtension(filepath.Base(path))
	}
	return p, nil
}

// Parse decodes a project document and checks its structure.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the document as YAML.
func (p *Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks source selection, speeds and durations.
func (p *Project) Validate() error {
	if len(p.Clips) == 0 && len(p.Overlays) == 0 && len(p.Audios) == 0 {
		return fmt.Errorf("project has nothing to compose")
	}
	for i, c := range p.Clips {
		if err := c.Source.validate(); err != nil {
			return fmt.Errorf("clip %d: %w", i, err)
		}
		if c.Speed < 0 {
			return fmt.Errorf("clip %d: negative speed %g", i, c.Speed)
		}
		if c.File == "" && c.Duration <= 0 {
			return fmt.Errorf("clip %d: %s needs a duration", i, c.Source.kind())
		}
		if c.Transition != nil && c.Transition.Duration < 0 {
			return fmt.Errorf("clip %d: negative transition duration", i)
		}
	}
	for i, o := range p.Overlays {
		if err := o.Source.validate(); err != nil {
			return fmt.Errorf("overlay %d: %w", i, err)
		}
		if o.Duration <= 0 {
			return fmt.Errorf("overlay %d: duration must be positive", i)
		}
		if len(o.Frame) != 0 && len(o.Frame) != 4 {
			return fmt.Errorf("overlay %d: frame needs x, y, width and height", i)
		}
	}
	for i, a := range p.Audios {
		if a.File == "" {
			return fmt.Errorf("audio %d: file is required", i)
		}
	}
	return nil
}

func (s Source) kind() string {
	switch {
	case s.File != "":
		return "file"
	case s.Image != "":
		return "image"
	case s.Color != "":
		return "color"
	}
	return "none"
}

func (s Source) validate() error {
	n := 0
	for _, v := range []string{s.File, s.Image, s.Color} {
		if v != "" {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("exactly one of file, image or color is required")
	}
	return nil
}
