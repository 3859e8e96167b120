// Package scenario defines the YAML script format for replaying a meeting
// without a real Zoom window. A script is a timeline of frames; each frame
// says what the participants panel looks like from that offset onward.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalidScript = errors.New("invalid scenario script")

// Entry is one participant row as a frame presents it.
type Entry struct {
	Name     string `yaml:"name"`
	CameraOn bool   `yaml:"camera_on"`
	PinCount int    `yaml:"pin_count"`
	CoHost   bool   `yaml:"co_host"`
}

// Frame is the panel contents from At seconds after the script starts,
// holding until the next frame takes over. Unavailable frames simulate the
// panel being unreadable (meeting window hidden, mid-transition, etc).
type Frame struct {
	At           float64 `yaml:"at"`
	Unavailable  bool    `yaml:"unavailable"`
	Participants []Entry `yaml:"participants"`
}

// Offset converts the frame's At seconds into a duration.
func (f Frame) Offset() time.Duration {
	return time.Duration(f.At * float64(time.Second))
}

type Script struct {
	Name   string  `yaml:"name"`
	Frames []Frame `yaml:"frames"`
}

func Load(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.validate(); err != nil {
		return Script{}, err
	}
	return s, nil
}

func (s Script) validate() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("%w: no frames", ErrInvalidScript)
	}
	prev := -1.0
	for i, f := range s.Frames {
		if f.At < 0 {
			return fmt.Errorf("%w: frame %d has negative offset %v", ErrInvalidScript, i, f.At)
		}
		if f.At <= prev {
			return fmt.Errorf("%w: frame %d offset %v not after %v", ErrInvalidScript, i, f.At, prev)
		}
		prev = f.At
		for j, p := range f.Participants {
			if p.Name == "" {
				return fmt.Errorf("%w: frame %d participant %d has no name", ErrInvalidScript, i, j)
			}
			if p.PinCount < 0 {
				return fmt.Errorf("%w: frame %d participant %q has negative pin count", ErrInvalidScript, i, p.Name)
			}
		}
	}
	return nil
}

// FrameAt returns the frame in effect after elapsed script time: the last
// frame whose offset is not in the future. Before the first frame there is
// no panel to read and ok is false.
func (s Script) FrameAt(elapsed time.Duration) (Frame, bool) {
	var (
		cur   Frame
		found bool
	)
	for _, f := range s.Frames {
		if f.Offset() > elapsed {
			break
		}
		cur = f
		found = true
	}
	return cur, found
}
