package character

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSettings is returned by Settings.Validate
var ErrInvalidSettings = errors.New("invalid character settings")

const (
	DefaultStepsPerTick = 1.0
	DefaultStallLimit   = 8
	MaxStepsPerTick     = 4.0

	// CellWidth and CellHeight size one frame in the character sheet
	CellWidth  = 16
	CellHeight = 32
)

// Settings tunes movement and animation for every character in an office
type Settings struct {
	StepsPerTick float64             `json:"stepsPerTick"`
	StallLimit   int                 `json:"stallLimit"`
	Animations   map[State][]float64 `json:"animations,omitempty"`
}

// DefaultSettings returns one tile per tick, an eight tick stall limit and
// the stock frame tables.
func DefaultSettings() Settings {
	return Settings{
		StepsPerTick: DefaultStepsPerTick,
		StallLimit:   DefaultStallLimit,
		Animations:   DefaultAnimations(),
	}
}

// DefaultAnimations returns frame durations in seconds per state
func DefaultAnimations() map[State][]float64 {
	return map[State][]float64{
		Idle:    {0.5},
		Walking: {0.15, 0.15, 0.15, 0.15},
		Typing:  {0.3, 0.3},
		Reading: {0.3, 0.3},
		Waiting: {1.0},
	}
}

// Validate checks ranges and fills missing animation tables with defaults
func (s *Settings) Validate() error {
	if s.StepsPerTick <= 0 || s.StepsPerTick > MaxStepsPerTick || math.IsNaN(s.StepsPerTick) {
		return fmt.Errorf("%w: stepsPerTick must be in (0, %v], got %v", ErrInvalidSettings, MaxStepsPerTick, s.StepsPerTick)
	}
	if s.StallLimit < 1 {
		return fmt.Errorf("%w: stallLimit must be at least 1, got %d", ErrInvalidSettings, s.StallLimit)
	}
	merged := DefaultAnimations()
	for state, frames := range s.Animations {
		if len(frames) > 0 {
			merged[state] = append([]float64(nil), frames...)
		}
	}
	s.Animations = merged
	for state, frames := range s.Animations {
		for i, d := range frames {
			if d <= 0 {
				return fmt.Errorf("%w: %s frame %d has non-positive duration %v", ErrInvalidSettings, state, i, d)
			}
		}
	}
	return nil
}

func (s *Settings) frames(state State) []float64 {
	if frames := s.Animations[state]; len(frames) > 0 {
		return frames
	}
	return DefaultAnimations()[state]
}

// animate advances the accumulator and derives the looped frame index
func (c *Character) animate(dt float64, s *Settings) {
	frames := s.frames(c.State)
	var cycle float64
	for _, d := range frames {
		cycle += d
	}
	if cycle <= 0 {
		c.Frame = 0
		return
	}
	if dt > 0 {
		c.AnimTime = math.Mod(c.AnimTime+dt, cycle)
	}

	t := c.AnimTime
	for i, d := range frames {
		if t < d {
			c.Frame = i
			return
		}
		t -= d
	}
	c.Frame = len(frames) - 1
}

// Sprite locates one frame in the character sheet
type Sprite struct {
	Col    int  `json:"col"`
	Row    int  `json:"row"`
	X      int  `json:"x"`
	Y      int  `json:"y"`
	W      int  `json:"w"`
	H      int  `json:"h"`
	Mirror bool `json:"mirror,omitempty"`
}

var sheetColumns = map[State][]int{
	Walking: {0, 1, 2, 1},
	Typing:  {3, 4},
	Reading: {5, 6},
	Idle:    {1},
	Waiting: {3},
}

// SpriteRegion answers which sheet cell to draw for a state, frame and
// facing. Left reuses the right-facing row mirrored.
func SpriteRegion(state State, frame int, facing Direction) Sprite {
	cols, ok := sheetColumns[state]
	if !ok {
		cols = sheetColumns[Idle]
	}
	if frame < 0 {
		frame = 0
	}
	col := cols[frame%len(cols)]

	row := 0
	mirror := false
	switch facing {
	case Up:
		row = 1
	case Right:
		row = 2
	case Left:
		row = 2
		mirror = true
	}

	return Sprite{
		Col:    col,
		Row:    row,
		X:      col * CellWidth,
		Y:      row * CellHeight,
		W:      CellWidth,
		H:      CellHeight,
		Mirror: mirror,
	}
}
