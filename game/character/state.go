package character

import (
	"fmt"
	"strings"
)

// State is the behavior state driving both logic and animation
type State int

const (
	Idle State = iota
	Walking
	Typing
	Reading
	Waiting
)

var stateNames = [...]string{"idle", "walking", "typing", "reading", "waiting"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Working is true for the states spent seated at a desk
func (s State) Working() bool {
	return s == Typing || s == Reading || s == Waiting
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState converts a state name, case-insensitively
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			return State(i), nil
		}
	}
	return Idle, fmt.Errorf("unknown state %q", name)
}

// Direction is the facing of a character
type Direction int

const (
	Down Direction = iota
	Up
	Right
	Left
)

var directionNames = [...]string{"down", "up", "right", "left"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	for i, n := range directionNames {
		if strings.EqualFold(n, string(text)) {
			*d = Direction(i)
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", text)
}

// facingFor maps a movement delta to a facing; zero deltas keep the current one
func facingFor(dx, dy int, current Direction) Direction {
	switch {
	case dx > 0:
		return Right
	case dx < 0:
		return Left
	case dy < 0:
		return Up
	case dy > 0:
		return Down
	default:
		return current
	}
}

var readTools = map[string]bool{
	"read":      true,
	"grep":      true,
	"glob":      true,
	"webfetch":  true,
	"websearch": true,
}

// IsReadTool reports whether a tool only inspects, as opposed to writing
func IsReadTool(name string) bool {
	return readTools[strings.ToLower(strings.TrimSpace(name))]
}

// workState picks the seated state for a tool
func workState(tool string) State {
	if IsReadTool(tool) {
		return Reading
	}
	return Typing
}
