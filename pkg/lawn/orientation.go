package lawn

import (
	"errors"
	"fmt"
	"strings"
)

// Orientation is one of the four compass points a mower can face
type Orientation uint8

const (
	North Orientation = iota
	East
	South
	West
)

// ErrUnknownOrientation is returned when an orientation symbol cannot be parsed
var ErrUnknownOrientation = errors.New("unknown orientation")

var orientationSymbols = [...]string{
	North: "N",
	East:  "E",
	South: "S",
	West:  "W",
}

// Rotation tables. Right follows N→E→S→W→N, left is the reverse cycle.
var (
	rightOf = [...]Orientation{North: East, East: South, South: West, West: North}
	leftOf  = [...]Orientation{North: West, West: South, South: East, East: North}
)

// Orientations returns all orientations in clockwise order starting at North
func Orientations() []Orientation {
	return []Orientation{North, East, South, West}
}

// ParseOrientation parses a single-letter orientation symbol (N, E, S, W)
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "N":
		return North, nil
	case "E":
		return East, nil
	case "S":
		return South, nil
	case "W":
		return West, nil
	}
	return North, fmt.Errorf("%w: %q", ErrUnknownOrientation, s)
}

// Valid reports whether o is one of the four compass points
func (o Orientation) Valid() bool {
	return o <= West
}

// Left returns the orientation after a quarter turn counter-clockwise
func (o Orientation) Left() Orientation {
	if !o.Valid() {
		return o
	}
	return leftOf[o]
}

// Right returns the orientation after a quarter turn clockwise
func (o Orientation) Right() Orientation {
	if !o.Valid() {
		return o
	}
	return rightOf[o]
}

func (o Orientation) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Orientation(%d)", uint8(o))
	}
	return orientationSymbols[o]
}

// MarshalText encodes the orientation as its single-letter symbol
func (o Orientation) MarshalText() ([]byte, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrientation, uint8(o))
	}
	return []byte(orientationSymbols[o]), nil
}

// UnmarshalText decodes a single-letter orientation symbol
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
