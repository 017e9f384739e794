// Package scenario loads simulation inputs: a lawn plus an ordered list of
// mowers, each with a start position and a program.
//
// Two formats are supported. The line format is the classic one:
//
//	5 5
//	1 2 N
//	GAGAGAGAA
//	3 3 E
//	AADAADADDA
//
// The YAML format carries the same data with explicit mower IDs. Load picks
// the format from the file extension.
package scenario

import (
	"errors"
	"fmt"

	"github.com/harun/lawnmower/pkg/lawn"
)

var (
	// ErrMalformed is returned for input that cannot be parsed at all
	ErrMalformed = errors.New("malformed scenario")
	// ErrInvalid is returned for input that parses but violates the lawn rules
	ErrInvalid = errors.New("invalid scenario")
)

// Scenario is a fully parsed simulation input
type Scenario struct {
	Grid   lawn.Grid
	Mowers []MowerSpec
}

// MowerSpec describes one mower: identity, start and program
type MowerSpec struct {
	ID      string
	Start   lawn.Position
	Program lawn.Program
}

// Validate checks that mower IDs are unique and non-empty and that every
// start position lies on the lawn. Overlapping starts are allowed; the
// mediator resolves them at registration.
func (s Scenario) Validate() error {
	seen := make(map[string]struct{}, len(s.Mowers))
	for i, m := range s.Mowers {
		if m.ID == "" {
			return fmt.Errorf("%w: mower %d has no id", ErrInvalid, i+1)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("%w: duplicate mower id %q", ErrInvalid, m.ID)
		}
		seen[m.ID] = struct{}{}

		if !m.Start.Orientation.Valid() {
			return fmt.Errorf("%w: mower %s: %w", ErrInvalid, m.ID, lawn.ErrUnknownOrientation)
		}
		if !s.Grid.IsValid(m.Start) {
			return fmt.Errorf("%w: mower %s has invalid position %s on %s", ErrInvalid, m.ID, m.Start, s.Grid)
		}
		for j, instruction := range m.Program {
			if !instruction.Valid() {
				return fmt.Errorf("%w: mower %s: instruction %d: %w", ErrInvalid, m.ID, j+1, lawn.ErrUnknownInstruction)
			}
		}
	}
	return nil
}
