package lawn

import (
	"errors"
	"fmt"
)

// ErrInvalidBounds is returned when a grid's max corner is not strictly
// greater than its min corner on both axes
var ErrInvalidBounds = errors.New("invalid grid bounds")

// Grid is the immutable rectangular lawn boundary, inclusive on all sides
type Grid struct {
	xMin int
	yMin int
	xMax int
	yMax int
}

// NewGrid creates a grid spanning [xMin,xMax]×[yMin,yMax]
func NewGrid(xMin, yMin, xMax, yMax int) (Grid, error) {
	if xMax <= xMin {
		return Grid{}, fmt.Errorf("%w: xMax (%d) should be greater than xMin (%d)", ErrInvalidBounds, xMax, xMin)
	}
	if yMax <= yMin {
		return Grid{}, fmt.Errorf("%w: yMax (%d) should be greater than yMin (%d)", ErrInvalidBounds, yMax, yMin)
	}

	return Grid{xMin: xMin, yMin: yMin, xMax: xMax, yMax: yMax}, nil
}

// MustGrid is like NewGrid but panics on invalid bounds. Intended for tests
// and static setups.
func MustGrid(xMin, yMin, xMax, yMax int) Grid {
	g, err := NewGrid(xMin, yMin, xMax, yMax)
	if err != nil {
		panic(err)
	}
	return g
}

// IsValid reports whether p lies inside the grid
func (g Grid) IsValid(p Position) bool {
	return p.X >= g.xMin &&
		p.X <= g.xMax &&
		p.Y >= g.yMin &&
		p.Y <= g.yMax
}

func (g Grid) XMin() int { return g.xMin }
func (g Grid) YMin() int { return g.yMin }
func (g Grid) XMax() int { return g.xMax }
func (g Grid) YMax() int { return g.yMax }

func (g Grid) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", g.xMin, g.yMin, g.xMax, g.yMax)
}
