package lawn

import "fmt"

// Position is an immutable (x, y, orientation) triple. Movement always
// produces a new Position.
type Position struct {
	X           int         `json:"x" yaml:"x"`
	Y           int         `json:"y" yaml:"y"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`
}

// NewPosition creates a position
func NewPosition(x, y int, o Orientation) Position {
	return Position{X: x, Y: y, Orientation: o}
}

// SameCell reports whether p and other cover the same grid cell.
// Orientation is ignored: two mowers facing different ways on one cell still collide.
func (p Position) SameCell(other Position) bool {
	return p.Cell() == other.Cell()
}

// Cell returns the (x, y) coordinate of the position
func (p Position) Cell() Cell {
	return Cell{X: p.X, Y: p.Y}
}

// String formats the position the way the output report prints it: "x y O"
func (p Position) String() string {
	return fmt.Sprintf("%d %d %s", p.X, p.Y, p.Orientation)
}

// Cell is an orientation-independent grid coordinate
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}
