// Package move computes candidate positions. A strategy never looks at the
// grid or at other mowers: bounds and occupancy are judged by the caller.
package move

import "github.com/harun/lawnmower/pkg/lawn"

// Strategy maps a position to the candidate position after one instruction
type Strategy interface {
	Advance(p lawn.Position) lawn.Position
	TurnLeft(p lawn.Position) lawn.Position
	TurnRight(p lawn.Position) lawn.Position
}

// Default moves one cell along the facing axis and turns a quarter at a time
type Default struct{}

// Advance shifts one unit along the axis of p.Orientation
func (Default) Advance(p lawn.Position) lawn.Position {
	switch p.Orientation {
	case lawn.North:
		return lawn.NewPosition(p.X, p.Y+1, p.Orientation)
	case lawn.South:
		return lawn.NewPosition(p.X, p.Y-1, p.Orientation)
	case lawn.East:
		return lawn.NewPosition(p.X+1, p.Y, p.Orientation)
	case lawn.West:
		return lawn.NewPosition(p.X-1, p.Y, p.Orientation)
	}
	// Unknown orientation: stay put
	return p
}

// TurnLeft keeps the cell and rotates counter-clockwise
func (Default) TurnLeft(p lawn.Position) lawn.Position {
	return lawn.NewPosition(p.X, p.Y, p.Orientation.Left())
}

// TurnRight keeps the cell and rotates clockwise
func (Default) TurnRight(p lawn.Position) lawn.Position {
	return lawn.NewPosition(p.X, p.Y, p.Orientation.Right())
}
