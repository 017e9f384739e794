// Package lawn holds the value types of the mower simulation: the grid
// boundary, compass orientations, positions and instructions.
//
// Invariants:
// - Grid max corners are strictly greater than min corners.
// - Orientation.Right(Orientation.Left(o)) == o for every orientation.
// - Positions are values; collision detection uses Position.SameCell, which
//   ignores orientation.
package lawn
