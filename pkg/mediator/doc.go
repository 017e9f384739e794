// Package mediator serializes position claims across concurrently running
// mowers.
//
// Invariants:
// - No two registered mowers ever occupy the same cell (orientation ignored).
// - The occupancy check and the commit of a registration or an advance form
//   one critical section under a single mutex.
// - A contested cell is waited on for at most MaxWaitRounds bounded waits;
//   after that the request is dropped and the prior position is kept.
// - Turns never change the cell and never take the lock.
//
// Usage:
//
//	m := mediator.New(grid, mediator.Config{})
//	if err := m.Register(ctx, mw); err != nil {
//		return err
//	}
//	pos, err := m.Dispatch(ctx, lawn.Advance, mw)
package mediator
